package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/mpavlov/studyhub-api/internal/middleware"
	"github.com/mpavlov/studyhub-api/internal/models"
	"github.com/mpavlov/studyhub-api/internal/services"
	"github.com/mpavlov/studyhub-api/pkg/dto"
)

type InvitationHandler struct {
	invitationService InvitationServiceInterface
	sessionService    SessionServiceInterface
}

func NewInvitationHandler(invitationService InvitationServiceInterface, sessionService SessionServiceInterface) *InvitationHandler {
	return &InvitationHandler{
		invitationService: invitationService,
		sessionService:    sessionService,
	}
}

func (h *InvitationHandler) CreateForSession(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid session id")
		return
	}

	var req dto.CreateInvitationsRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if len(req.RecipientIDs) == 0 {
		c.BadRequest("recipient_ids is required")
		return
	}

	created, err := h.invitationService.CreateInvitations(context.Background(), sessionID, userID, req.RecipientIDs, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			c.NotFound("session not found")
		case errors.Is(err, services.ErrUserNotFound):
			c.NotFound("sender not found")
		default:
			c.InternalServerError("failed to create invitations")
		}
		return
	}

	_ = c.JSON(201, invitationResponses(created))
}

func (h *InvitationHandler) ListForSession(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid session id")
		return
	}

	session, err := h.sessionService.GetByID(context.Background(), sessionID)
	if err != nil {
		c.NotFound("session not found")
		return
	}
	if session.CreatedBy != userID {
		c.Forbidden("only the session creator can list its invitations")
		return
	}

	invitations, err := h.invitationService.GetForSession(context.Background(), sessionID)
	if err != nil {
		c.InternalServerError("failed to get invitations")
		return
	}

	_ = c.JSON(200, invitationResponses(invitations))
}

func (h *InvitationHandler) ListMine(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	invitations, err := h.invitationService.GetForUser(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to get invitations")
		return
	}

	_ = c.JSON(200, invitationResponses(invitations))
}

func (h *InvitationHandler) ListPending(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	groupID, err := uuid.Parse(c.Request.URL.Query().Get("groupId"))
	if err != nil {
		c.BadRequest("invalid or missing groupId")
		return
	}

	invitations, err := h.invitationService.GetPendingForUserInGroup(context.Background(), userID, groupID)
	if err != nil {
		c.InternalServerError("failed to get invitations")
		return
	}

	_ = c.JSON(200, invitationResponses(invitations))
}

func (h *InvitationHandler) Accept(c *drift.Context) {
	h.respond(c, services.ResponseAccept)
}

func (h *InvitationHandler) Decline(c *drift.Context) {
	h.respond(c, services.ResponseDecline)
}

func (h *InvitationHandler) respond(c *drift.Context, action string) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	invitationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid invitation id")
		return
	}

	invitation, err := h.invitationService.Respond(context.Background(), invitationID, userID, action)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvitationNotFound):
			c.NotFound("invitation not found")
		case errors.Is(err, services.ErrNotInviteRecipient):
			c.Forbidden("invitation belongs to another user")
		case errors.Is(err, services.ErrInvitationNotPending):
			_ = c.JSON(http.StatusConflict, map[string]string{"error": "invitation has already been responded to"})
		case errors.Is(err, services.ErrInvalidResponseAction):
			c.BadRequest("unknown response action")
		default:
			c.InternalServerError("failed to respond to invitation")
		}
		return
	}

	_ = c.JSON(200, invitationResponse(invitation))
}

func (h *InvitationHandler) Rejoin(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	invitationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid invitation id")
		return
	}

	invitation, err := h.invitationService.Rejoin(context.Background(), invitationID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvitationNotFound):
			c.NotFound("invitation not found")
		case errors.Is(err, services.ErrNotInviteRecipient):
			c.Forbidden("invitation belongs to another user")
		case errors.Is(err, services.ErrInvitationNotDeclined):
			_ = c.JSON(http.StatusConflict, map[string]string{"error": "only declined invitations can be reopened"})
		default:
			c.InternalServerError("failed to reopen invitation")
		}
		return
	}

	_ = c.JSON(200, invitationResponse(invitation))
}

func invitationResponse(invitation *models.Invitation) dto.InvitationResponse {
	response := dto.InvitationResponse{
		ID:          invitation.ID,
		SessionID:   invitation.SessionID,
		RecipientID: invitation.RecipientID,
		SenderID:    invitation.SenderID,
		Status:      invitation.Status,
		Message:     invitation.Message,
		InvitedAt:   invitation.InvitedAt,
		RespondedAt: invitation.RespondedAt,
	}
	if invitation.Session != nil {
		session := sessionResponse(invitation.Session)
		response.Session = &session
	}
	return response
}

func invitationResponses(invitations []models.Invitation) []dto.InvitationResponse {
	response := make([]dto.InvitationResponse, len(invitations))
	for i := range invitations {
		response[i] = invitationResponse(&invitations[i])
	}
	return response
}

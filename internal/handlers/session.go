package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/mpavlov/studyhub-api/internal/middleware"
	"github.com/mpavlov/studyhub-api/internal/models"
	"github.com/mpavlov/studyhub-api/internal/services"
	"github.com/mpavlov/studyhub-api/pkg/dto"
)

type SessionHandler struct {
	sessionService     SessionServiceInterface
	groupService       GroupServiceInterface
	participantService ParticipantServiceInterface
}

func NewSessionHandler(sessionService SessionServiceInterface, groupService GroupServiceInterface, participantService ParticipantServiceInterface) *SessionHandler {
	return &SessionHandler{
		sessionService:     sessionService,
		groupService:       groupService,
		participantService: participantService,
	}
}

func (h *SessionHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid group id")
		return
	}

	var req dto.CreateSessionRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Title == "" {
		c.BadRequest("title is required")
		return
	}
	if req.StartTime.IsZero() {
		c.BadRequest("start_time is required")
		return
	}

	end, err := resolveEndTime(req.StartTime, req.EndTime, req.DurationDays)
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	session, err := h.sessionService.Create(context.Background(), groupID, userID, req.Title, req.Description, req.StartTime, end, req.MeetingLink)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrGroupNotFound):
			c.NotFound("group not found")
		case errors.Is(err, services.ErrSessionOverlap):
			_ = c.JSON(http.StatusConflict, map[string]string{"error": "session overlaps an existing session in this group"})
		case errors.Is(err, services.ErrInvalidInterval):
			c.BadRequest("end time must not be before start time")
		default:
			c.InternalServerError("failed to create session")
		}
		return
	}

	_ = c.JSON(201, sessionResponse(session))
}

func (h *SessionHandler) ListByGroup(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid group id")
		return
	}

	isMember, err := h.groupService.IsApprovedMember(context.Background(), groupID, userID)
	if err != nil || !isMember {
		c.NotFound("group not found")
		return
	}

	sessions, err := h.sessionService.GetByGroup(context.Background(), groupID)
	if err != nil {
		c.InternalServerError("failed to get sessions")
		return
	}

	_ = c.JSON(200, sessionResponses(sessions))
}

func (h *SessionHandler) ListMine(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	sessions, err := h.sessionService.GetByCreator(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to get sessions")
		return
	}

	_ = c.JSON(200, sessionResponses(sessions))
}

func (h *SessionHandler) Get(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	session, ok := h.loadVisibleSession(c, userID)
	if !ok {
		return
	}

	_ = c.JSON(200, sessionResponse(session))
}

func (h *SessionHandler) Update(c *drift.Context) {
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

	var req dto.UpdateSessionRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	update := services.SessionUpdate{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MeetingLink: req.MeetingLink,
	}

	if req.DurationDays != nil {
		if req.EndTime != nil {
			c.BadRequest("set either end_time or duration_days, not both")
			return
		}
		if *req.DurationDays <= 0 {
			c.BadRequest("duration_days must be positive")
			return
		}
		start := req.StartTime
		if start == nil {
			session, err := h.sessionService.GetByID(context.Background(), sessionID)
			if err != nil {
				c.NotFound("session not found")
				return
			}
			start = &session.StartTime
		}
		end := start.Add(time.Duration(*req.DurationDays) * 24 * time.Hour)
		update.EndTime = &end
	}

	session, err := h.sessionService.Update(context.Background(), sessionID, userID, update)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			c.NotFound("session not found")
		case errors.Is(err, services.ErrNotSessionCreator):
			c.Forbidden("only the session creator can update it")
		case errors.Is(err, services.ErrSessionOverlap):
			_ = c.JSON(http.StatusConflict, map[string]string{"error": "session overlaps an existing session in this group"})
		case errors.Is(err, services.ErrInvalidInterval):
			c.BadRequest("end time must not be before start time")
		default:
			c.InternalServerError("failed to update session")
		}
		return
	}

	_ = c.JSON(200, sessionResponse(session))
}

func (h *SessionHandler) Archive(c *drift.Context) {
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

	if err := h.sessionService.Archive(context.Background(), sessionID, userID); err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			c.NotFound("session not found")
		case errors.Is(err, services.ErrNotSessionCreator):
			c.Forbidden("only the session creator can archive it")
		default:
			c.InternalServerError("failed to archive session")
		}
		return
	}

	_ = c.JSON(200, map[string]string{"message": "session archived"})
}

func (h *SessionHandler) Delete(c *drift.Context) {
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
		c.Forbidden("only the session creator can delete it")
		return
	}

	if err := h.sessionService.Delete(context.Background(), sessionID); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.NotFound("session not found")
			return
		}
		c.InternalServerError("failed to delete session")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "session deleted"})
}

func (h *SessionHandler) ListParticipants(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	session, ok := h.loadVisibleSession(c, userID)
	if !ok {
		return
	}

	participants, err := h.participantService.List(context.Background(), session.ID)
	if err != nil {
		c.InternalServerError("failed to get participants")
		return
	}

	response := make([]dto.ParticipantResponse, len(participants))
	for i, p := range participants {
		response[i] = dto.ParticipantResponse{
			ID:       p.ID,
			UserID:   p.UserID,
			JoinedAt: p.JoinedAt,
			User:     userResponse(p.User),
		}
	}
	_ = c.JSON(200, response)
}

func (h *SessionHandler) ParticipantCount(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	session, ok := h.loadVisibleSession(c, userID)
	if !ok {
		return
	}

	count, err := h.participantService.Count(context.Background(), session.ID)
	if err != nil {
		c.InternalServerError("failed to count participants")
		return
	}

	_ = c.JSON(200, map[string]int{"count": count})
}

func (h *SessionHandler) IsParticipant(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	session, ok := h.loadVisibleSession(c, userID)
	if !ok {
		return
	}

	isParticipant, err := h.participantService.IsParticipant(context.Background(), session.ID, userID)
	if err != nil {
		c.InternalServerError("failed to check participation")
		return
	}

	_ = c.JSON(200, map[string]bool{"is_participant": isParticipant})
}

// loadVisibleSession resolves the :id param and hides sessions in groups
// the caller does not belong to.
func (h *SessionHandler) loadVisibleSession(c *drift.Context, userID uuid.UUID) (*models.Session, bool) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid session id")
		return nil, false
	}

	session, err := h.sessionService.GetByID(context.Background(), sessionID)
	if err != nil {
		c.NotFound("session not found")
		return nil, false
	}

	isMember, err := h.groupService.IsApprovedMember(context.Background(), session.GroupID, userID)
	if err != nil || !isMember {
		c.NotFound("session not found")
		return nil, false
	}
	return session, true
}

func resolveEndTime(start time.Time, end *time.Time, durationDays *int) (time.Time, error) {
	switch {
	case end != nil && durationDays != nil:
		return time.Time{}, errors.New("set either end_time or duration_days, not both")
	case end != nil:
		return *end, nil
	case durationDays != nil:
		if *durationDays <= 0 {
			return time.Time{}, errors.New("duration_days must be positive")
		}
		return start.Add(time.Duration(*durationDays) * 24 * time.Hour), nil
	default:
		return time.Time{}, errors.New("end_time or duration_days is required")
	}
}

func sessionResponse(session *models.Session) dto.SessionResponse {
	return dto.SessionResponse{
		ID:          session.ID,
		GroupID:     session.GroupID,
		Title:       session.Title,
		Description: session.Description,
		StartTime:   session.StartTime,
		EndTime:     session.EndTime,
		MeetingLink: session.MeetingLink,
		CreatedBy:   session.CreatedBy,
		Archived:    session.Archived,
		CreatedAt:   session.CreatedAt,
	}
}

func sessionResponses(sessions []models.Session) []dto.SessionResponse {
	response := make([]dto.SessionResponse, len(sessions))
	for i := range sessions {
		response[i] = sessionResponse(&sessions[i])
	}
	return response
}

package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/mpavlov/studyhub-api/internal/middleware"
	"github.com/mpavlov/studyhub-api/internal/models"
	"github.com/mpavlov/studyhub-api/internal/services"
	"github.com/mpavlov/studyhub-api/pkg/dto"
)

type GroupHandler struct {
	groupService GroupServiceInterface
}

func NewGroupHandler(groupService GroupServiceInterface) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

func (h *GroupHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateGroupRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	group, err := h.groupService.Create(context.Background(), req.Name, req.Description, userID)
	if err != nil {
		c.InternalServerError("failed to create group")
		return
	}

	_ = c.JSON(201, groupResponse(group))
}

func (h *GroupHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	groups, err := h.groupService.GetUserGroups(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to get groups")
		return
	}

	response := make([]dto.GroupResponse, len(groups))
	for i := range groups {
		response[i] = groupResponse(&groups[i])
	}
	_ = c.JSON(200, response)
}

func (h *GroupHandler) Get(c *drift.Context) {
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

	group, err := h.groupService.GetByID(context.Background(), groupID)
	if err != nil {
		c.NotFound("group not found")
		return
	}

	_ = c.JSON(200, groupResponse(group))
}

func (h *GroupHandler) GetMembers(c *drift.Context) {
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

	members, err := h.groupService.GetApprovedMembers(context.Background(), groupID)
	if err != nil {
		c.InternalServerError("failed to get members")
		return
	}

	response := make([]dto.GroupMemberResponse, len(members))
	for i, m := range members {
		response[i] = dto.GroupMemberResponse{
			ID:             m.ID,
			UserID:         m.UserID,
			ApprovalStatus: m.ApprovalStatus,
			User:           userResponse(m.User),
		}
	}
	_ = c.JSON(200, response)
}

func (h *GroupHandler) Join(c *drift.Context) {
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

	if _, err := h.groupService.GetByID(context.Background(), groupID); err != nil {
		c.NotFound("group not found")
		return
	}

	if err := h.groupService.RequestJoin(context.Background(), groupID, userID); err != nil {
		c.InternalServerError("failed to request membership")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "membership requested"})
}

func (h *GroupHandler) ApproveMember(c *drift.Context) {
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

	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	isOwner, err := h.groupService.IsOwner(context.Background(), groupID, userID)
	if err != nil || !isOwner {
		c.Forbidden("only the group owner can approve members")
		return
	}

	if err := h.groupService.ApproveMember(context.Background(), groupID, memberID); err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			c.NotFound("member not found")
			return
		}
		c.InternalServerError("failed to approve member")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "member approved"})
}

func groupResponse(group *models.Group) dto.GroupResponse {
	return dto.GroupResponse{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		OwnerID:     group.OwnerID,
		CreatedAt:   group.CreatedAt,
	}
}

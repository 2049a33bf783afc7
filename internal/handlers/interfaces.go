package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mpavlov/studyhub-api/internal/models"
	"github.com/mpavlov/studyhub-api/internal/services"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	Upsert(ctx context.Context, email, name string, avatarURL *string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// GroupServiceInterface defines the methods used by handlers from GroupService
type GroupServiceInterface interface {
	Create(ctx context.Context, name, description string, ownerID uuid.UUID) (*models.Group, error)
	GetByID(ctx context.Context, groupID uuid.UUID) (*models.Group, error)
	GetUserGroups(ctx context.Context, userID uuid.UUID) ([]models.Group, error)
	GetApprovedMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error)
	IsApprovedMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	IsOwner(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	RequestJoin(ctx context.Context, groupID, userID uuid.UUID) error
	ApproveMember(ctx context.Context, groupID, userID uuid.UUID) error
}

// SessionServiceInterface defines the methods used by handlers from SessionService
type SessionServiceInterface interface {
	Create(ctx context.Context, groupID, creatorID uuid.UUID, title, description string, start, end time.Time, meetingLink *string) (*models.Session, error)
	Update(ctx context.Context, sessionID, userID uuid.UUID, update services.SessionUpdate) (*models.Session, error)
	GetByID(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
	GetByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Session, error)
	GetByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Session, error)
	Archive(ctx context.Context, sessionID, userID uuid.UUID) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

// InvitationServiceInterface defines the methods used by handlers from InvitationService
type InvitationServiceInterface interface {
	CreateInvitations(ctx context.Context, sessionID, senderID uuid.UUID, recipientIDs []uuid.UUID, message string) ([]models.Invitation, error)
	Respond(ctx context.Context, invitationID, userID uuid.UUID, action string) (*models.Invitation, error)
	Rejoin(ctx context.Context, invitationID, userID uuid.UUID) (*models.Invitation, error)
	GetForUser(ctx context.Context, userID uuid.UUID) ([]models.Invitation, error)
	GetPendingForUserInGroup(ctx context.Context, userID, groupID uuid.UUID) ([]models.Invitation, error)
	GetForSession(ctx context.Context, sessionID uuid.UUID) ([]models.Invitation, error)
}

// ParticipantServiceInterface defines the methods used by handlers from ParticipantService
type ParticipantServiceInterface interface {
	List(ctx context.Context, sessionID uuid.UUID) ([]models.Participant, error)
	Count(ctx context.Context, sessionID uuid.UUID) (int, error)
	IsParticipant(ctx context.Context, sessionID, userID uuid.UUID) (bool, error)
}

// NotificationServiceInterface defines the methods used by handlers from NotificationService
type NotificationServiceInterface interface {
	MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

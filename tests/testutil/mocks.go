package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mpavlov/studyhub-api/internal/models"
	"github.com/mpavlov/studyhub-api/internal/services"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Upsert(ctx context.Context, email, name string, avatarURL *string) (*models.User, error) {
	args := m.Called(ctx, email, name, avatarURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockGroupService mocks the GroupService
type MockGroupService struct {
	mock.Mock
}

func (m *MockGroupService) Create(ctx context.Context, name, description string, ownerID uuid.UUID) (*models.Group, error) {
	args := m.Called(ctx, name, description, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockGroupService) GetByID(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockGroupService) GetUserGroups(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Group), args.Error(1)
}

func (m *MockGroupService) GetApprovedMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).([]models.GroupMember), args.Error(1)
}

func (m *MockGroupService) IsApprovedMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGroupService) IsOwner(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGroupService) RequestJoin(ctx context.Context, groupID, userID uuid.UUID) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *MockGroupService) ApproveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

// MockSessionService mocks the SessionService
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Create(ctx context.Context, groupID, creatorID uuid.UUID, title, description string, start, end time.Time, meetingLink *string) (*models.Session, error) {
	args := m.Called(ctx, groupID, creatorID, title, description, start, end, meetingLink)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionService) Update(ctx context.Context, sessionID, userID uuid.UUID, update services.SessionUpdate) (*models.Session, error) {
	args := m.Called(ctx, sessionID, userID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionService) GetByID(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionService) GetByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Session, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *MockSessionService) GetByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Session, error) {
	args := m.Called(ctx, creatorID)
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *MockSessionService) Archive(ctx context.Context, sessionID, userID uuid.UUID) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

func (m *MockSessionService) Delete(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockInvitationService mocks the InvitationService
type MockInvitationService struct {
	mock.Mock
}

func (m *MockInvitationService) CreateInvitations(ctx context.Context, sessionID, senderID uuid.UUID, recipientIDs []uuid.UUID, message string) ([]models.Invitation, error) {
	args := m.Called(ctx, sessionID, senderID, recipientIDs, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invitation), args.Error(1)
}

func (m *MockInvitationService) Respond(ctx context.Context, invitationID, userID uuid.UUID, action string) (*models.Invitation, error) {
	args := m.Called(ctx, invitationID, userID, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) Rejoin(ctx context.Context, invitationID, userID uuid.UUID) (*models.Invitation, error) {
	args := m.Called(ctx, invitationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) GetForUser(ctx context.Context, userID uuid.UUID) ([]models.Invitation, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Invitation), args.Error(1)
}

func (m *MockInvitationService) GetPendingForUserInGroup(ctx context.Context, userID, groupID uuid.UUID) ([]models.Invitation, error) {
	args := m.Called(ctx, userID, groupID)
	return args.Get(0).([]models.Invitation), args.Error(1)
}

func (m *MockInvitationService) GetForSession(ctx context.Context, sessionID uuid.UUID) ([]models.Invitation, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]models.Invitation), args.Error(1)
}

// MockParticipantService mocks the ParticipantService
type MockParticipantService struct {
	mock.Mock
}

func (m *MockParticipantService) List(ctx context.Context, sessionID uuid.UUID) ([]models.Participant, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]models.Participant), args.Error(1)
}

func (m *MockParticipantService) Count(ctx context.Context, sessionID uuid.UUID) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *MockParticipantService) IsParticipant(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, sessionID, userID)
	return args.Bool(0), args.Error(1)
}

// MockNotificationService mocks the NotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	args := m.Called(ctx, notificationID, userID)
	return args.Error(0)
}

func (m *MockNotificationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

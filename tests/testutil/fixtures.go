package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mpavlov/studyhub-api/internal/database"
	"github.com/mpavlov/studyhub-api/internal/models"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email: fmt.Sprintf("user%d@example.com", f.counter),
		Name:  fmt.Sprintf("Test User %d", f.counter),
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, avatar_url)
		VALUES ($1, $2, $3)
		RETURNING id, email, name, avatar_url, created_at, updated_at
	`, user.Email, user.Name, user.AvatarURL).Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

// WithAvatar sets the user's avatar URL
func WithAvatar(url string) UserOption {
	return func(u *models.User) {
		u.AvatarURL = &url
	}
}

// CreateGroup creates a test study group with the given owner as an
// approved member
func (f *Fixtures) CreateGroup(t *testing.T, owner *models.User, opts ...GroupOption) *models.Group {
	t.Helper()
	f.counter++

	group := &models.Group{
		Name:    fmt.Sprintf("Test Group %d", f.counter),
		OwnerID: owner.ID,
	}

	for _, opt := range opts {
		opt(group)
	}

	ctx := context.Background()
	tx, err := f.db.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO study_groups (name, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, owner_id, created_at
	`, group.Name, group.Description, group.OwnerID).Scan(
		&group.ID, &group.Name, &group.Description, &group.OwnerID, &group.CreatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id, approval_status)
		VALUES ($1, $2, $3)
	`, group.ID, owner.ID, models.MembershipApproved)
	if err != nil {
		t.Fatalf("failed to add owner as member: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}

	return group
}

// GroupOption configures a test group
type GroupOption func(*models.Group)

// WithGroupName sets the group's name
func WithGroupName(name string) GroupOption {
	return func(g *models.Group) {
		g.Name = name
	}
}

// AddGroupMember adds an approved member to a group
func (f *Fixtures) AddGroupMember(t *testing.T, group *models.Group, user *models.User) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id, approval_status)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`, group.ID, user.ID, models.MembershipApproved)
	if err != nil {
		t.Fatalf("failed to add group member: %v", err)
	}
}

// CreateSession creates a test session in a group
func (f *Fixtures) CreateSession(t *testing.T, group *models.Group, creator *models.User, opts ...SessionOption) *models.Session {
	t.Helper()
	f.counter++

	start := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	session := &models.Session{
		GroupID:   group.ID,
		Title:     fmt.Sprintf("Test Session %d", f.counter),
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		CreatedBy: creator.ID,
	}

	for _, opt := range opts {
		opt(session)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO sessions (group_id, title, description, start_time, end_time, meeting_link, created_by, archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, group_id, title, description, start_time, end_time, meeting_link, created_by, archived, created_at, updated_at
	`, session.GroupID, session.Title, session.Description, session.StartTime, session.EndTime,
		session.MeetingLink, session.CreatedBy, session.Archived).Scan(
		&session.ID, &session.GroupID, &session.Title, &session.Description,
		&session.StartTime, &session.EndTime, &session.MeetingLink,
		&session.CreatedBy, &session.Archived, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	return session
}

// SessionOption configures a test session
type SessionOption func(*models.Session)

// WithTitle sets the session title
func WithTitle(title string) SessionOption {
	return func(s *models.Session) {
		s.Title = title
	}
}

// WithInterval sets the session start and end times
func WithInterval(start, end time.Time) SessionOption {
	return func(s *models.Session) {
		s.StartTime = start
		s.EndTime = end
	}
}

// Archived marks the session as archived
func Archived() SessionOption {
	return func(s *models.Session) {
		s.Archived = true
	}
}

// CreateInvitation creates a test invitation for a session
func (f *Fixtures) CreateInvitation(t *testing.T, session *models.Session, recipient *models.User, sender *models.User, opts ...InvitationOption) *models.Invitation {
	t.Helper()

	invitation := &models.Invitation{
		SessionID:   session.ID,
		RecipientID: recipient.ID,
		Status:      models.InvitationStatusPending,
	}
	if sender != nil {
		invitation.SenderID = &sender.ID
	}

	for _, opt := range opts {
		opt(invitation)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO session_invitations (session_id, recipient_id, sender_id, status, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, session_id, recipient_id, sender_id, status, message, invited_at, responded_at
	`, invitation.SessionID, invitation.RecipientID, invitation.SenderID,
		invitation.Status, invitation.Message).Scan(
		&invitation.ID, &invitation.SessionID, &invitation.RecipientID, &invitation.SenderID,
		&invitation.Status, &invitation.Message, &invitation.InvitedAt, &invitation.RespondedAt,
	)
	if err != nil {
		t.Fatalf("failed to create invitation: %v", err)
	}

	return invitation
}

// InvitationOption configures a test invitation
type InvitationOption func(*models.Invitation)

// WithStatus sets the invitation status
func WithStatus(status string) InvitationOption {
	return func(i *models.Invitation) {
		i.Status = status
	}
}

// WithMessage sets the invitation message
func WithMessage(message string) InvitationOption {
	return func(i *models.Invitation) {
		i.Message = message
	}
}

// AddParticipant records a user as a session participant
func (f *Fixtures) AddParticipant(t *testing.T, session *models.Session, user *models.User) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO session_participants (session_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (session_id, user_id) DO NOTHING
	`, session.ID, user.ID)
	if err != nil {
		t.Fatalf("failed to add participant: %v", err)
	}
}

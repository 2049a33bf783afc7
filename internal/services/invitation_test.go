package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mpavlov/studyhub-api/internal/config"
	"github.com/mpavlov/studyhub-api/internal/database"
	"github.com/mpavlov/studyhub-api/internal/models"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var invitationColumns = []string{
	"id", "session_id", "recipient_id", "sender_id", "status", "message", "invited_at", "responded_at",
}

var userColumns = []string{"id", "email", "name", "avatar_url", "created_at", "updated_at"}

var notificationColumns = []string{"id", "recipient_id", "session_id", "type", "message", "read", "created_at"}

func setupInvitationService(t *testing.T) (*InvitationService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	users := NewUserService(db)
	groups := NewGroupService(db)
	notifications := NewNotificationService(db, groups, nil)
	email := NewEmailService(config.SMTPConfig{})
	return NewInvitationService(db, users, notifications, email), mock
}

func expectSessionLookup(mock pgxmock.PgxPoolIface, sessionID, groupID, creatorID uuid.UUID, title string, start time.Time) {
	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM sessions WHERE id`).
		WithArgs(sessionID).
		WillReturnRows(pgxmock.NewRows(sessionColumns).
			AddRow(sessionID, groupID, title, "", start, start.Add(time.Hour), noLink, creatorID, false, now, now))
}

func expectUserLookup(mock pgxmock.PgxPoolIface, userID uuid.UUID, name string) {
	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow(userID, name+"@example.com", name, nil, now, now))
}

func TestInvitationService_CreateInvitations_MixedBatch(t *testing.T) {
	svc, mock := setupInvitationService(t)
	ctx := context.Background()
	sessionID := uuid.New()
	senderID := uuid.New()
	missingID := uuid.New()
	alreadyInvitedID := uuid.New()
	freshID := uuid.New()
	invitationID := uuid.New()
	start := time.Now().Add(24 * time.Hour)
	now := time.Now()

	expectSessionLookup(mock, sessionID, uuid.New(), senderID, "Algebra review", start)
	expectUserLookup(mock, senderID, "Sender")

	// senderID itself is first in the batch and skipped without any query.

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WithArgs(missingID).
		WillReturnError(pgx.ErrNoRows)

	expectUserLookup(mock, alreadyInvitedID, "Already")
	mock.ExpectQuery(`INSERT INTO session_invitations`).
		WithArgs(sessionID, alreadyInvitedID, senderID, "Join us").
		WillReturnError(pgx.ErrNoRows)

	expectUserLookup(mock, freshID, "Fresh")
	mock.ExpectQuery(`INSERT INTO session_invitations`).
		WithArgs(sessionID, freshID, senderID, "Join us").
		WillReturnRows(pgxmock.NewRows(invitationColumns).
			AddRow(invitationID, sessionID, freshID, &senderID, models.InvitationStatusPending, "Join us", now, nil))
	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(freshID, &sessionID, models.NotificationInvitation, "Sender invited you to the session \"Algebra review\"").
		WillReturnRows(pgxmock.NewRows(notificationColumns).
			AddRow(uuid.New(), freshID, &sessionID, models.NotificationInvitation, "x", false, now))

	created, err := svc.CreateInvitations(ctx, sessionID, senderID,
		[]uuid.UUID{senderID, missingID, alreadyInvitedID, freshID}, "Join us")

	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, freshID, created[0].RecipientID)
	assert.Equal(t, models.InvitationStatusPending, created[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_CreateInvitations_SessionNotFound(t *testing.T) {
	svc, mock := setupInvitationService(t)
	ctx := context.Background()
	sessionID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM sessions WHERE id`).
		WithArgs(sessionID).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.CreateInvitations(ctx, sessionID, uuid.New(), []uuid.UUID{uuid.New()}, "")

	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Respond_Accept(t *testing.T) {
	svc, mock := setupInvitationService(t)
	ctx := context.Background()
	invitationID := uuid.New()
	sessionID := uuid.New()
	senderID := uuid.New()
	userID := uuid.New()
	start := time.Now().Add(24 * time.Hour)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM session_invitations WHERE id`).
		WithArgs(invitationID).
		WillReturnRows(pgxmock.NewRows(invitationColumns).
			AddRow(invitationID, sessionID, userID, &senderID, models.InvitationStatusPending, "", now, nil))
	mock.ExpectQuery(`UPDATE session_invitations SET status`).
		WithArgs(models.InvitationStatusAccepted, invitationID, models.InvitationStatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"status", "responded_at"}).
			AddRow(models.InvitationStatusAccepted, &now))
	mock.ExpectExec(`INSERT INTO session_participants`).
		WithArgs(sessionID, userID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	expectSessionLookup(mock, sessionID, uuid.New(), senderID, "Algebra review", start)
	expectUserLookup(mock, userID, "Riley")
	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(senderID, &sessionID, models.NotificationAccepted,
			fmt.Sprintf("%s accepted your invitation to %q", "Riley", "Algebra review")).
		WillReturnRows(pgxmock.NewRows(notificationColumns).
			AddRow(uuid.New(), senderID, &sessionID, models.NotificationAccepted, "x", false, now))

	invitation, err := svc.Respond(ctx, invitationID, userID, ResponseAccept)

	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusAccepted, invitation.Status)
	assert.NotNil(t, invitation.RespondedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Respond_Decline(t *testing.T) {
	svc, mock := setupInvitationService(t)
	ctx := context.Background()
	invitationID := uuid.New()
	sessionID := uuid.New()
	senderID := uuid.New()
	userID := uuid.New()
	start := time.Now().Add(24 * time.Hour)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM session_invitations WHERE id`).
		WithArgs(invitationID).
		WillReturnRows(pgxmock.NewRows(invitationColumns).
			AddRow(invitationID, sessionID, userID, &senderID, models.InvitationStatusPending, "", now, nil))
	mock.ExpectQuery(`UPDATE session_invitations SET status`).
		WithArgs(models.InvitationStatusDeclined, invitationID, models.InvitationStatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"status", "responded_at"}).
			AddRow(models.InvitationStatusDeclined, &now))
	// No participant row on decline.
	mock.ExpectCommit()

	expectSessionLookup(mock, sessionID, uuid.New(), senderID, "Algebra review", start)
	expectUserLookup(mock, userID, "Riley")
	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(senderID, &sessionID, models.NotificationDeclined, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(notificationColumns).
			AddRow(uuid.New(), senderID, &sessionID, models.NotificationDeclined, "x", false, now))

	invitation, err := svc.Respond(ctx, invitationID, userID, ResponseDecline)

	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusDeclined, invitation.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Respond_WrongRecipient(t *testing.T) {
	svc, mock := setupInvitationService(t)
	ctx := context.Background()
	invitationID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM session_invitations WHERE id`).
		WithArgs(invitationID).
		WillReturnRows(pgxmock.NewRows(invitationColumns).
			AddRow(invitationID, uuid.New(), uuid.New(), nil, models.InvitationStatusPending, "", now, nil))
	mock.ExpectRollback()

	_, err := svc.Respond(ctx, invitationID, uuid.New(), ResponseAccept)

	assert.ErrorIs(t, err, ErrNotInviteRecipient)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Respond_AlreadyResponded(t *testing.T) {
	svc, mock := setupInvitationService(t)
	ctx := context.Background()
	invitationID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM session_invitations WHERE id`).
		WithArgs(invitationID).
		WillReturnRows(pgxmock.NewRows(invitationColumns).
			AddRow(invitationID, uuid.New(), userID, nil, models.InvitationStatusAccepted, "", now, &now))
	mock.ExpectRollback()

	_, err := svc.Respond(ctx, invitationID, userID, ResponseDecline)

	assert.ErrorIs(t, err, ErrInvitationNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Respond_RacedResponse(t *testing.T) {
	svc, mock := setupInvitationService(t)
	ctx := context.Background()
	invitationID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM session_invitations WHERE id`).
		WithArgs(invitationID).
		WillReturnRows(pgxmock.NewRows(invitationColumns).
			AddRow(invitationID, uuid.New(), userID, nil, models.InvitationStatusPending, "", now, nil))
	// The guarded update matches no row: another response won the race.
	mock.ExpectQuery(`UPDATE session_invitations SET status`).
		WithArgs(models.InvitationStatusAccepted, invitationID, models.InvitationStatusPending).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Respond(ctx, invitationID, userID, ResponseAccept)

	assert.ErrorIs(t, err, ErrInvitationNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Respond_InvalidAction(t *testing.T) {
	svc, mock := setupInvitationService(t)

	_, err := svc.Respond(context.Background(), uuid.New(), uuid.New(), "maybe")

	assert.ErrorIs(t, err, ErrInvalidResponseAction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Rejoin(t *testing.T) {
	svc, mock := setupInvitationService(t)
	ctx := context.Background()
	invitationID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM session_invitations WHERE id`).
		WithArgs(invitationID).
		WillReturnRows(pgxmock.NewRows(invitationColumns).
			AddRow(invitationID, uuid.New(), userID, nil, models.InvitationStatusDeclined, "", now, &now))
	mock.ExpectQuery(`UPDATE session_invitations SET status`).
		WithArgs(models.InvitationStatusPending, invitationID, models.InvitationStatusDeclined).
		WillReturnRows(pgxmock.NewRows([]string{"status", "invited_at", "responded_at"}).
			AddRow(models.InvitationStatusPending, time.Now(), (*time.Time)(nil)))

	invitation, err := svc.Rejoin(ctx, invitationID, userID)

	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusPending, invitation.Status)
	assert.Nil(t, invitation.RespondedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Rejoin_NotDeclined(t *testing.T) {
	svc, mock := setupInvitationService(t)
	ctx := context.Background()
	invitationID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM session_invitations WHERE id`).
		WithArgs(invitationID).
		WillReturnRows(pgxmock.NewRows(invitationColumns).
			AddRow(invitationID, uuid.New(), userID, nil, models.InvitationStatusPending, "", now, nil))

	_, err := svc.Rejoin(ctx, invitationID, userID)

	assert.ErrorIs(t, err, ErrInvitationNotDeclined)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_GetForSession(t *testing.T) {
	svc, mock := setupInvitationService(t)
	ctx := context.Background()
	sessionID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM session_invitations WHERE session_id`).
		WithArgs(sessionID).
		WillReturnRows(pgxmock.NewRows(invitationColumns).
			AddRow(uuid.New(), sessionID, uuid.New(), nil, models.InvitationStatusPending, "", now, nil).
			AddRow(uuid.New(), sessionID, uuid.New(), nil, models.InvitationStatusAccepted, "", now, &now))

	invitations, err := svc.GetForSession(ctx, sessionID)

	require.NoError(t, err)
	require.Len(t, invitations, 2)
	assert.Equal(t, models.InvitationStatusPending, invitations[0].Status)
	assert.Equal(t, models.InvitationStatusAccepted, invitations[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

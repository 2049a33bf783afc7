package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mpavlov/studyhub-api/internal/database"
	"github.com/mpavlov/studyhub-api/internal/models"
)

var (
	ErrInvitationNotFound    = errors.New("invitation not found")
	ErrNotInviteRecipient    = errors.New("invitation belongs to another user")
	ErrInvitationNotPending  = errors.New("invitation has already been responded to")
	ErrInvitationNotDeclined = errors.New("only declined invitations can be reopened")
	ErrInvalidResponseAction = errors.New("unknown response action")
)

const (
	ResponseAccept  = "accept"
	ResponseDecline = "decline"
)

type InvitationService struct {
	db            *database.DB
	users         *UserService
	notifications *NotificationService
	email         *EmailService
	logger        *slog.Logger
}

func NewInvitationService(db *database.DB, users *UserService, notifications *NotificationService, email *EmailService) *InvitationService {
	return &InvitationService{
		db:            db,
		users:         users,
		notifications: notifications,
		email:         email,
		logger:        slog.Default().With("service", "invitation"),
	}
}

// CreateInvitations invites each recipient to a session. Recipients are
// processed in order but independently: a missing recipient or a failed
// write is logged and skipped, never aborting the batch. Self-invites and
// recipients who already hold an invitation for the session are skipped
// silently. Returns the invitations actually created.
func (s *InvitationService) CreateInvitations(ctx context.Context, sessionID, senderID uuid.UUID, recipientIDs []uuid.UUID, message string) ([]models.Invitation, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	var created []models.Invitation
	for _, recipientID := range recipientIDs {
		if recipientID == senderID {
			continue
		}

		recipient, err := s.users.GetByID(ctx, recipientID)
		if err != nil {
			s.logger.Warn("skipping invitation recipient",
				"session_id", sessionID, "recipient_id", recipientID, "error", err)
			continue
		}

		var invitation models.Invitation
		err = s.db.Pool.QueryRow(ctx, `
			INSERT INTO session_invitations (session_id, recipient_id, sender_id, message)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (session_id, recipient_id) DO NOTHING
			RETURNING id, session_id, recipient_id, sender_id, status, message, invited_at, responded_at
		`, sessionID, recipientID, senderID, message).Scan(
			&invitation.ID, &invitation.SessionID, &invitation.RecipientID, &invitation.SenderID,
			&invitation.Status, &invitation.Message, &invitation.InvitedAt, &invitation.RespondedAt,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			// Already invited to this session.
			continue
		}
		if err != nil {
			s.logger.Warn("failed to create invitation",
				"session_id", sessionID, "recipient_id", recipientID, "error", err)
			continue
		}

		notifText := fmt.Sprintf("%s invited you to the session %q", sender.Name, session.Title)
		if _, err := s.notifications.Notify(ctx, recipientID, &sessionID, models.NotificationInvitation, notifText); err != nil {
			s.logger.Warn("failed to notify invitation recipient",
				"invitation_id", invitation.ID, "error", err)
		}

		if err := s.email.SendSessionInvite(recipient.Email, session.Title, sender.Name, session.StartTime); err != nil {
			s.logger.Warn("failed to send invitation email",
				"invitation_id", invitation.ID, "error", err)
		}

		created = append(created, invitation)
	}

	return created, nil
}

// Respond applies an accept or decline to a pending invitation. Accepting
// creates the participant row in the same transaction; the upsert-or-ignore
// keeps a retried or raced accept idempotent.
func (s *InvitationService) Respond(ctx context.Context, invitationID, userID uuid.UUID, action string) (*models.Invitation, error) {
	if action != ResponseAccept && action != ResponseDecline {
		return nil, ErrInvalidResponseAction
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var invitation models.Invitation
	err = tx.QueryRow(ctx, `
		SELECT id, session_id, recipient_id, sender_id, status, message, invited_at, responded_at
		FROM session_invitations WHERE id = $1
	`, invitationID).Scan(
		&invitation.ID, &invitation.SessionID, &invitation.RecipientID, &invitation.SenderID,
		&invitation.Status, &invitation.Message, &invitation.InvitedAt, &invitation.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}

	if invitation.RecipientID != userID {
		return nil, ErrNotInviteRecipient
	}
	if invitation.Status != models.InvitationStatusPending {
		return nil, ErrInvitationNotPending
	}

	newStatus := models.InvitationStatusAccepted
	if action == ResponseDecline {
		newStatus = models.InvitationStatusDeclined
	}

	// The status guard makes the transition monotonic even when two
	// responses race past the select above.
	err = tx.QueryRow(ctx, `
		UPDATE session_invitations SET status = $1, responded_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING status, responded_at
	`, newStatus, invitationID, models.InvitationStatusPending).Scan(
		&invitation.Status, &invitation.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvitationNotPending
		}
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}

	if action == ResponseAccept {
		_, err = tx.Exec(ctx, `
			INSERT INTO session_participants (session_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT (session_id, user_id) DO NOTHING
		`, invitation.SessionID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to add participant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.notifyResponse(ctx, &invitation, userID, action)

	return &invitation, nil
}

// notifyResponse tells the inviter (or the session creator for invitations
// whose sender is gone) about the response. Best-effort: the response
// itself is already committed.
func (s *InvitationService) notifyResponse(ctx context.Context, invitation *models.Invitation, responderID uuid.UUID, action string) {
	session, err := s.getSession(ctx, invitation.SessionID)
	if err != nil {
		s.logger.Warn("failed to load session for response notification",
			"invitation_id", invitation.ID, "error", err)
		return
	}

	target := session.CreatedBy
	if invitation.SenderID != nil {
		target = *invitation.SenderID
	}

	responderName := "Someone"
	if responder, err := s.users.GetByID(ctx, responderID); err == nil {
		responderName = responder.Name
	}

	ntype := models.NotificationAccepted
	verb := "accepted"
	if action == ResponseDecline {
		ntype = models.NotificationDeclined
		verb = "declined"
	}

	message := fmt.Sprintf("%s %s your invitation to %q", responderName, verb, session.Title)
	if _, err := s.notifications.Notify(ctx, target, &session.ID, ntype, message); err != nil {
		s.logger.Warn("failed to notify inviter about response",
			"invitation_id", invitation.ID, "error", err)
	}
}

// Rejoin reopens a declined invitation as pending with a fresh invited_at.
func (s *InvitationService) Rejoin(ctx context.Context, invitationID, userID uuid.UUID) (*models.Invitation, error) {
	var invitation models.Invitation
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, session_id, recipient_id, sender_id, status, message, invited_at, responded_at
		FROM session_invitations WHERE id = $1
	`, invitationID).Scan(
		&invitation.ID, &invitation.SessionID, &invitation.RecipientID, &invitation.SenderID,
		&invitation.Status, &invitation.Message, &invitation.InvitedAt, &invitation.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}

	if invitation.RecipientID != userID {
		return nil, ErrNotInviteRecipient
	}
	if invitation.Status != models.InvitationStatusDeclined {
		return nil, ErrInvitationNotDeclined
	}

	err = s.db.Pool.QueryRow(ctx, `
		UPDATE session_invitations SET status = $1, invited_at = NOW(), responded_at = NULL
		WHERE id = $2 AND status = $3
		RETURNING status, invited_at, responded_at
	`, models.InvitationStatusPending, invitationID, models.InvitationStatusDeclined).Scan(
		&invitation.Status, &invitation.InvitedAt, &invitation.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvitationNotDeclined
		}
		return nil, fmt.Errorf("failed to reopen invitation: %w", err)
	}

	return &invitation, nil
}

func (s *InvitationService) GetForUser(ctx context.Context, userID uuid.UUID) ([]models.Invitation, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT i.id, i.session_id, i.recipient_id, i.sender_id, i.status, i.message, i.invited_at, i.responded_at,
		       s.id, s.group_id, s.title, s.description, s.start_time, s.end_time, s.meeting_link, s.created_by, s.archived, s.created_at, s.updated_at
		FROM session_invitations i
		JOIN sessions s ON i.session_id = s.id
		WHERE i.recipient_id = $1
		ORDER BY i.invited_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvitationsWithSession(rows)
}

func (s *InvitationService) GetPendingForUserInGroup(ctx context.Context, userID, groupID uuid.UUID) ([]models.Invitation, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT i.id, i.session_id, i.recipient_id, i.sender_id, i.status, i.message, i.invited_at, i.responded_at,
		       s.id, s.group_id, s.title, s.description, s.start_time, s.end_time, s.meeting_link, s.created_by, s.archived, s.created_at, s.updated_at
		FROM session_invitations i
		JOIN sessions s ON i.session_id = s.id
		WHERE i.recipient_id = $1 AND s.group_id = $2 AND i.status = $3
		ORDER BY i.invited_at DESC
	`, userID, groupID, models.InvitationStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvitationsWithSession(rows)
}

func (s *InvitationService) GetForSession(ctx context.Context, sessionID uuid.UUID) ([]models.Invitation, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, session_id, recipient_id, sender_id, status, message, invited_at, responded_at
		FROM session_invitations
		WHERE session_id = $1
		ORDER BY invited_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []models.Invitation
	for rows.Next() {
		var invitation models.Invitation
		if err := rows.Scan(
			&invitation.ID, &invitation.SessionID, &invitation.RecipientID, &invitation.SenderID,
			&invitation.Status, &invitation.Message, &invitation.InvitedAt, &invitation.RespondedAt,
		); err != nil {
			return nil, err
		}
		invitations = append(invitations, invitation)
	}
	return invitations, rows.Err()
}

func (s *InvitationService) getSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	var session models.Session
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, group_id, title, description, start_time, end_time, meeting_link, created_by, archived, created_at, updated_at
		FROM sessions WHERE id = $1
	`, sessionID).Scan(
		&session.ID, &session.GroupID, &session.Title, &session.Description,
		&session.StartTime, &session.EndTime, &session.MeetingLink,
		&session.CreatedBy, &session.Archived, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func scanInvitationsWithSession(rows pgx.Rows) ([]models.Invitation, error) {
	var invitations []models.Invitation
	for rows.Next() {
		var invitation models.Invitation
		var session models.Session
		if err := rows.Scan(
			&invitation.ID, &invitation.SessionID, &invitation.RecipientID, &invitation.SenderID,
			&invitation.Status, &invitation.Message, &invitation.InvitedAt, &invitation.RespondedAt,
			&session.ID, &session.GroupID, &session.Title, &session.Description,
			&session.StartTime, &session.EndTime, &session.MeetingLink,
			&session.CreatedBy, &session.Archived, &session.CreatedAt, &session.UpdatedAt,
		); err != nil {
			return nil, err
		}
		invitation.Session = &session
		invitations = append(invitations, invitation)
	}
	return invitations, rows.Err()
}

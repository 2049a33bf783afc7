package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mpavlov/studyhub-api/internal/database"
	"github.com/mpavlov/studyhub-api/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// EventPusher pushes live events to connected clients. Satisfied by
// *sse.Hub; may be nil when no live delivery is wired (CLI tools, tests).
type EventPusher interface {
	BroadcastToUser(userID uuid.UUID, eventType string, data any)
}

type NotificationService struct {
	db     *database.DB
	groups *GroupService
	pusher EventPusher
	logger *slog.Logger
}

func NewNotificationService(db *database.DB, groups *GroupService, pusher EventPusher) *NotificationService {
	return &NotificationService{
		db:     db,
		groups: groups,
		pusher: pusher,
		logger: slog.Default().With("service", "notification"),
	}
}

// Notify persists a notification and pushes it to the recipient's live
// stream. The push is best-effort; only the persistence write can fail.
func (s *NotificationService) Notify(ctx context.Context, recipientID uuid.UUID, sessionID *uuid.UUID, ntype, message string) (*models.Notification, error) {
	var n models.Notification
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO notifications (recipient_id, session_id, type, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, recipient_id, session_id, type, message, read, created_at
	`, recipientID, sessionID, ntype, message).Scan(
		&n.ID, &n.RecipientID, &n.SessionID, &n.Type, &n.Message, &n.Read, &n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if s.pusher != nil {
		s.pusher.BroadcastToUser(recipientID, "notification.created", n)
	}
	return &n, nil
}

// NotifyGroup notifies every approved member of a group except excludeUserID.
// Members are processed in order but independently: one failed write is
// logged and does not abort the rest.
func (s *NotificationService) NotifyGroup(ctx context.Context, groupID, excludeUserID uuid.UUID, sessionID *uuid.UUID, ntype, message string) error {
	members, err := s.groups.GetApprovedMembers(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to load group members: %w", err)
	}

	for _, member := range members {
		if member.UserID == excludeUserID {
			continue
		}
		if _, err := s.Notify(ctx, member.UserID, sessionID, ntype, message); err != nil {
			s.logger.Error("group notification failed",
				"group_id", groupID, "user_id", member.UserID, "error", err)
		}
	}
	return nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND recipient_id = $2
	`, notificationID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, recipient_id, session_id, type, message, read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.SessionID, &n.Type, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read = FALSE
	`, userID).Scan(&count)
	return count, err
}

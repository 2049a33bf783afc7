package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mpavlov/studyhub-api/internal/database"
	"github.com/mpavlov/studyhub-api/internal/models"
)

// reminderKind is one of the reminder classes emitted ahead of a session.
// The tolerance bounds how late after the trigger instant a reminder may
// still fire; the poll interval is coarser than the trigger instants, so
// without it a tick landing just after a trigger would never match exactly.
type reminderKind struct {
	name      string
	tolerance time.Duration
	trigger   func(start time.Time) time.Time
	message   func(title string, start time.Time) string
}

var reminderKinds = []reminderKind{
	{
		name:      "day_of",
		tolerance: 24 * time.Hour,
		trigger: func(start time.Time) time.Time {
			u := start.UTC()
			return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		},
		message: func(title string, start time.Time) string {
			return fmt.Sprintf("Reminder: %q starts today at %s", title, start.UTC().Format("15:04 MST"))
		},
	},
	{
		name:      "two_hours_before",
		tolerance: 45 * time.Minute,
		trigger: func(start time.Time) time.Time {
			return start.Add(-2 * time.Hour)
		},
		message: func(title string, start time.Time) string {
			return fmt.Sprintf("Reminder: %q starts in 2 hours, at %s", title, start.UTC().Format("15:04 MST"))
		},
	},
	{
		name:      "one_hour_before",
		tolerance: 30 * time.Minute,
		trigger: func(start time.Time) time.Time {
			return start.Add(-time.Hour)
		},
		message: func(title string, start time.Time) string {
			return fmt.Sprintf("Reminder: %q starts in 1 hour, at %s", title, start.UTC().Format("15:04 MST"))
		},
	},
}

// ReminderService sweeps upcoming sessions on a fixed interval and emits
// deduplicated reminder notifications plus a best-effort email fan-out.
// It keeps no state between ticks: deduplication is backed entirely by the
// persisted notifications, so a restart cannot double-send.
type ReminderService struct {
	db            *database.DB
	notifications *NotificationService
	email         *EmailService
	logger        *slog.Logger
	now           func() time.Time
}

func NewReminderService(db *database.DB, notifications *NotificationService, email *EmailService) *ReminderService {
	return &ReminderService{
		db:            db,
		notifications: notifications,
		email:         email,
		logger:        slog.Default().With("service", "reminder"),
		now:           time.Now,
	}
}

// Run polls until the context is cancelled. Ticks never overlap: a long
// sweep simply delays the next one.
func (s *ReminderService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunTick(ctx); err != nil {
				s.logger.Error("reminder sweep failed", "error", err)
			}
		}
	}
}

// RunTick performs one sweep: load sessions near the current time, compute
// which reminder triggers are due within tolerance, and fan out to the
// session creator and participants.
func (s *ReminderService) RunTick(ctx context.Context) error {
	now := s.now()

	// Bounded scan window: wide enough for every reminder kind (day-of
	// can trail a long session by up to a day) without a full table scan.
	windowStart := now.Add(-24 * time.Hour)
	windowEnd := now.Add(48 * time.Hour)

	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, group_id, title, description, start_time, end_time, meeting_link, created_by, archived, created_at, updated_at
		FROM sessions
		WHERE archived = FALSE AND start_time < $2 AND end_time > $1
		ORDER BY start_time
	`, windowStart, windowEnd)
	if err != nil {
		return fmt.Errorf("failed to load sessions for reminder sweep: %w", err)
	}
	sessions, err := scanSessions(rows)
	rows.Close()
	if err != nil {
		return fmt.Errorf("failed to scan sessions for reminder sweep: %w", err)
	}

	for i := range sessions {
		s.processSession(ctx, now, &sessions[i])
	}
	return nil
}

func (s *ReminderService) processSession(ctx context.Context, now time.Time, session *models.Session) {
	for _, kind := range reminderKinds {
		trigger := kind.trigger(session.StartTime)
		if now.Before(trigger) {
			continue
		}
		// Pre-start reminders are pointless once the session has begun;
		// the day-of reminder still applies.
		if kind.name != "day_of" && now.After(session.StartTime) {
			continue
		}
		if now.Sub(trigger) > kind.tolerance {
			continue
		}

		message := kind.message(session.Title, session.StartTime)

		// Message text is deterministic per (session, kind), so an
		// existing identical reminder means this trigger already fired
		// on an earlier tick or before a restart.
		var sent bool
		err := s.db.Pool.QueryRow(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM notifications
				WHERE session_id = $1 AND type = $2 AND message = $3
			)
		`, session.ID, models.NotificationReminder, message).Scan(&sent)
		if err != nil {
			s.logger.Error("reminder dedup check failed",
				"session_id", session.ID, "kind", kind.name, "error", err)
			continue
		}
		if sent {
			continue
		}

		recipients, err := s.recipients(ctx, session)
		if err != nil {
			s.logger.Error("failed to load reminder recipients",
				"session_id", session.ID, "error", err)
			continue
		}

		for _, recipient := range recipients {
			if _, err := s.notifications.Notify(ctx, recipient.ID, &session.ID, models.NotificationReminder, message); err != nil {
				s.logger.Error("failed to persist reminder",
					"session_id", session.ID, "user_id", recipient.ID, "error", err)
				continue
			}
			if err := s.email.SendSessionReminder(recipient.Email, session.Title, message); err != nil {
				s.logger.Warn("failed to send reminder email",
					"session_id", session.ID, "user_id", recipient.ID, "error", err)
			}
		}
	}
}

type reminderRecipient struct {
	ID    uuid.UUID
	Email string
}

// recipients returns the session creator followed by the participants,
// deduplicated by user id.
func (s *ReminderService) recipients(ctx context.Context, session *models.Session) ([]reminderRecipient, error) {
	var creator reminderRecipient
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email FROM users WHERE id = $1
	`, session.CreatedBy).Scan(&creator.ID, &creator.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load session creator: %w", err)
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT u.id, u.email
		FROM session_participants p
		JOIN users u ON p.user_id = u.id
		WHERE p.session_id = $1
		ORDER BY p.joined_at
	`, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	defer rows.Close()

	recipients := []reminderRecipient{creator}
	seen := map[uuid.UUID]bool{creator.ID: true}
	for rows.Next() {
		var r reminderRecipient
		if err := rows.Scan(&r.ID, &r.Email); err != nil {
			return nil, err
		}
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

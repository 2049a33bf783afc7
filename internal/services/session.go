package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mpavlov/studyhub-api/internal/database"
	"github.com/mpavlov/studyhub-api/internal/models"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionOverlap    = errors.New("session overlaps an existing session in this group")
	ErrNotSessionCreator = errors.New("only the session creator may modify it")
	ErrInvalidInterval   = errors.New("session end time must not be before start time")
)

type SessionService struct {
	db            *database.DB
	groups        *GroupService
	notifications *NotificationService
	logger        *slog.Logger
}

func NewSessionService(db *database.DB, groups *GroupService, notifications *NotificationService) *SessionService {
	return &SessionService{
		db:            db,
		groups:        groups,
		notifications: notifications,
		logger:        slog.Default().With("service", "session"),
	}
}

// SessionUpdate carries the mutable session fields. Nil means unchanged.
type SessionUpdate struct {
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	MeetingLink *string
}

// Create validates that the candidate interval does not overlap any
// non-archived session in the group, then persists. The overlap check and
// the insert run in one transaction behind a per-group advisory lock, so
// two concurrent creates in the same group cannot both pass the check.
func (s *SessionService) Create(ctx context.Context, groupID, creatorID uuid.UUID, title, description string, start, end time.Time, meetingLink *string) (*models.Session, error) {
	if end.Before(start) {
		return nil, ErrInvalidInterval
	}

	isMember, err := s.groups.IsApprovedMember(ctx, groupID, creatorID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrGroupNotFound
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockGroupSchedule(ctx, tx, groupID); err != nil {
		return nil, err
	}

	var overlaps bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM sessions
			WHERE group_id = $1 AND archived = FALSE
			  AND start_time < $3 AND end_time > $2
		)
	`, groupID, start, end).Scan(&overlaps)
	if err != nil {
		return nil, fmt.Errorf("failed to check for overlap: %w", err)
	}
	if overlaps {
		return nil, ErrSessionOverlap
	}

	var session models.Session
	err = tx.QueryRow(ctx, `
		INSERT INTO sessions (group_id, title, description, start_time, end_time, meeting_link, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, group_id, title, description, start_time, end_time, meeting_link, created_by, archived, created_at, updated_at
	`, groupID, title, description, start, end, meetingLink, creatorID).Scan(
		&session.ID, &session.GroupID, &session.Title, &session.Description,
		&session.StartTime, &session.EndTime, &session.MeetingLink,
		&session.CreatedBy, &session.Archived, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Fan-out is best-effort once the session is committed.
	message := fmt.Sprintf("New session scheduled: %q on %s", session.Title, session.StartTime.UTC().Format("Mon, 02 Jan 2006 15:04 MST"))
	if err := s.notifications.NotifyGroup(ctx, groupID, creatorID, &session.ID, models.NotificationSessionUpdate, message); err != nil {
		s.logger.Error("session create fan-out failed", "session_id", session.ID, "error", err)
	}

	return &session, nil
}

// Update re-validates the overlap rule against the new interval, excluding
// the session's own prior interval, and persists the change.
func (s *SessionService) Update(ctx context.Context, sessionID, userID uuid.UUID, update SessionUpdate) (*models.Session, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var session models.Session
	err = tx.QueryRow(ctx, `
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

	if session.CreatedBy != userID {
		return nil, ErrNotSessionCreator
	}

	if update.Title != nil {
		session.Title = *update.Title
	}
	if update.Description != nil {
		session.Description = *update.Description
	}
	if update.StartTime != nil {
		session.StartTime = *update.StartTime
	}
	if update.EndTime != nil {
		session.EndTime = *update.EndTime
	}
	if update.MeetingLink != nil {
		session.MeetingLink = update.MeetingLink
	}

	if session.EndTime.Before(session.StartTime) {
		return nil, ErrInvalidInterval
	}

	if err := lockGroupSchedule(ctx, tx, session.GroupID); err != nil {
		return nil, err
	}

	var overlaps bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM sessions
			WHERE group_id = $1 AND archived = FALSE AND id != $2
			  AND start_time < $4 AND end_time > $3
		)
	`, session.GroupID, session.ID, session.StartTime, session.EndTime).Scan(&overlaps)
	if err != nil {
		return nil, fmt.Errorf("failed to check for overlap: %w", err)
	}
	if overlaps {
		return nil, ErrSessionOverlap
	}

	err = tx.QueryRow(ctx, `
		UPDATE sessions
		SET title = $1, description = $2, start_time = $3, end_time = $4, meeting_link = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`, session.Title, session.Description, session.StartTime, session.EndTime, session.MeetingLink, session.ID).Scan(&session.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	message := fmt.Sprintf("Session updated: %q now starts on %s", session.Title, session.StartTime.UTC().Format("Mon, 02 Jan 2006 15:04 MST"))
	if err := s.notifications.NotifyGroup(ctx, session.GroupID, userID, &session.ID, models.NotificationSessionUpdate, message); err != nil {
		s.logger.Error("session update fan-out failed", "session_id", session.ID, "error", err)
	}

	return &session, nil
}

func (s *SessionService) GetByID(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
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

func (s *SessionService) GetByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Session, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, group_id, title, description, start_time, end_time, meeting_link, created_by, archived, created_at, updated_at
		FROM sessions
		WHERE group_id = $1 AND archived = FALSE
		ORDER BY start_time
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (s *SessionService) GetByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Session, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, group_id, title, description, start_time, end_time, meeting_link, created_by, archived, created_at, updated_at
		FROM sessions
		WHERE created_by = $1 AND archived = FALSE
		ORDER BY start_time
	`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

// Archive soft-removes a session, preserving its invitations, participants
// and notification history, and tells attendees it was cancelled.
func (s *SessionService) Archive(ctx context.Context, sessionID, userID uuid.UUID) error {
	session, err := s.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.CreatedBy != userID {
		return ErrNotSessionCreator
	}

	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE sessions SET archived = TRUE, updated_at = NOW() WHERE id = $1 AND archived = FALSE
	`, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	message := fmt.Sprintf("Session cancelled: %q", session.Title)
	if err := s.notifications.NotifyGroup(ctx, session.GroupID, userID, &session.ID, models.NotificationSessionCancelled, message); err != nil {
		s.logger.Error("session archive fan-out failed", "session_id", session.ID, "error", err)
	}
	return nil
}

// Delete hard-removes a session; invitations and participants go with it
// via FK cascade, notifications keep a nulled session reference. No
// notification is sent.
func (s *SessionService) Delete(ctx context.Context, sessionID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// lockGroupSchedule serializes schedule writes within one group. The lock
// is transaction-scoped and released on commit or rollback.
func lockGroupSchedule(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, groupID); err != nil {
		return fmt.Errorf("failed to lock group schedule: %w", err)
	}
	return nil
}

func scanSessions(rows pgx.Rows) ([]models.Session, error) {
	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		if err := rows.Scan(
			&session.ID, &session.GroupID, &session.Title, &session.Description,
			&session.StartTime, &session.EndTime, &session.MeetingLink,
			&session.CreatedBy, &session.Archived, &session.CreatedAt, &session.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

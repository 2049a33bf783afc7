package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mpavlov/studyhub-api/internal/database"
	"github.com/mpavlov/studyhub-api/internal/models"
)

type ParticipantService struct {
	db *database.DB
}

func NewParticipantService(db *database.DB) *ParticipantService {
	return &ParticipantService{db: db}
}

// Add records a confirmed attendee. The upsert-or-ignore insert makes
// concurrent double-accepts converge on a single row.
func (s *ParticipantService) Add(ctx context.Context, sessionID, userID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO session_participants (session_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (session_id, user_id) DO NOTHING
	`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func (s *ParticipantService) List(ctx context.Context, sessionID uuid.UUID) ([]models.Participant, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT p.id, p.session_id, p.user_id, p.joined_at,
		       u.id, u.email, u.name, u.avatar_url, u.created_at, u.updated_at
		FROM session_participants p
		JOIN users u ON p.user_id = u.id
		WHERE p.session_id = $1
		ORDER BY p.joined_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var participant models.Participant
		var user models.User
		if err := rows.Scan(
			&participant.ID, &participant.SessionID, &participant.UserID, &participant.JoinedAt,
			&user.ID, &user.Email, &user.Name, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		participant.User = &user
		participants = append(participants, participant)
	}
	return participants, rows.Err()
}

func (s *ParticipantService) Count(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var count int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM session_participants WHERE session_id = $1
	`, sessionID).Scan(&count)
	return count, err
}

func (s *ParticipantService) IsParticipant(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM session_participants WHERE session_id = $1 AND user_id = $2
		)
	`, sessionID, userID).Scan(&exists)
	return exists, err
}

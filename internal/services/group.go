package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mpavlov/studyhub-api/internal/database"
	"github.com/mpavlov/studyhub-api/internal/models"
)

var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrMemberNotFound = errors.New("member not found")
)

// GroupService is the membership directory the scheduling core reads from.
// Only approved members are eligible notification and invitation targets.
type GroupService struct {
	db *database.DB
}

func NewGroupService(db *database.DB) *GroupService {
	return &GroupService{db: db}
}

func (s *GroupService) Create(ctx context.Context, name, description string, ownerID uuid.UUID) (*models.Group, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var group models.Group
	err = tx.QueryRow(ctx, `
		INSERT INTO study_groups (name, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, owner_id, created_at
	`, name, description, ownerID).Scan(
		&group.ID, &group.Name, &group.Description, &group.OwnerID, &group.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id, approval_status)
		VALUES ($1, $2, $3)
	`, group.ID, ownerID, models.MembershipApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to add owner as member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &group, nil
}

func (s *GroupService) GetByID(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	var group models.Group
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, name, description, owner_id, created_at
		FROM study_groups WHERE id = $1
	`, groupID).Scan(
		&group.ID, &group.Name, &group.Description, &group.OwnerID, &group.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (s *GroupService) GetUserGroups(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT g.id, g.name, g.description, g.owner_id, g.created_at
		FROM study_groups g
		JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = $1 AND gm.approval_status = $2
		ORDER BY g.created_at DESC
	`, userID, models.MembershipApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var group models.Group
		if err := rows.Scan(&group.ID, &group.Name, &group.Description, &group.OwnerID, &group.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// GetApprovedMembers returns the approved members of a group with user
// detail, in join order. This is the recipient set for group fan-out.
func (s *GroupService) GetApprovedMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT gm.id, gm.group_id, gm.user_id, gm.approval_status, gm.joined_at,
		       u.id, u.email, u.name, u.avatar_url, u.created_at, u.updated_at
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1 AND gm.approval_status = $2
		ORDER BY gm.joined_at
	`, groupID, models.MembershipApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.GroupMember
	for rows.Next() {
		var member models.GroupMember
		var user models.User
		if err := rows.Scan(
			&member.ID, &member.GroupID, &member.UserID, &member.ApprovalStatus, &member.JoinedAt,
			&user.ID, &user.Email, &user.Name, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		member.User = &user
		members = append(members, member)
	}
	return members, rows.Err()
}

func (s *GroupService) IsApprovedMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM group_members
			WHERE group_id = $1 AND user_id = $2 AND approval_status = $3
		)
	`, groupID, userID, models.MembershipApproved).Scan(&exists)
	return exists, err
}

func (s *GroupService) IsOwner(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var ownerID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `SELECT owner_id FROM study_groups WHERE id = $1`, groupID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrGroupNotFound
		}
		return false, err
	}
	return ownerID == userID, nil
}

// RequestJoin records a pending membership. Re-requesting while pending or
// approved is a no-op.
func (s *GroupService) RequestJoin(ctx context.Context, groupID, userID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id, approval_status)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`, groupID, userID, models.MembershipPending)
	return err
}

func (s *GroupService) ApproveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE group_members SET approval_status = $1
		WHERE group_id = $2 AND user_id = $3
	`, models.MembershipApproved, groupID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

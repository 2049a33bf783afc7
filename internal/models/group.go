package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MembershipPending  = "pending"
	MembershipApproved = "approved"
)

type Group struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type GroupMember struct {
	ID             uuid.UUID `json:"id"`
	GroupID        uuid.UUID `json:"group_id"`
	UserID         uuid.UUID `json:"user_id"`
	ApprovalStatus string    `json:"approval_status"`
	JoinedAt       time.Time `json:"joined_at"`
	User           *User     `json:"user,omitempty"`
}

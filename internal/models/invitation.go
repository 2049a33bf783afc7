package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	InvitationStatusPending  = "pending"
	InvitationStatusAccepted = "accepted"
	InvitationStatusDeclined = "declined"
)

type Invitation struct {
	ID          uuid.UUID  `json:"id"`
	SessionID   uuid.UUID  `json:"session_id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	SenderID    *uuid.UUID `json:"sender_id,omitempty"`
	Status      string     `json:"status"`
	Message     string     `json:"message"`
	InvitedAt   time.Time  `json:"invited_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	Session     *Session   `json:"session,omitempty"`
	Sender      *User      `json:"sender,omitempty"`
}

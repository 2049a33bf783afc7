package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateInvitationsRequest struct {
	RecipientIDs []uuid.UUID `json:"recipient_ids"`
	Message      string      `json:"message"`
}

type InvitationResponse struct {
	ID          uuid.UUID        `json:"id"`
	SessionID   uuid.UUID        `json:"session_id"`
	RecipientID uuid.UUID        `json:"recipient_id"`
	SenderID    *uuid.UUID       `json:"sender_id,omitempty"`
	Status      string           `json:"status"`
	Message     string           `json:"message"`
	InvitedAt   time.Time        `json:"invited_at"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`
	Session     *SessionResponse `json:"session,omitempty"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationGeneral          = "general"
	NotificationInvitation       = "invitation"
	NotificationAccepted         = "accepted"
	NotificationDeclined         = "declined"
	NotificationReminder         = "reminder"
	NotificationSessionUpdate    = "session_update"
	NotificationSessionCancelled = "session_cancelled"
)

type Notification struct {
	ID          uuid.UUID  `json:"id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	SessionID   *uuid.UUID `json:"session_id,omitempty"`
	Type        string     `json:"type"`
	Message     string     `json:"message"`
	Read        bool       `json:"read"`
	CreatedAt   time.Time  `json:"created_at"`
}

package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateSessionRequest accepts either an explicit end time or a duration in
// days; exactly one must be set. The stored representation is always an
// explicit end time.
type CreateSessionRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	DurationDays *int       `json:"duration_days,omitempty"`
	MeetingLink  *string    `json:"meeting_link,omitempty"`
}

type UpdateSessionRequest struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	DurationDays *int       `json:"duration_days,omitempty"`
	MeetingLink  *string    `json:"meeting_link,omitempty"`
}

type SessionResponse struct {
	ID          uuid.UUID `json:"id"`
	GroupID     uuid.UUID `json:"group_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	MeetingLink *string   `json:"meeting_link,omitempty"`
	CreatedBy   uuid.UUID `json:"created_by"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
}

type ParticipantResponse struct {
	ID       uuid.UUID    `json:"id"`
	UserID   uuid.UUID    `json:"user_id"`
	JoinedAt time.Time    `json:"joined_at"`
	User     UserResponse `json:"user"`
}

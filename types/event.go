package types

import "time"

// UserEventType names an account lifecycle notification.
type UserEventType string

const (
	UserCreated UserEventType = "user.created"
	UserUpdated UserEventType = "user.updated"
	UserDeleted UserEventType = "user.deleted"
)

// UserEvent is published to the message bus after an account mutation.
type UserEvent struct {
	// ID uniquely identifies the event so consumers can deduplicate.
	ID string `json:"id"`

	Type   UserEventType `json:"type"`
	UserID int           `json:"user_id"`

	// User is the public projection after the change. Deleted events carry
	// the last known state.
	User *User `json:"user,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

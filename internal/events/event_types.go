package events

import (
	"time"

	"github.com/spec-kit/aidtrace/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionEstablished EventType = "session.established"
	EventTokenRefreshed     EventType = "session.token_refreshed"
	EventSessionExpired     EventType = "session.expired"
	EventSessionCleared     EventType = "session.cleared"
	EventActionQueued       EventType = "offline.action_queued"
	EventActionSynced       EventType = "offline.action_synced"
	EventActionFailed       EventType = "offline.action_failed"
)

// Event is a lifecycle notification emitted by the client.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionPayload accompanies session events.
type SessionPayload struct {
	Username string      `json:"username,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
	// LoginPath is where the user should be sent to sign in again.
	LoginPath string `json:"login_path,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// ActionPayload accompanies offline action events.
type ActionPayload struct {
	ActionID string            `json:"action_id"`
	Kind     domain.ActionKind `json:"kind"`
	TempID   string            `json:"temp_id,omitempty"`
	Error    string            `json:"error,omitempty"`
}

package audit

import "time"

// Event is an immutable, append-only audit record of a security-relevant API action.
//
// Invariants:
// - Events are never updated or deleted.
// - Type is always set; AccountID is set whenever the actor is known.
// - Recording is best-effort; request handling never fails because of audit.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`

	AccountID string `json:"account_id,omitempty"`
	Username  string `json:"username,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`

	// Topic and Count describe broker publishes.
	Topic string `json:"topic,omitempty"`
	Count int    `json:"count,omitempty"`

	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventTypeLogin         EventType = "login"
	EventTypeLoginFailed   EventType = "login_failed"
	EventTypeLogout        EventType = "logout"
	EventTypeBrokerPublish EventType = "broker_publish"
)

// Package notify carries delivery requests from the reminder engine to
// whatever transport actually reaches the user.
package notify

import "context"

// Notification is a single delivery request. EntityID is the reminder's
// target id, carried as a correlation id for the client.
type Notification struct {
	ReceiverID string `json:"receiver_id"`
	Text       string `json:"text"`
	Type       string `json:"type"`
	EntityID   string `json:"entity_id,omitempty"`
}

// Sink accepts delivery requests. The engine treats dispatch as
// fire-and-forget: a returned error is logged by the caller and never
// retried.
type Sink interface {
	Dispatch(ctx context.Context, n Notification) error
}

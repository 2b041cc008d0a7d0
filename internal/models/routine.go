package models

import "time"

// Routine is a one-time plan. RemindAt mirrors the absolute instant of its
// reminder for backward compatibility.
type Routine struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	RemindAt  *time.Time `json:"remind_at"`
	CreatedAt time.Time  `json:"created_at"`
}

package models

import "time"

// Habit frequency values understood by the reminder engine.
const (
	FrequencyDaily    = "Daily"
	FrequencyWeekdays = "Weekdays"
	FrequencyWeekends = "Weekends"
	FrequencyWeekly   = "Weekly"
)

const HabitStatusActive = 1

// Habit carries only the fields the scheduler reads. ReminderTime and
// PreferredTime form the legacy per-habit reminder field that predates the
// Reminder entity.
type Habit struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Name          string     `json:"habit_name"`
	Frequency     string     `json:"frequency"`
	ReminderTime  *string    `json:"reminder_time"`
	PreferredTime *string    `json:"preferred_time"`
	Status        int        `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	DeletedAt     *time.Time `json:"deleted_at"`
}

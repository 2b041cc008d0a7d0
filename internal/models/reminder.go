package models

import "time"

// Reminder is the central scheduling entity. Exactly one of HabitID and
// RoutineID is set. Habit-linked reminders recur on a {time, days, tz}
// descriptor; routine-linked ones carry a single absolute ScheduledAt.
type Reminder struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	HabitID         *string    `json:"habit_id"`
	RoutineID       *string    `json:"routine_id"`
	Name            *string    `json:"name"`
	Time            *string    `json:"time"` // HH:MM:SS wall clock
	Days            *string    `json:"days"` // comma-joined Mon..Sun, nil means every day
	TZ              string     `json:"tz"`
	Window          *string    `json:"window"`       // lowercase window key, informational
	ScheduledAt     *time.Time `json:"scheduled_at"` // next occurrence, UTC
	Active          bool       `json:"active"`
	LastTriggeredAt *time.Time `json:"last_triggered_at"` // minute-bucket dedup watermark
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsRecurring reports whether the reminder repeats. A present time implies
// recurrence regardless of the day set.
func (r *Reminder) IsRecurring() bool {
	return r.Time != nil && *r.Time != ""
}

// TargetID returns the linked routine or habit id, preferring the routine.
func (r *Reminder) TargetID() string {
	if r.RoutineID != nil {
		return *r.RoutineID
	}
	if r.HabitID != nil {
		return *r.HabitID
	}
	return ""
}

// DisplayName returns the reminder label, falling back to a default derived
// from the target type.
func (r *Reminder) DisplayName() string {
	if r.Name != nil && *r.Name != "" {
		return *r.Name
	}
	switch {
	case r.HabitID != nil:
		return "Habit Reminder"
	case r.RoutineID != nil:
		return "Routine Reminder"
	default:
		return "Reminder"
	}
}

package repository

import (
	"errors"

	"github.com/habitkit/habitkit/internal/reminders"
	"github.com/habitkit/habitkit/internal/scheduler"
)

// ErrNotFound is returned when a query scoped to a user matches no row.
var ErrNotFound = errors.New("record not found")

var (
	_ reminders.ReminderStore = (*ReminderRepository)(nil)
	_ reminders.HabitStore    = (*HabitRepository)(nil)
	_ reminders.RoutineStore  = (*RoutineRepository)(nil)
	_ scheduler.ReminderStore = (*ReminderRepository)(nil)
	_ scheduler.HabitStore    = (*HabitRepository)(nil)
)

// Package reminders implements the store operations behind the reminder API:
// create, edit, toggle, delete, list and the upcoming-today view.
package reminders

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/habitkit/habitkit/internal/models"
	"github.com/habitkit/habitkit/internal/schedule"
	"github.com/habitkit/habitkit/internal/window"
)

// ValidationError reports rejected user input. It is surfaced to the caller
// with its reason and never logged as a system fault.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

const duplicateSlotMessage = "Already have a reminder at that time"

// ReminderStore is the persistence surface the service needs for reminder
// records.
type ReminderStore interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	GetByID(ctx context.Context, id, userID string) (*models.Reminder, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.Reminder, error)
	GetActiveByUserID(ctx context.Context, userID string) ([]*models.Reminder, error)
	ActiveAtTime(ctx context.Context, userID string, timeStr *string, excludeID string) (*models.Reminder, error)
	Update(ctx context.Context, reminder *models.Reminder) error
	SetActive(ctx context.Context, id, userID string, active bool) error
	Delete(ctx context.Context, id, userID string) error
}

type HabitStore interface {
	GetByID(ctx context.Context, id, userID string) (*models.Habit, error)
	SetReminderTime(ctx context.Context, id, timeStr string, preferred *string) error
}

type RoutineStore interface {
	GetByID(ctx context.Context, id, userID string) (*models.Routine, error)
	SetRemindAt(ctx context.Context, id string, at *time.Time) error
}

type Service struct {
	store    ReminderStore
	habits   HabitStore
	routines RoutineStore
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewService(store ReminderStore, habits HabitStore, routines RoutineStore, log *zap.SugaredLogger) *Service {
	return &Service{
		store:    store,
		habits:   habits,
		routines: routines,
		log:      log,
		now:      time.Now,
	}
}

// CreateRequest targets exactly one of HabitID or RoutineID.
type CreateRequest struct {
	ReminderTime  string   `json:"reminder_time"`
	PreferredTime string   `json:"preferred_time,omitempty"`
	HabitID       string   `json:"habit_id,omitempty"`
	RoutineID     string   `json:"routine_id,omitempty"`
	TZ            string   `json:"tz,omitempty"`
	Days          []string `json:"days,omitempty"`
	Name          string   `json:"name,omitempty"`
}

// UpdateRequest is a partial patch; nil fields are left untouched.
// ReminderTime and PreferredTime are accepted as aliases for Time and Window;
// the short form wins when both are set. Window accepts the same labels as
// PreferredTime on create. Date, when set, recomputes the absolute instant
// from Date+Time+TZ.
type UpdateRequest struct {
	Name          *string   `json:"name,omitempty"`
	Time          *string   `json:"time,omitempty"`
	ReminderTime  *string   `json:"reminder_time,omitempty"`
	Days          *[]string `json:"days,omitempty"`
	TZ            string    `json:"tz,omitempty"`
	Window        *string   `json:"window,omitempty"`
	PreferredTime *string   `json:"preferred_time,omitempty"`
	Date          string    `json:"date,omitempty"`
}

// Result is the outcome of a create or edit. A duplicate time slot is
// reported as Success=false with a descriptive message rather than an error,
// so retried client requests stay harmless.
type Result struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message,omitempty"`
	Reminder *models.Reminder `json:"reminder,omitempty"`
}

func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Result, error) {
	if userID == "" {
		return nil, &ValidationError{Reason: "User ID is required"}
	}
	if req.ReminderTime == "" {
		return nil, &ValidationError{Reason: "reminder_time is required"}
	}
	if req.HabitID == "" && req.RoutineID == "" {
		return nil, &ValidationError{Reason: "Provide habit_id or routine_id"}
	}
	if req.HabitID != "" && req.RoutineID != "" {
		return nil, &ValidationError{Reason: "Provide only one of habit_id or routine_id"}
	}

	timeStr := schedule.NormalizeTime(req.ReminderTime)
	prefKey, hasPref := window.Normalize(req.PreferredTime)
	if hasPref {
		if err := window.Validate(timeStr, prefKey); err != nil {
			return nil, &ValidationError{Reason: err.Error()}
		}
	}

	tz := req.TZ
	if tz == "" {
		tz = "UTC"
	}
	now := s.now()

	var (
		name        *string
		days        *string
		scheduledAt *time.Time
	)
	if req.Name != "" {
		name = &req.Name
	}

	if req.HabitID != "" {
		habit, err := s.habits.GetByID(ctx, req.HabitID, userID)
		if err != nil {
			return nil, err
		}
		if name == nil && habit.Name != "" {
			name = &habit.Name
		}
		d := schedule.DaysForFrequency(habit.Frequency, tz, now)
		days = &d
	}

	if req.RoutineID != "" {
		if _, err := s.routines.GetByID(ctx, req.RoutineID, userID); err != nil {
			return nil, err
		}
		if name == nil {
			label := "Routine Reminder"
			name = &label
		}
		at, err := schedule.BuildScheduledAt(schedule.DateIn(tz, now), timeStr, tz)
		if err != nil {
			return nil, &ValidationError{Reason: "reminder_time must be HH:MM or HH:MM:SS"}
		}
		scheduledAt = at
	}

	existing, err := s.store.ActiveAtTime(ctx, userID, &timeStr, "")
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &Result{Success: false, Message: duplicateSlotMessage}, nil
	}

	reminder := &models.Reminder{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Time:        &timeStr,
		Days:        days,
		TZ:          tz,
		Window:      windowValue(prefKey, hasPref),
		ScheduledAt: scheduledAt,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.HabitID != "" {
		reminder.HabitID = &req.HabitID
	}
	if req.RoutineID != "" {
		reminder.RoutineID = &req.RoutineID
	}

	if err := s.store.Create(ctx, reminder); err != nil {
		return nil, err
	}

	// Mirror onto the legacy habit field / the routine record. Mirror
	// failures must not fail the create.
	if req.HabitID != "" {
		var pref *string
		if hasPref {
			p := string(prefKey)
			pref = &p
		}
		if err := s.habits.SetReminderTime(ctx, req.HabitID, timeStr, pref); err != nil {
			s.log.Warnf("Failed to mirror reminder time onto habit %s: %v", req.HabitID, err)
		}
	}
	if req.RoutineID != "" && scheduledAt != nil {
		if err := s.routines.SetRemindAt(ctx, req.RoutineID, scheduledAt); err != nil {
			s.log.Warnf("Failed to mirror remind_at onto routine %s: %v", req.RoutineID, err)
		}
	}

	return &Result{Success: true, Reminder: reminder}, nil
}

func (s *Service) Edit(ctx context.Context, userID, id string, req UpdateRequest) (*Result, error) {
	if req.Time == nil {
		req.Time = req.ReminderTime
	}
	if req.Window == nil {
		req.Window = req.PreferredTime
	}

	reminder, err := s.store.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	var prefKey window.Key
	hasPref := false
	if req.Window != nil {
		prefKey, hasPref = window.Normalize(*req.Window)
	}

	timeStr := reminder.Time
	if req.Time != nil {
		t := schedule.NormalizeTime(*req.Time)
		timeStr = &t
	}

	// Validate the effective time against the new window, or against the
	// stored one when only the time changes.
	effectiveKey := prefKey
	if !hasPref && reminder.Window != nil {
		if k, ok := window.Normalize(capitalize(*reminder.Window)); ok {
			effectiveKey = k
		}
	}
	if effectiveKey != "" && timeStr != nil {
		if err := window.Validate(*timeStr, effectiveKey); err != nil {
			return nil, &ValidationError{Reason: err.Error()}
		}
	}

	days := reminder.Days
	if req.Days != nil {
		if d := schedule.NormalizeDays(*req.Days); d != "" {
			days = &d
		} else {
			days = nil
		}
	}

	tz := req.TZ
	if tz == "" {
		tz = reminder.TZ
	}
	if tz == "" {
		tz = "UTC"
	}

	existing, err := s.store.ActiveAtTime(ctx, userID, timeStr, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &Result{Success: false, Message: duplicateSlotMessage}, nil
	}

	// An explicit date recomputes the absolute instant; time-only edits are
	// picked up by the next sweep pass instead.
	if req.Date != "" && timeStr != nil {
		at, err := schedule.BuildScheduledAt(req.Date, *timeStr, tz)
		if err != nil {
			return nil, &ValidationError{Reason: "date must be YYYY-MM-DD"}
		}
		reminder.ScheduledAt = at
	}

	if req.Name != nil {
		reminder.Name = req.Name
	}
	reminder.Time = timeStr
	reminder.Days = days
	reminder.TZ = tz
	if hasPref {
		reminder.Window = windowValue(prefKey, true)
	}
	reminder.UpdatedAt = s.now()

	if err := s.store.Update(ctx, reminder); err != nil {
		return nil, err
	}
	return &Result{Success: true, Reminder: reminder}, nil
}

// ToggleActive flips the active flag without touching the schedule or the
// dedup watermark.
func (s *Service) ToggleActive(ctx context.Context, userID, id string) (*Result, error) {
	reminder, err := s.store.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetActive(ctx, id, userID, !reminder.Active); err != nil {
		return nil, err
	}
	reminder.Active = !reminder.Active
	return &Result{Success: true, Reminder: reminder}, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.store.GetByID(ctx, id, userID); err != nil {
		return err
	}
	return s.store.Delete(ctx, id, userID)
}

// ListedReminder pairs a reminder with its exported recurrence rule.
type ListedReminder struct {
	Reminder *models.Reminder `json:"reminder"`
	RRule    string           `json:"rrule,omitempty"`
}

// List returns all of the user's reminders, active first then newest, each
// recurring one carrying an RFC 5545 rule for calendar export.
func (s *Service) List(ctx context.Context, userID string) ([]ListedReminder, error) {
	items, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	listed := make([]ListedReminder, 0, len(items))
	for _, r := range items {
		entry := ListedReminder{Reminder: r}
		if r.IsRecurring() {
			rule, err := schedule.RRule(descriptorOf(r))
			if err != nil {
				s.log.Warnf("Failed to export rrule for reminder %s: %v", r.ID, err)
			} else {
				entry.RRule = rule
			}
		}
		listed = append(listed, entry)
	}
	return listed, nil
}

// UpcomingReminder is one of today's nearest pending occurrences.
type UpcomingReminder struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Time        *string   `json:"time"`
	ScheduledAt time.Time `json:"scheduled_at"`
	HabitID     *string   `json:"habit_id"`
	RoutineID   *string   `json:"routine_id"`
}

// Upcoming returns at most the three nearest occurrences still ahead today
// (today by UTC calendar date).
func (s *Service) Upcoming(ctx context.Context, userID string) ([]UpcomingReminder, error) {
	items, err := s.store.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := now.UTC().Format("2006-01-02")

	var upcoming []UpcomingReminder
	for _, r := range items {
		when := r.ScheduledAt
		if when == nil && r.IsRecurring() {
			dow := dowIn(r.TZ, now)
			if !schedule.Allows(deref(r.Days), dow) {
				continue
			}
			when, err = schedule.BuildScheduledAt(schedule.DateIn(r.TZ, now), schedule.NormalizeTime(*r.Time), r.TZ)
			if err != nil {
				continue
			}
		}
		if when == nil {
			continue
		}
		if when.UTC().Format("2006-01-02") != today || when.Before(now) {
			continue
		}
		upcoming = append(upcoming, UpcomingReminder{
			ID:          r.ID,
			Name:        r.DisplayName(),
			Time:        r.Time,
			ScheduledAt: *when,
			HabitID:     r.HabitID,
			RoutineID:   r.RoutineID,
		})
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].ScheduledAt.Before(upcoming[j].ScheduledAt)
	})
	if len(upcoming) > 3 {
		upcoming = upcoming[:3]
	}
	return upcoming, nil
}

// SlotListing is the picker payload for one window.
type SlotListing struct {
	PreferredTime string        `json:"preferred_time"`
	Label         string        `json:"preferred_time_label"`
	Slots         []window.Slot `json:"slots"`
}

// Slots lists the valid half-hour reminder slots for a window label.
func (s *Service) Slots(label string) (*SlotListing, error) {
	key, ok := window.Normalize(label)
	if !ok {
		return nil, &ValidationError{Reason: "Invalid preferred time"}
	}
	return &SlotListing{
		PreferredTime: string(key),
		Label:         window.UILabel(key),
		Slots:         window.Slots(key),
	}, nil
}

func descriptorOf(r *models.Reminder) schedule.Descriptor {
	return schedule.Descriptor{Time: deref(r.Time), Days: deref(r.Days), TZ: r.TZ}
}

func windowValue(k window.Key, ok bool) *string {
	if !ok {
		return nil
	}
	v := strings.ToLower(string(k))
	return &v
}

func dowIn(tz string, at time.Time) string {
	loc, err := time.LoadLocation(tz)
	if err != nil || tz == "" {
		loc = time.UTC
	}
	return at.In(loc).Format("Mon")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Package scheduler owns the periodic delivery sweep: once per minute it
// pulls due reminders, dispatches each exactly once, and advances or retires
// its schedule. A best-effort legacy pass over pre-migration habit fields
// runs in the same tick.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/habitkit/habitkit/internal/models"
	"github.com/habitkit/habitkit/internal/notify"
	"github.com/habitkit/habitkit/internal/schedule"
)

const (
	defaultInterval = 1 * time.Minute

	// graceWindow is the maximum lateness after which a due occurrence is
	// dropped instead of delivered. The sweep makes no attempt to catch up
	// beyond it.
	graceWindow = 10 * time.Minute

	batchSize       = 200
	legacyBatchSize = 500
)

// ReminderStore is the slice of the reminder repository the sweep needs.
type ReminderStore interface {
	GetDue(ctx context.Context, now time.Time, limit int) ([]*models.Reminder, error)
	AdvanceSchedule(ctx context.Context, id string, next *time.Time, triggeredAt time.Time) error
	Retire(ctx context.Context, id string, triggeredAt time.Time) error
}

// HabitStore feeds the legacy compatibility pass.
type HabitStore interface {
	GetLegacyReminderHabits(ctx context.Context, limit int) ([]*models.Habit, error)
}

type Scheduler struct {
	reminders     ReminderStore
	habits        HabitStore
	sink          notify.Sink
	log           *zap.SugaredLogger
	checkInterval time.Duration
	now           func() time.Time
	notifyCh      chan struct{}
}

func New(reminders ReminderStore, habits HabitStore, sink notify.Sink, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		reminders:     reminders,
		habits:        habits,
		sink:          sink,
		log:           log,
		checkInterval: defaultInterval,
		now:           time.Now,
		notifyCh:      make(chan struct{}, 1),
	}
}

// Notify triggers an immediate sweep. Non-blocking if one is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
		// A sweep is already pending, skip
	}
}

// Start runs the sweep loop until ctx is cancelled. The engine assumes a
// single active scheduler instance cluster-wide; running more risks
// duplicate dispatch.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Infof("Scheduler started")
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	// Wait a bit for migrations to complete before the first sweep
	select {
	case <-ctx.Done():
		return
	case <-time.After(2 * time.Second):
	}

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Infof("Scheduler stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.notifyCh:
			s.log.Infof("Scheduler triggered by notification")
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	s.deliverDue(ctx)
	s.legacyHabitPass(ctx)
}

func (s *Scheduler) deliverDue(ctx context.Context) {
	now := s.now()
	nowBucket := now.Truncate(time.Minute)

	due, err := s.reminders.GetDue(ctx, now, batchSize)
	if err != nil {
		// Abort the tick; the next minute's tick catches up within the
		// grace window.
		s.log.Errorf("Failed to get due reminders: %v", err)
		return
	}

	for _, r := range due {
		if r.UserID == "" || r.ScheduledAt == nil {
			continue
		}
		// Skip if already triggered at or after this minute
		if r.LastTriggeredAt != nil && !r.LastTriggeredAt.Before(nowBucket) {
			continue
		}
		if now.Sub(*r.ScheduledAt) > graceWindow {
			continue
		}

		if err := s.sink.Dispatch(ctx, notify.Notification{
			ReceiverID: r.UserID,
			Text:       reminderText(r),
			Type:       "package",
			EntityID:   r.TargetID(),
		}); err != nil {
			// The reminder still counts as fired; no redelivery.
			s.log.Errorf("Failed to dispatch reminder %s: %v", r.ID, err)
		}

		if r.IsRecurring() {
			next := schedule.Next(schedule.Descriptor{
				Time: *r.Time,
				Days: derefOr(r.Days, ""),
				TZ:   r.TZ,
			}, now.Add(1*time.Minute))
			// No computable next occurrence keeps the previous instant;
			// only the watermark moves.
			if next == nil {
				next = r.ScheduledAt
			}
			if err := s.reminders.AdvanceSchedule(ctx, r.ID, next, nowBucket); err != nil {
				s.log.Errorf("Failed to advance reminder %s: %v", r.ID, err)
			}
		} else {
			if err := s.reminders.Retire(ctx, r.ID, nowBucket); err != nil {
				s.log.Errorf("Failed to retire reminder %s: %v", r.ID, err)
			}
		}
	}
}

func reminderText(r *models.Reminder) string {
	title := r.DisplayName()
	switch {
	case r.HabitID != nil:
		return title + ": It's time for your habit."
	case r.RoutineID != nil:
		return title + ": Your routine is scheduled now."
	default:
		return title
	}
}

// legacyHabitPass fires notifications for habits still carrying the
// pre-migration reminder_time field. It keeps no watermark, so a restart or
// an extra tick within the same minute can duplicate a legacy notification.
func (s *Scheduler) legacyHabitPass(ctx context.Context) {
	habits, err := s.habits.GetLegacyReminderHabits(ctx, legacyBatchSize)
	if err != nil {
		s.log.Errorf("Failed to get legacy reminder habits: %v", err)
		return
	}

	now := s.now().UTC()
	match := now.Format("15:04")

	for _, h := range habits {
		if h.UserID == "" || h.ReminderTime == nil || len(*h.ReminderTime) < 5 {
			continue
		}
		if (*h.ReminderTime)[:5] != match {
			continue
		}
		if !frequencyMatches(h.Frequency, now, h.CreatedAt) {
			continue
		}

		if err := s.sink.Dispatch(ctx, notify.Notification{
			ReceiverID: h.UserID,
			Text:       "Habit Reminder: It's time for your habit.",
			Type:       "package",
			EntityID:   h.ID,
		}); err != nil {
			s.log.Errorf("Failed to dispatch legacy reminder for habit %s: %v", h.ID, err)
		}
	}
}

// frequencyMatches checks a legacy habit frequency against the current UTC
// weekday. Weekly pins to the habit's creation weekday.
func frequencyMatches(freq string, now time.Time, createdAt time.Time) bool {
	switch freq {
	case "", models.FrequencyDaily:
		return true
	case models.FrequencyWeekdays:
		dow := now.Weekday()
		return dow != time.Saturday && dow != time.Sunday
	case models.FrequencyWeekends:
		dow := now.Weekday()
		return dow == time.Saturday || dow == time.Sunday
	case models.FrequencyWeekly:
		return now.Weekday() == createdAt.UTC().Weekday()
	default:
		return true
	}
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

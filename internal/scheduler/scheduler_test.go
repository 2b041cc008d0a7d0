package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/habitkit/habitkit/internal/models"
	"github.com/habitkit/habitkit/internal/notify"
)

type fakeReminderStore struct {
	due    []*models.Reminder
	dueErr error

	advanced   map[string]*time.Time
	watermarks map[string]time.Time
	retired    map[string]time.Time
}

func newFakeReminderStore(due ...*models.Reminder) *fakeReminderStore {
	return &fakeReminderStore{
		due:        due,
		advanced:   make(map[string]*time.Time),
		watermarks: make(map[string]time.Time),
		retired:    make(map[string]time.Time),
	}
}

func (f *fakeReminderStore) GetDue(_ context.Context, _ time.Time, _ int) ([]*models.Reminder, error) {
	return f.due, f.dueErr
}

func (f *fakeReminderStore) AdvanceSchedule(_ context.Context, id string, next *time.Time, triggeredAt time.Time) error {
	f.advanced[id] = next
	f.watermarks[id] = triggeredAt
	return nil
}

func (f *fakeReminderStore) Retire(_ context.Context, id string, triggeredAt time.Time) error {
	f.retired[id] = triggeredAt
	return nil
}

type fakeHabitStore struct {
	habits []*models.Habit
	err    error
}

func (f *fakeHabitStore) GetLegacyReminderHabits(_ context.Context, _ int) ([]*models.Habit, error) {
	return f.habits, f.err
}

type fakeSink struct {
	sent []notify.Notification
	err  error
}

func (f *fakeSink) Dispatch(_ context.Context, n notify.Notification) error {
	f.sent = append(f.sent, n)
	return f.err
}

func newTestScheduler(store *fakeReminderStore, habits *fakeHabitStore, sink *fakeSink, now time.Time) *Scheduler {
	if habits == nil {
		habits = &fakeHabitStore{}
	}
	s := New(store, habits, sink, zap.NewNop().Sugar())
	s.now = func() time.Time { return now }
	return s
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestSweepRetiresOneTimeReminder(t *testing.T) {
	now := time.Date(2024, 1, 10, 13, 0, 30, 0, time.UTC)
	routineID := "routine-1"
	rem := &models.Reminder{
		ID:          "r1",
		UserID:      "42",
		RoutineID:   &routineID,
		TZ:          "UTC",
		Active:      true,
		ScheduledAt: timePtr(time.Date(2024, 1, 10, 13, 0, 0, 0, time.UTC)),
	}
	store := newFakeReminderStore(rem)
	sink := &fakeSink{}

	newTestScheduler(store, nil, sink, now).sweep(context.Background())

	require.Len(t, sink.sent, 1)
	assert.Equal(t, "42", sink.sent[0].ReceiverID)
	assert.Equal(t, "routine-1", sink.sent[0].EntityID)
	assert.Contains(t, sink.sent[0].Text, "Your routine is scheduled now")

	bucket := time.Date(2024, 1, 10, 13, 0, 0, 0, time.UTC)
	assert.Equal(t, bucket, store.retired["r1"])
	assert.Empty(t, store.advanced, "one-time reminders get no next occurrence")
}

func TestSweepAdvancesRecurringReminder(t *testing.T) {
	now := time.Date(2024, 2, 1, 9, 30, 30, 0, time.UTC)
	habitID := "habit-1"
	rem := &models.Reminder{
		ID:          "r1",
		UserID:      "42",
		HabitID:     &habitID,
		Time:        strPtr("09:30:00"),
		TZ:          "UTC",
		Active:      true,
		ScheduledAt: timePtr(time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)),
	}
	store := newFakeReminderStore(rem)
	sink := &fakeSink{}

	newTestScheduler(store, nil, sink, now).sweep(context.Background())

	require.Len(t, sink.sent, 1)
	assert.Contains(t, sink.sent[0].Text, "It's time for your habit")

	next := store.advanced["r1"]
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2024, 2, 2, 9, 30, 0, 0, time.UTC), *next)
	assert.Equal(t, time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC), store.watermarks["r1"])
	assert.Empty(t, store.retired)
}

func TestSweepMinuteBucketDedup(t *testing.T) {
	now := time.Date(2024, 2, 1, 9, 30, 45, 0, time.UTC)
	habitID := "habit-1"
	rem := &models.Reminder{
		ID:              "r1",
		UserID:          "42",
		HabitID:         &habitID,
		Time:            strPtr("09:30:00"),
		TZ:              "UTC",
		Active:          true,
		ScheduledAt:     timePtr(time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)),
		LastTriggeredAt: timePtr(time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)),
	}
	store := newFakeReminderStore(rem)
	sink := &fakeSink{}

	newTestScheduler(store, nil, sink, now).sweep(context.Background())

	assert.Empty(t, sink.sent, "second sweep within the same minute must not dispatch")
	assert.Empty(t, store.advanced)
}

func TestSweepGraceWindowBoundary(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	habitID := "habit-1"
	fresh := &models.Reminder{
		ID: "fresh", UserID: "42", HabitID: &habitID, TZ: "UTC", Active: true,
		ScheduledAt: timePtr(now.Add(-9 * time.Minute)),
	}
	stale := &models.Reminder{
		ID: "stale", UserID: "42", HabitID: &habitID, TZ: "UTC", Active: true,
		ScheduledAt: timePtr(now.Add(-11 * time.Minute)),
	}
	store := newFakeReminderStore(fresh, stale)
	sink := &fakeSink{}

	newTestScheduler(store, nil, sink, now).sweep(context.Background())

	require.Len(t, sink.sent, 1)
	assert.Contains(t, store.retired, "fresh")
	assert.NotContains(t, store.retired, "stale")
}

func TestSweepKeepsScheduleWhenNextUncomputable(t *testing.T) {
	now := time.Date(2024, 2, 1, 9, 30, 30, 0, time.UTC)
	habitID := "habit-1"
	scheduled := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	rem := &models.Reminder{
		ID: "r1", UserID: "42", HabitID: &habitID, Time: strPtr("later"), TZ: "UTC",
		Active:      true,
		ScheduledAt: &scheduled,
	}
	store := newFakeReminderStore(rem)
	sink := &fakeSink{}

	newTestScheduler(store, nil, sink, now).sweep(context.Background())

	require.Len(t, sink.sent, 1)
	next := store.advanced["r1"]
	require.NotNil(t, next, "an unparseable recurrence keeps the stored instant")
	assert.Equal(t, scheduled, *next)
	assert.Equal(t, scheduled, store.watermarks["r1"])
}

func TestSweepDispatchFailureStillAdvances(t *testing.T) {
	now := time.Date(2024, 2, 1, 9, 30, 30, 0, time.UTC)
	habitID := "habit-1"
	rem := &models.Reminder{
		ID: "r1", UserID: "42", HabitID: &habitID, Time: strPtr("09:30:00"), TZ: "UTC",
		Active:      true,
		ScheduledAt: timePtr(time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)),
	}
	store := newFakeReminderStore(rem)
	sink := &fakeSink{err: errors.New("transport down")}

	newTestScheduler(store, nil, sink, now).sweep(context.Background())

	require.Len(t, sink.sent, 1)
	assert.NotNil(t, store.advanced["r1"], "a failed dispatch still counts as fired")
}

func TestSweepAbortsTickOnStoreError(t *testing.T) {
	store := newFakeReminderStore()
	store.dueErr = errors.New("connection refused")
	sink := &fakeSink{}

	newTestScheduler(store, nil, sink, time.Now()).deliverDue(context.Background())

	assert.Empty(t, sink.sent)
}

func TestLegacyHabitPass(t *testing.T) {
	// Friday 09:30 UTC.
	now := time.Date(2024, 1, 5, 9, 30, 10, 0, time.UTC)
	monday := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	friday := time.Date(2023, 12, 29, 8, 0, 0, 0, time.UTC)

	habits := &fakeHabitStore{habits: []*models.Habit{
		{ID: "h1", UserID: "42", ReminderTime: strPtr("09:30:00"), Frequency: models.FrequencyDaily},
		{ID: "h2", UserID: "42", ReminderTime: strPtr("09:31:00"), Frequency: models.FrequencyDaily},
		{ID: "h3", UserID: "42", ReminderTime: strPtr("09:30:00"), Frequency: models.FrequencyWeekends},
		{ID: "h4", UserID: "42", ReminderTime: strPtr("09:30:00"), Frequency: models.FrequencyWeekdays},
		{ID: "h5", UserID: "42", ReminderTime: strPtr("09:30:00"), Frequency: models.FrequencyWeekly, CreatedAt: friday},
		{ID: "h6", UserID: "42", ReminderTime: strPtr("09:30:00"), Frequency: models.FrequencyWeekly, CreatedAt: monday},
		{ID: "h7", UserID: "", ReminderTime: strPtr("09:30:00"), Frequency: models.FrequencyDaily},
		// A NULL frequency column scans as "" and behaves like Daily.
		{ID: "h8", UserID: "42", ReminderTime: strPtr("09:30:00"), Frequency: ""},
	}}
	store := newFakeReminderStore()
	sink := &fakeSink{}

	newTestScheduler(store, habits, sink, now).legacyHabitPass(context.Background())

	var fired []string
	for _, n := range sink.sent {
		fired = append(fired, n.EntityID)
	}
	assert.ElementsMatch(t, []string{"h1", "h4", "h5", "h8"}, fired)
}

func TestFrequencyMatches(t *testing.T) {
	saturday := time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)
	wednesday := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

	assert.True(t, frequencyMatches("", saturday, time.Time{}))
	assert.True(t, frequencyMatches(models.FrequencyDaily, saturday, time.Time{}))
	assert.False(t, frequencyMatches(models.FrequencyWeekdays, saturday, time.Time{}))
	assert.True(t, frequencyMatches(models.FrequencyWeekdays, wednesday, time.Time{}))
	assert.True(t, frequencyMatches(models.FrequencyWeekends, saturday, time.Time{}))
	assert.False(t, frequencyMatches(models.FrequencyWeekends, wednesday, time.Time{}))
	assert.True(t, frequencyMatches(models.FrequencyWeekly, wednesday, wednesday.AddDate(0, 0, -7)))
	assert.False(t, frequencyMatches(models.FrequencyWeekly, wednesday, saturday))
}

func TestNotifyIsNonBlocking(t *testing.T) {
	s := newTestScheduler(newFakeReminderStore(), nil, &fakeSink{}, time.Now())
	s.Notify()
	s.Notify() // second call must not block on the full channel
	assert.Len(t, s.notifyCh, 1)
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/habitkit/habitkit/internal/database"
	"github.com/habitkit/habitkit/internal/models"
)

const reminderColumns = `id, user_id, habit_id, routine_id, name, time, days, tz, "window",
	scheduled_at, active, last_triggered_at, created_at, updated_at`

type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func scanReminder(row pgx.Row) (*models.Reminder, error) {
	r := &models.Reminder{}
	err := row.Scan(&r.ID, &r.UserID, &r.HabitID, &r.RoutineID, &r.Name, &r.Time, &r.Days,
		&r.TZ, &r.Window, &r.ScheduledAt, &r.Active, &r.LastTriggeredAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ReminderRepository) collect(rows pgx.Rows) ([]*models.Reminder, error) {
	defer rows.Close()
	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO reminders (id, user_id, habit_id, routine_id, name, time, days, tz, "window",
		 scheduled_at, active, last_triggered_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		reminder.ID, reminder.UserID, reminder.HabitID, reminder.RoutineID, reminder.Name,
		reminder.Time, reminder.Days, reminder.TZ, reminder.Window, reminder.ScheduledAt,
		reminder.Active, reminder.LastTriggeredAt, reminder.CreatedAt, reminder.UpdatedAt,
	)
	return err
}

func (r *ReminderRepository) GetByID(ctx context.Context, id, userID string) (*models.Reminder, error) {
	reminder, err := scanReminder(r.db.Pool.QueryRow(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return reminder, err
}

func (r *ReminderRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE user_id = $1
		 ORDER BY active DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *ReminderRepository) GetActiveByUserID(ctx context.Context, userID string) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE user_id = $1 AND active = true`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// ActiveAtTime finds another active reminder of the user occupying the same
// time slot, excluding excludeID when non-empty. Returns nil when the slot is
// free.
func (r *ReminderRepository) ActiveAtTime(ctx context.Context, userID string, timeStr *string, excludeID string) (*models.Reminder, error) {
	reminder, err := scanReminder(r.db.Pool.QueryRow(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE user_id = $1 AND active = true AND time IS NOT DISTINCT FROM $2 AND ($3 = '' OR id <> $3)
		 LIMIT 1`,
		userID, timeStr, excludeID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return reminder, err
}

func (r *ReminderRepository) Update(ctx context.Context, reminder *models.Reminder) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET name = $1, time = $2, days = $3, tz = $4, "window" = $5,
		 scheduled_at = $6, active = $7, updated_at = now()
		 WHERE id = $8 AND user_id = $9`,
		reminder.Name, reminder.Time, reminder.Days, reminder.TZ, reminder.Window,
		reminder.ScheduledAt, reminder.Active, reminder.ID, reminder.UserID,
	)
	return err
}

func (r *ReminderRepository) SetActive(ctx context.Context, id, userID string, active bool) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET active = $1, updated_at = now() WHERE id = $2 AND user_id = $3`,
		active, id, userID,
	)
	return err
}

func (r *ReminderRepository) Delete(ctx context.Context, id, userID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM reminders WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	return err
}

// GetDue returns active reminders whose scheduled_at has passed, oldest first,
// bounded to keep a single sweep cheap.
func (r *ReminderRepository) GetDue(ctx context.Context, now time.Time, limit int) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE active = true AND scheduled_at IS NOT NULL AND scheduled_at <= $1
		 ORDER BY scheduled_at ASC
		 LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// AdvanceSchedule moves a recurring reminder to its next occurrence and
// records the dedup watermark in one row update.
func (r *ReminderRepository) AdvanceSchedule(ctx context.Context, id string, next *time.Time, triggeredAt time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET scheduled_at = $1, last_triggered_at = $2, updated_at = now() WHERE id = $3`,
		next, triggeredAt, id,
	)
	return err
}

// Retire deactivates a one-time reminder after it fires.
func (r *ReminderRepository) Retire(ctx context.Context, id string, triggeredAt time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET active = false, last_triggered_at = $1, updated_at = now() WHERE id = $2`,
		triggeredAt, id,
	)
	return err
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/habitkit/habitkit/internal/database"
	"github.com/habitkit/habitkit/internal/models"
)

// The frequency column is nullable and written by the habit CRUD system; an
// empty string downstream means the same as Daily.
const habitColumns = `id, user_id, habit_name, COALESCE(frequency, ''), reminder_time,
	preferred_time, status, created_at, deleted_at`

type HabitRepository struct {
	db *database.DB
}

func NewHabitRepository(db *database.DB) *HabitRepository {
	return &HabitRepository{db: db}
}

func scanHabit(row pgx.Row) (*models.Habit, error) {
	h := &models.Habit{}
	err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Frequency, &h.ReminderTime,
		&h.PreferredTime, &h.Status, &h.CreatedAt, &h.DeletedAt)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (r *HabitRepository) GetByID(ctx context.Context, id, userID string) (*models.Habit, error) {
	habit, err := scanHabit(r.db.Pool.QueryRow(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		id, userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return habit, err
}

// SetReminderTime mirrors the reminder's time and window back onto the legacy
// per-habit field for pre-migration clients.
func (r *HabitRepository) SetReminderTime(ctx context.Context, id, timeStr string, preferred *string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE habits SET reminder_time = $1, preferred_time = COALESCE($2, preferred_time) WHERE id = $3`,
		timeStr, preferred, id,
	)
	return err
}

// GetLegacyReminderHabits returns active habits still carrying the legacy
// reminder_time field, for the compatibility sweep.
func (r *HabitRepository) GetLegacyReminderHabits(ctx context.Context, limit int) ([]*models.Habit, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+habitColumns+` FROM habits
		 WHERE status = $1 AND deleted_at IS NULL AND reminder_time IS NOT NULL
		 LIMIT $2`,
		models.HabitStatusActive, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []*models.Habit
	for rows.Next() {
		habit, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, habit)
	}
	return habits, rows.Err()
}

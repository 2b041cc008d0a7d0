package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/habitkit/habitkit/internal/database"
	"github.com/habitkit/habitkit/internal/models"
)

type RoutineRepository struct {
	db *database.DB
}

func NewRoutineRepository(db *database.DB) *RoutineRepository {
	return &RoutineRepository{db: db}
}

func (r *RoutineRepository) GetByID(ctx context.Context, id, userID string) (*models.Routine, error) {
	routine := &models.Routine{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, remind_at, created_at FROM routines WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&routine.ID, &routine.UserID, &routine.Name, &routine.RemindAt, &routine.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return routine, nil
}

// SetRemindAt mirrors the reminder's absolute instant onto the routine record.
func (r *RoutineRepository) SetRemindAt(ctx context.Context, id string, at *time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE routines SET remind_at = $1 WHERE id = $2`,
		at, id,
	)
	return err
}

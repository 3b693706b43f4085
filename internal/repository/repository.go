package repository

import (
	"context"
	"database/sql"
	"time"

	"fancontrol/internal/models"
)

// EventRepo is the append-only control journal.
type EventRepo interface {
	Append(ctx context.Context, e models.ControlEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.ControlEvent, error)
}

type Repository struct {
	Events EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Events: NewEventSQLite(db),
	}
}

package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dueview/dueview/pkg/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	StoreBatch(ctx context.Context, userId int, batch []events.Event, importedAt time.Time) error
	GetBatch(ctx context.Context, userId int) ([]events.Event, *time.Time, error)
	DeleteBatch(ctx context.Context, userId int) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) StoreBatch(ctx context.Context, userId int, batch []events.Event, importedAt time.Time) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to serialize feed batch: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO feed_event_cache (user_id, payload, imported_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET payload = EXCLUDED.payload, imported_at = EXCLUDED.imported_at`,
		userId, payload, importedAt)
	if err != nil {
		return fmt.Errorf("failed to store feed batch: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetBatch(ctx context.Context, userId int) ([]events.Event, *time.Time, error) {
	var payload []byte
	var importedAt time.Time
	err := r.db.QueryRow(ctx,
		"SELECT payload, imported_at FROM feed_event_cache WHERE user_id = $1", userId).
		Scan(&payload, &importedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []events.Event{}, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to retrieve feed batch: %w", err)
	}

	var batch []events.Event
	if err := json.Unmarshal(payload, &batch); err != nil {
		return nil, nil, fmt.Errorf("failed to deserialize feed batch: %w", err)
	}
	return batch, &importedAt, nil
}

func (r *RepositoryImpl) DeleteBatch(ctx context.Context, userId int) error {
	_, err := r.db.Exec(ctx, "DELETE FROM feed_event_cache WHERE user_id = $1", userId)
	if err != nil {
		return fmt.Errorf("failed to delete feed batch: %w", err)
	}
	return nil
}

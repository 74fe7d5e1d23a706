package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dueview/dueview/pkg/events"
)

type Repository interface {
	StoreCache(ctx context.Context, userId int, batch []events.Event, syncedAt time.Time) error
	GetCache(ctx context.Context, userId int) ([]events.Event, *time.Time, error)
	DeleteCache(ctx context.Context, userId int) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) StoreCache(ctx context.Context, userId int, batch []events.Event, syncedAt time.Time) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to serialize batch: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO google_event_cache (user_id, payload, synced_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET payload = EXCLUDED.payload, synced_at = EXCLUDED.synced_at`,
		userId, payload, syncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store cached batch: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetCache(ctx context.Context, userId int) ([]events.Event, *time.Time, error) {
	var payload []byte
	var syncedAt time.Time

	err := r.db.QueryRow(ctx,
		"SELECT payload, synced_at FROM google_event_cache WHERE user_id = $1",
		userId).Scan(&payload, &syncedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []events.Event{}, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to retrieve cached batch: %w", err)
	}

	var batch []events.Event
	if err := json.Unmarshal(payload, &batch); err != nil {
		return nil, nil, fmt.Errorf("failed to deserialize cached batch: %w", err)
	}
	return batch, &syncedAt, nil
}

func (r *RepositoryImpl) DeleteCache(ctx context.Context, userId int) error {
	_, err := r.db.Exec(ctx, "DELETE FROM google_event_cache WHERE user_id = $1", userId)
	if err != nil {
		return fmt.Errorf("failed to delete cached batch: %w", err)
	}
	return nil
}

package canvas

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
	StoreConnection(ctx context.Context, userId int, connection Connection) error
	GetConnection(ctx context.Context, userId int) (*Connection, error)
	SetLocalOnly(ctx context.Context, userId int, localOnly bool) error
	DeleteConnection(ctx context.Context, userId int) error
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

// StoreConnection stores the Canvas connection for a user, replacing any
// previous one. Only the encrypted credential is persisted.
func (r *RepositoryImpl) StoreConnection(ctx context.Context, userId int, connection Connection) error {
	credential, err := json.Marshal(connection.Credential)
	if err != nil {
		return fmt.Errorf("failed to serialize credential: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO canvas_connection (user_id, domain, credential, local_only)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET
			domain = EXCLUDED.domain,
			credential = EXCLUDED.credential,
			local_only = EXCLUDED.local_only`,
		userId, connection.Domain, credential, connection.LocalOnly,
	)
	if err != nil {
		return fmt.Errorf("failed to store connection: %w", err)
	}
	return nil
}

// GetConnection retrieves the Canvas connection for a user. Returns nil if
// the user has never connected.
func (r *RepositoryImpl) GetConnection(ctx context.Context, userId int) (*Connection, error) {
	var connection Connection
	var credential []byte

	err := r.db.QueryRow(ctx,
		"SELECT domain, credential, local_only FROM canvas_connection WHERE user_id = $1",
		userId).Scan(&connection.Domain, &credential, &connection.LocalOnly)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No connection configured
		}
		return nil, fmt.Errorf("failed to retrieve connection: %w", err)
	}

	if err := json.Unmarshal(credential, &connection.Credential); err != nil {
		return nil, fmt.Errorf("failed to deserialize credential: %w", err)
	}
	return &connection, nil
}

func (r *RepositoryImpl) SetLocalOnly(ctx context.Context, userId int, localOnly bool) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE canvas_connection SET local_only = $1 WHERE user_id = $2",
		localOnly, userId)
	if err != nil {
		return fmt.Errorf("failed to update connection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotConnected
	}
	return nil
}

func (r *RepositoryImpl) DeleteConnection(ctx context.Context, userId int) error {
	_, err := r.db.Exec(ctx, "DELETE FROM canvas_connection WHERE user_id = $1", userId)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}

// StoreCache replaces the cached Canvas batch for a user wholesale.
func (r *RepositoryImpl) StoreCache(ctx context.Context, userId int, batch []events.Event, syncedAt time.Time) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to serialize batch: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO canvas_event_cache (user_id, payload, synced_at)
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

// GetCache retrieves the cached Canvas batch and the time it was synced.
// Returns an empty batch and a nil time when no sync has happened yet.
func (r *RepositoryImpl) GetCache(ctx context.Context, userId int) ([]events.Event, *time.Time, error) {
	var payload []byte
	var syncedAt time.Time

	err := r.db.QueryRow(ctx,
		"SELECT payload, synced_at FROM canvas_event_cache WHERE user_id = $1",
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
	_, err := r.db.Exec(ctx, "DELETE FROM canvas_event_cache WHERE user_id = $1", userId)
	if err != nil {
		return fmt.Errorf("failed to delete cached batch: %w", err)
	}
	return nil
}

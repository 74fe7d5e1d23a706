package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEventNotFound = errors.New("event not found")

type Repository interface {
	StoreManualEvent(ctx context.Context, userId int, event Event) error
	UpdateManualEvent(ctx context.Context, userId int, event Event) error
	DeleteManualEvent(ctx context.Context, userId int, eventId string) error
	GetManualEvents(ctx context.Context, userId int) ([]Event, error)
	SetCompletion(ctx context.Context, userId int, eventId string, completed bool) error
	GetCompletions(ctx context.Context, userId int) (map[string]bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) StoreManualEvent(ctx context.Context, userId int, event Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO manual_event (id, user_id, title, description, category, course_label, course_code, due_at, completed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, userId, event.Title, event.Description, string(event.Category),
		event.CourseLabel, event.CourseCode, event.DueAt, event.Completed,
	)
	if err != nil {
		return fmt.Errorf("failed to store manual event: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) UpdateManualEvent(ctx context.Context, userId int, event Event) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE manual_event
		 SET title = $3, description = $4, category = $5, course_label = $6, course_code = $7, due_at = $8, completed = $9
		 WHERE id = $1 AND user_id = $2`,
		event.ID, userId, event.Title, event.Description, string(event.Category),
		event.CourseLabel, event.CourseCode, event.DueAt, event.Completed,
	)
	if err != nil {
		return fmt.Errorf("failed to update manual event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *RepositoryImpl) DeleteManualEvent(ctx context.Context, userId int, eventId string) error {
	tag, err := r.db.Exec(ctx,
		"DELETE FROM manual_event WHERE id = $1 AND user_id = $2", eventId, userId)
	if err != nil {
		return fmt.Errorf("failed to delete manual event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *RepositoryImpl) GetManualEvents(ctx context.Context, userId int) ([]Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, category, course_label, course_code, due_at, completed
		 FROM manual_event WHERE user_id = $1 ORDER BY created_at`, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve manual events: %w", err)
	}
	defer rows.Close()

	evs := make([]Event, 0)
	for rows.Next() {
		var e Event
		var category string
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &category,
			&e.CourseLabel, &e.CourseCode, &e.DueAt, &e.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan manual event: %w", err)
		}
		e.Category = Category(category)
		e.Priority = PriorityFor(e.Category)
		e.SourceKind = SourceManual
		e.DueAt = e.DueAt.UTC()
		evs = append(evs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return evs, nil
}

func (r *RepositoryImpl) SetCompletion(ctx context.Context, userId int, eventId string, completed bool) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO event_completion (user_id, event_id, completed)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, event_id) DO UPDATE SET completed = EXCLUDED.completed`,
		userId, eventId, completed)
	if err != nil {
		return fmt.Errorf("failed to store completion state: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetCompletions(ctx context.Context, userId int) (map[string]bool, error) {
	rows, err := r.db.Query(ctx,
		"SELECT event_id, completed FROM event_completion WHERE user_id = $1", userId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("failed to retrieve completion states: %w", err)
	}
	defer rows.Close()

	completions := make(map[string]bool)
	for rows.Next() {
		var eventId string
		var completed bool
		if err := rows.Scan(&eventId, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan completion state: %w", err)
		}
		completions[eventId] = completed
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return completions, nil
}

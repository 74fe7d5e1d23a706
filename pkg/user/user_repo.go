package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

type Repository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) CreateUser(ctx context.Context, user User) (User, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO app_user (uid, username, display_name) VALUES ($1, $2, $3) RETURNING id`,
		user.Uid, user.Username, user.DisplayName,
	).Scan(&user.Id)
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *RepositoryImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	var user User
	err := r.db.QueryRow(ctx,
		"SELECT id, uid, username, display_name FROM app_user WHERE uid = $1", uid).
		Scan(&user.Id, &user.Uid, &user.Username, &user.DisplayName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

func (r *RepositoryImpl) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM app_user WHERE username = $1", username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

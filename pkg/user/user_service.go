package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrUsernameTaken = errors.New("username is already taken")

type Service interface {
	CreateUser(ctx context.Context, username, displayName string) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	GetCurrentUser(ctx context.Context) (User, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) CreateUser(ctx context.Context, username, displayName string) (User, error) {
	if username == "" {
		return User{}, errors.New("username must not be empty")
	}
	taken, err := s.repo.IsUsernameTaken(ctx, username)
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, ErrUsernameTaken
	}

	user := User{
		Uid:         uuid.NewString(),
		Username:    username,
		DisplayName: displayName,
	}
	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

func (s *ServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return s.repo.GetUserByUid(ctx, uid)
}

func (s *ServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	return CurrentUser(ctx)
}

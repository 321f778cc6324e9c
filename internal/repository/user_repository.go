package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"finocr/internal/models"

	"go.uber.org/zap"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// UserRecord is a stored account. PasswordHash never leaves the repository
// layer in API responses.
type UserRecord struct {
	models.User
	PasswordHash string
}

// UserRepository is the in-memory account store behind the mock backend.
type UserRepository struct {
	mu     sync.RWMutex
	users  []*UserRecord
	logger *zap.Logger
}

func NewUserRepository(logger *zap.Logger) *UserRepository {
	return &UserRepository{
		logger: logger,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) || strings.EqualFold(u.Username, user.Username) {
			return ErrUserExists
		}
	}

	stored := *user
	r.users = append(r.users, &stored)
	r.logger.Debug("User created", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return nil
}

// GetByLogin finds a user by email or username, the two values accepted in
// the login form's username field.
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, login) || strings.EqualFold(u.Username, login) {
			found := *u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.ID == id {
			found := *u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, len(r.users))
	for i, u := range r.users {
		users[i] = u.User
	}
	return users, nil
}

func (r *UserRepository) Deactivate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID == id {
			u.IsActive = false
			return nil
		}
	}
	return ErrUserNotFound
}

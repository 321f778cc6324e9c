package service

import (
	"context"
	"fmt"

	"finocr/internal/dto"
	"finocr/internal/models"

	"go.uber.org/zap"
)

type AdminAPI interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	DeactivateUser(ctx context.Context, userID string) (*dto.MessageResponse, error)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

type AdminPanel struct {
	api       AdminAPI
	confirmer Confirmer
	logger    *zap.Logger
}

func NewAdminPanel(api AdminAPI, confirmer Confirmer, logger *zap.Logger) *AdminPanel {
	return &AdminPanel{
		api:       api,
		confirmer: confirmer,
		logger:    logger,
	}
}

func (a *AdminPanel) Users(ctx context.Context) ([]models.User, error) {
	users, err := a.api.ListUsers(ctx)
	if err != nil {
		a.logger.Error("Failed to list users", zap.Error(err))
		return nil, err
	}
	return users, nil
}

// CanDeactivate reports whether the deactivate action is offered for user.
func (a *AdminPanel) CanDeactivate(user models.User) bool {
	return user.CanBeDeactivated()
}

// Deactivate confirms, deactivates and returns the re-fetched user list. The
// list is never updated locally.
func (a *AdminPanel) Deactivate(ctx context.Context, user models.User) ([]models.User, error) {
	if !a.CanDeactivate(user) {
		return nil, ErrNotDeactivatable
	}

	prompt := fmt.Sprintf("Are you sure you want to deactivate user \"%s\"?", user.Username)
	if a.confirmer == nil || !a.confirmer.Confirm(prompt) {
		return nil, ErrNotConfirmed
	}

	if _, err := a.api.DeactivateUser(ctx, user.ID); err != nil {
		a.logger.Error("Failed to deactivate user", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	a.logger.Info("User deactivated", zap.String("user_id", user.ID), zap.String("username", user.Username))

	return a.Users(ctx)
}

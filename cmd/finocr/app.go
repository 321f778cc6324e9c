package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"finocr/internal/api"
	"finocr/internal/models"
	"finocr/internal/repository"
	"finocr/internal/service"
	"finocr/pkg/config"

	"go.uber.org/zap"
)

var errNotAdmin = errors.New("admin privileges required")

type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	in      *bufio.Reader
	out     io.Writer
	store   *repository.SessionRepository
	client  *api.Client
	session *service.Session

	previews *service.ThumbnailFactory
}

func newApp(cfg *config.Config, logger *zap.Logger, in io.Reader, out io.Writer) *app {
	store := repository.NewSessionRepository(cfg.Session.File, cfg.API.BaseURL, logger)
	client := api.NewClient(&cfg.API, store, logger)
	return &app{
		cfg:     cfg,
		logger:  logger,
		in:      bufio.NewReader(in),
		out:     out,
		store:   store,
		client:  client,
		session: service.NewSession(client, store, logger),
	}
}

func (a *app) Close() {
	if a.previews != nil {
		if err := a.previews.Close(); err != nil {
			a.logger.Warn("Failed to remove previews", zap.Error(err))
		}
	}
}

// requireUser restores the stored session and fails when nobody is signed in.
func (a *app) requireUser(ctx context.Context) (*models.User, error) {
	a.session.Init(ctx)
	user, err := a.session.RequireUser()
	if err != nil {
		return nil, fmt.Errorf("%w: run \"finocr login\" first", err)
	}
	return user, nil
}

func (a *app) requireAdmin(ctx context.Context) (*models.User, error) {
	user, err := a.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, errNotAdmin
	}
	return user, nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// Confirm asks on the app's input and accepts y or yes.
func (a *app) Confirm(prompt string) bool {
	a.printf("%s [y/N]: ", prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

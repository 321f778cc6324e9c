package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finocr/internal/dto"
	"finocr/internal/models"
	"finocr/pkg/auth"

	"go.uber.org/zap"
)

type SessionAPI interface {
	Login(ctx context.Context, email, password string) (*dto.TokenResponse, error)
	Register(ctx context.Context, username, email, password string) (*dto.MessageResponse, error)
	CurrentUser(ctx context.Context) (*models.User, error)
}

// TokenStore is the persisted session token. Only Session writes it.
type TokenStore interface {
	Token() (string, error)
	Save(token string) error
	Clear() error
}

type SessionState string

const (
	StateAnonymous     SessionState = "anonymous"
	StateAuthenticated SessionState = "authenticated"
)

// RegisterResult tells callers how far register-then-login got, so the
// "registered but not logged in" case is distinguishable from a failed
// registration.
type RegisterResult struct {
	Registered bool
	LoggedIn   bool
	Message    string
}

// Session holds the current user identity derived from the persisted token.
// Login, Register and Logout are its only mutators.
type Session struct {
	api    SessionAPI
	store  TokenStore
	logger *zap.Logger
	now    func() time.Time

	mu   sync.RWMutex
	user *models.User
}

func NewSession(api SessionAPI, store TokenStore, logger *zap.Logger) *Session {
	return &Session{
		api:    api,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Init resolves the stored token into a user. Any failure leaves the session
// anonymous with the token cleared; it is never reported as an error.
func (s *Session) Init(ctx context.Context) {
	token, err := s.store.Token()
	if err != nil {
		s.logger.Warn("Failed to read stored session", zap.Error(err))
		s.setUser(nil)
		return
	}
	if token == "" {
		s.setUser(nil)
		return
	}

	if exp, ok := auth.ExpiresAt(token); ok && !exp.After(s.now()) {
		s.logger.Info("Stored session expired", zap.Time("expired_at", exp))
		s.clearToken()
		s.setUser(nil)
		return
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.logger.Info("Stored session rejected, signing out", zap.Error(err))
		s.clearToken()
		s.setUser(nil)
		return
	}
	s.setUser(user)
}

// Login issues a token, persists it and resolves the user. Both steps must
// succeed; if the user lookup fails the fresh token is discarded and the
// session stays anonymous.
func (s *Session) Login(ctx context.Context, email, password string) error {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if err := s.store.Save(resp.AccessToken); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.clearToken()
		s.setUser(nil)
		return fmt.Errorf("failed to resolve user: %w", err)
	}

	s.setUser(user)
	s.logger.Info("Logged in", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return nil
}

// Register creates the account and then logs in with the same credentials.
// Login is never attempted when registration fails.
func (s *Session) Register(ctx context.Context, username, email, password string) (RegisterResult, error) {
	resp, err := s.api.Register(ctx, username, email, password)
	if err != nil {
		return RegisterResult{}, err
	}

	result := RegisterResult{Registered: true, Message: resp.Message}
	if err := s.Login(ctx, email, password); err != nil {
		s.logger.Warn("Registered but login failed", zap.String("username", username), zap.Error(err))
		return result, err
	}

	result.LoggedIn = true
	return result, nil
}

// Logout clears the token and user. The in-memory state is reset even when
// the token file cannot be removed.
func (s *Session) Logout() error {
	err := s.store.Clear()
	s.setUser(nil)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return StateAnonymous
	}
	return StateAuthenticated
}

// User returns a copy of the resolved user, or nil when anonymous.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// RequireUser is the protected-view guard.
func (s *Session) RequireUser() (*models.User, error) {
	user := s.User()
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}

func (s *Session) setUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

func (s *Session) clearToken() {
	if err := s.store.Clear(); err != nil {
		s.logger.Warn("Failed to clear session token", zap.Error(err))
	}
}

package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type sessionFile struct {
	Token   string    `yaml:"token"`
	BaseURL string    `yaml:"base_url,omitempty"`
	SavedAt time.Time `yaml:"saved_at"`
}

// SessionRepository persists the bearer token in a small YAML file with
// owner-only permissions.
type SessionRepository struct {
	path    string
	baseURL string
	mu      sync.Mutex
	logger  *zap.Logger
}

func NewSessionRepository(path, baseURL string, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		path:    path,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (r *SessionRepository) Path() string {
	return r.path
}

// Token returns the stored token, or "" when no session file exists. A
// session saved against another API base URL is ignored.
func (r *SessionRepository) Token() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session file: %w", err)
	}

	var sf sessionFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return "", fmt.Errorf("failed to parse session file: %w", err)
	}
	if sf.BaseURL != "" && r.baseURL != "" && sf.BaseURL != r.baseURL {
		r.logger.Debug("Ignoring session for another API",
			zap.String("saved_for", sf.BaseURL),
			zap.String("current", r.baseURL),
		)
		return "", nil
	}
	return sf.Token, nil
}

func (r *SessionRepository) Save(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(sessionFile{
		Token:   token,
		BaseURL: r.baseURL,
		SavedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to store session file: %w", err)
	}
	return nil
}

func (r *SessionRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

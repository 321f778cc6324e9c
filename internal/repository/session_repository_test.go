package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSessionRepository_SaveTokenClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	repo := NewSessionRepository(path, "http://localhost:8000", zap.NewNop())

	token, err := repo.Token()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, repo.Save("jwt-token"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	token, err = repo.Token()
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)

	require.NoError(t, repo.Clear())
	require.NoError(t, repo.Clear())

	token, err = repo.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSessionRepository_IgnoresOtherBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, NewSessionRepository(path, "http://prod", zap.NewNop()).Save("prod-token"))

	token, err := NewSessionRepository(path, "http://localhost:8000", zap.NewNop()).Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSessionRepository_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0600))

	_, err := NewSessionRepository(path, "", zap.NewNop()).Token()
	assert.Error(t, err)
}

package mockapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"finocr/internal/api"
	"finocr/internal/models"
	"finocr/internal/repository"
	"finocr/internal/service"
	"finocr/pkg/auth"
	"finocr/pkg/config"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memTokens struct {
	mu    sync.Mutex
	token string
}

func (m *memTokens) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memTokens) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memTokens) Clear() error {
	return m.Save("")
}

type harness struct {
	url     string
	backend *Backend
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	backend := NewBackend(repository.NewUserRepository(logger), repository.NewDocumentRepository(logger), jwtManager, logger)
	require.NoError(t, backend.Seed(context.Background()))

	app := SetupRouter(backend, jwtManager, logger, RouterOptions{})
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	return &harness{url: srv.URL, backend: backend}
}

func (h *harness) session(t *testing.T) (*service.Session, *api.Client) {
	t.Helper()
	tokens := &memTokens{}
	client := api.NewClient(&config.APIConfig{BaseURL: h.url}, tokens, zap.NewNop())
	return service.NewSession(client, tokens, zap.NewNop()), client
}

func TestMockAPI_LoginResolvesSeededUser(t *testing.T) {
	h := newHarness(t)
	session, client := h.session(t)

	require.NoError(t, session.Login(context.Background(), SeedEmail, SeedPassword))
	user := session.User()
	require.NotNil(t, user)
	assert.Equal(t, SeedUsername, user.Username)
	assert.False(t, user.IsAdmin)

	docs, err := client.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "doc1", docs[0].ID)

	summary, err := service.Summarize(docs[0])
	require.NoError(t, err)
	assert.Equal(t, "875.49", summary.Total)
	assert.Equal(t, "2024-01-15 - 2024-01-17", summary.DateRange)

	require.NotNil(t, docs[2].ErrorMessage)
	assert.Equal(t, "Unable to extract text from image", *docs[2].ErrorMessage)

	status, err := client.GetDocumentStatus(context.Background(), "doc2")
	require.NoError(t, err)
	assert.Equal(t, "task_124", status.TaskID)
	assert.Equal(t, string(models.StatusProcessing), status.Status)
	assert.Nil(t, status.ErrorMessage)
}

func TestMockAPI_WrongPassword(t *testing.T) {
	h := newHarness(t)
	session, _ := h.session(t)

	err := session.Login(context.Background(), SeedEmail, "nope")
	assert.EqualError(t, err, "Invalid credentials")
	assert.Equal(t, service.StateAnonymous, session.State())
}

func TestMockAPI_RegisterThenLogin(t *testing.T) {
	h := newHarness(t)
	session, _ := h.session(t)

	result, err := session.Register(context.Background(), "newbie", "newbie@example.com", "Newbie#2024")
	require.NoError(t, err)
	assert.True(t, result.LoggedIn)
	assert.Equal(t, "newbie", session.User().Username)

	again, _ := h.session(t)
	result, err = again.Register(context.Background(), "newbie", "newbie@example.com", "Newbie#2024")
	require.Error(t, err)
	assert.False(t, result.Registered)
	assert.True(t, api.IsStatus(err, http.StatusConflict))
}

func TestMockAPI_RequiresBearer(t *testing.T) {
	h := newHarness(t)
	_, client := h.session(t)

	_, err := client.ListDocuments(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, "Not authenticated", err.Error())
}

func TestMockAPI_UploadAndPollToCompletion(t *testing.T) {
	h := newHarness(t)
	session, client := h.session(t)
	require.NoError(t, session.Login(context.Background(), SeedEmail, SeedPassword))

	resp, err := client.UploadFiles(context.Background(), []api.UploadFile{
		{Filename: "march.pdf", ContentType: "application/pdf", Content: strings.NewReader("%PDF-1.4")},
		{Filename: "lunch.jpg", ContentType: "image/jpeg", Content: strings.NewReader("\xff\xd8\xff")},
	})
	require.NoError(t, err)
	require.Len(t, resp.Documents, 2)
	assert.Equal(t, "2 files uploaded successfully", resp.Message)

	poller := service.NewPoller(client, config.PollerConfig{Interval: time.Hour}, zap.NewNop())
	require.NoError(t, poller.Start(context.Background()))
	defer poller.Stop()

	docs := poller.Documents()
	require.Len(t, docs, 5)
	assert.Equal(t, "march.pdf", docs[0].Filename)
	assert.Equal(t, "lunch.jpg", docs[1].Filename)
	assert.Equal(t, models.StatusQueued, docs[0].Status)
	assert.Equal(t, 3, poller.Pending())

	poller.Cycle(context.Background())
	assert.Equal(t, models.StatusProcessing, poller.Documents()[0].Status)

	poller.Cycle(context.Background())
	poller.Cycle(context.Background())
	assert.Zero(t, poller.Pending())

	done, err := client.GetDocument(context.Background(), docs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	require.NotNil(t, done.Result)
	assert.Equal(t, models.DocumentTypePDF, done.Result.DocumentType)
}

func TestMockAPI_AdminDeactivatesUser(t *testing.T) {
	h := newHarness(t)

	userSession, userClient := h.session(t)
	require.NoError(t, userSession.Login(context.Background(), SeedEmail, SeedPassword))
	_, err := userClient.ListUsers(context.Background())
	assert.True(t, api.IsStatus(err, http.StatusForbidden))

	adminSession, adminClient := h.session(t)
	require.NoError(t, adminSession.Login(context.Background(), SeedAdminUsername, SeedAdminPassword))
	require.True(t, adminSession.User().IsAdmin)

	panel := service.NewAdminPanel(adminClient, service.ConfirmFunc(func(string) bool { return true }), zap.NewNop())
	users, err := panel.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.True(t, panel.CanDeactivate(users[0]))
	assert.False(t, panel.CanDeactivate(users[1]))

	users, err = panel.Deactivate(context.Background(), users[0])
	require.NoError(t, err)
	assert.False(t, users[0].IsActive)

	_, err = userClient.CurrentUser(context.Background())
	assert.True(t, api.IsStatus(err, http.StatusBadRequest))

	relogin, _ := h.session(t)
	assert.Error(t, relogin.Login(context.Background(), SeedEmail, SeedPassword))

	_, err = adminClient.DeactivateUser(context.Background(), SeedAdminID)
	assert.True(t, api.IsStatus(err, http.StatusForbidden))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "receipt.jpg", sanitizeFilename("../../etc/receipt.jpg"))
	assert.Equal(t, "scan.png", sanitizeFilename(`C:\Users\me\scan.png`))
	assert.Equal(t, "bad.pdf", sanitizeFilename("b\xffad.pdf"))
	assert.Equal(t, "upload", sanitizeFilename(""))
}

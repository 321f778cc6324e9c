package service

import (
	"context"
	"errors"
	"sync"

	"finocr/internal/api"
	"finocr/internal/dto"
	"finocr/internal/models"
)

type MockSessionAPI struct {
	LoginFunc       func(ctx context.Context, email, password string) (*dto.TokenResponse, error)
	RegisterFunc    func(ctx context.Context, username, email, password string) (*dto.MessageResponse, error)
	CurrentUserFunc func(ctx context.Context) (*models.User, error)

	mu           sync.Mutex
	loginCalls   int
	currentCalls int
}

func (m *MockSessionAPI) Login(ctx context.Context, email, password string) (*dto.TokenResponse, error) {
	m.mu.Lock()
	m.loginCalls++
	m.mu.Unlock()
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, errors.New("not implemented")
}

func (m *MockSessionAPI) Register(ctx context.Context, username, email, password string) (*dto.MessageResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, username, email, password)
	}
	return nil, errors.New("not implemented")
}

func (m *MockSessionAPI) CurrentUser(ctx context.Context) (*models.User, error) {
	m.mu.Lock()
	m.currentCalls++
	m.mu.Unlock()
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

type MockTokenStore struct {
	mu      sync.Mutex
	token   string
	ReadErr error
	SaveErr error
	saves   int
	clears  int
}

func (m *MockTokenStore) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.ReadErr
}

func (m *MockTokenStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.token = token
	return nil
}

func (m *MockTokenStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.token = ""
	return nil
}

type MockUploader struct {
	UploadFilesFunc func(ctx context.Context, files []api.UploadFile) (*dto.UploadResponse, error)
}

func (m *MockUploader) UploadFiles(ctx context.Context, files []api.UploadFile) (*dto.UploadResponse, error) {
	return m.UploadFilesFunc(ctx, files)
}

type MockQueueAPI struct {
	ListDocumentsFunc func(ctx context.Context) ([]models.Document, error)
	GetTaskStatusFunc func(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error)
}

func (m *MockQueueAPI) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return m.ListDocumentsFunc(ctx)
}

func (m *MockQueueAPI) GetTaskStatus(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error) {
	return m.GetTaskStatusFunc(ctx, taskID)
}

type MockAdminAPI struct {
	ListUsersFunc      func(ctx context.Context) ([]models.User, error)
	DeactivateUserFunc func(ctx context.Context, userID string) (*dto.MessageResponse, error)

	listCalls int
}

func (m *MockAdminAPI) ListUsers(ctx context.Context) ([]models.User, error) {
	m.listCalls++
	return m.ListUsersFunc(ctx)
}

func (m *MockAdminAPI) DeactivateUser(ctx context.Context, userID string) (*dto.MessageResponse, error) {
	return m.DeactivateUserFunc(ctx, userID)
}

// MockPreviewFactory hands out previews that count their releases.
type MockPreviewFactory struct {
	mu       sync.Mutex
	previews []*MockPreview
}

func (f *MockPreviewFactory) Create(path string) (Preview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &MockPreview{ref: "preview:" + path}
	f.previews = append(f.previews, p)
	return p, nil
}

func (f *MockPreviewFactory) Released() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.previews {
		n += p.Releases()
	}
	return n
}

type MockPreview struct {
	ref      string
	mu       sync.Mutex
	releases int
}

func (p *MockPreview) Ref() string {
	return p.ref
}

func (p *MockPreview) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releases++
	return nil
}

func (p *MockPreview) Releases() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.releases
}

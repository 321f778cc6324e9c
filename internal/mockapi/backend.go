package mockapi

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"finocr/internal/dto"
	"finocr/internal/models"
	"finocr/internal/repository"
	"finocr/pkg/auth"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("inactive user")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
)

// Backend is the in-process stand-in for the OCR service. Tasks advance one
// step on every status read: queued, processing, then completed with a
// canned extraction.
type Backend struct {
	users      *repository.UserRepository
	docs       *repository.DocumentRepository
	jwtManager *auth.JWTManager
	logger     *zap.Logger
	now        func() time.Time
}

func NewBackend(users *repository.UserRepository, docs *repository.DocumentRepository, jwtManager *auth.JWTManager, logger *zap.Logger) *Backend {
	return &Backend{
		users:      users,
		docs:       docs,
		jwtManager: jwtManager,
		logger:     logger,
		now:        time.Now,
	}
}

func (b *Backend) Register(ctx context.Context, req *dto.RegisterRequest) error {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}

	_, err := b.createUser(ctx, uuid.NewString(), username, email, req.Password, false, b.now())
	return err
}

func (b *Backend) createUser(ctx context.Context, id, username, email, password string, isAdmin bool, registered time.Time) (*repository.UserRecord, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	record := &repository.UserRecord{
		User: models.User{
			ID:               id,
			Username:         username,
			Email:            email,
			RegistrationDate: registered.UTC().Format(time.RFC3339),
			IsActive:         true,
			IsAdmin:          isAdmin,
		},
		PasswordHash: hash,
	}
	if err := b.users.Create(ctx, record); err != nil {
		return nil, err
	}
	b.logger.Info("User registered", zap.String("user_id", id), zap.String("username", username))
	return record, nil
}

// Login accepts either the username or the email as login.
func (b *Backend) Login(ctx context.Context, login, password string) (*dto.TokenResponse, error) {
	user, err := b.users.GetByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	token, err := b.jwtManager.GenerateToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// ActiveUser resolves a token subject. Deactivated accounts are refused even
// while their tokens are still valid.
func (b *Backend) ActiveUser(ctx context.Context, userID string) (*models.User, error) {
	record, err := b.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !record.IsActive {
		return nil, ErrInactiveUser
	}
	user := record.User
	return &user, nil
}

type UploadedFile struct {
	Filename string
	Size     int64
}

func (b *Backend) Upload(ctx context.Context, ownerID string, files []UploadedFile) (*dto.UploadResponse, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files provided", ErrInvalidInput)
	}

	ts := b.now().UTC().Format(time.RFC3339)
	records := make([]*repository.DocumentRecord, len(files))
	uploaded := make([]dto.UploadedDocument, len(files))
	for i, f := range files {
		name := sanitizeFilename(f.Filename)
		records[i] = &repository.DocumentRecord{
			Document: models.Document{
				ID:              uuid.NewString(),
				TaskID:          uuid.NewString(),
				Filename:        name,
				UploadTimestamp: ts,
				Status:          models.StatusQueued,
			},
			OwnerID:  ownerID,
			FileSize: f.Size,
		}
		uploaded[i] = dto.UploadedDocument{TaskID: records[i].TaskID, Filename: name}
	}
	// Create prepends; going backwards keeps the batch in upload order at the head.
	for i := len(records) - 1; i >= 0; i-- {
		if err := b.docs.Create(ctx, records[i]); err != nil {
			return nil, fmt.Errorf("failed to store document: %w", err)
		}
	}

	b.logger.Info("Documents uploaded", zap.String("user_id", ownerID), zap.Int("count", len(uploaded)))
	return &dto.UploadResponse{
		Message:   fmt.Sprintf("%d files uploaded successfully", len(uploaded)),
		Documents: uploaded,
	}, nil
}

// Documents lists a user's documents. Admins see everything.
func (b *Backend) Documents(ctx context.Context, user *models.User) ([]models.Document, error) {
	owner := user.ID
	if user.IsAdmin {
		owner = ""
	}
	return b.docs.ListByOwner(ctx, owner)
}

func (b *Backend) Document(ctx context.Context, user *models.User, id string) (*models.Document, error) {
	record, err := b.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin && record.OwnerID != user.ID {
		return nil, repository.ErrDocumentNotFound
	}
	return &record.Document, nil
}

// TaskStatus reports a task the way the task queue does and advances it.
func (b *Backend) TaskStatus(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error) {
	record, err := b.docs.UpdateByTaskID(ctx, taskID, advance)
	if err != nil {
		return nil, err
	}

	resp := &dto.TaskStatusResponse{
		TaskID: taskID,
		Status: taskState(record.Status),
	}
	if record.Status.IsTerminal() {
		resp.Result = record.Result
		if record.Status == models.StatusFailed && resp.Result == nil {
			msg := "Document processing failed"
			if record.ErrorMessage != nil {
				msg = *record.ErrorMessage
			}
			resp.Result = &models.TaskResult{Success: false, Error: msg}
		}
	}
	return resp, nil
}

func advance(doc *models.Document) {
	switch doc.Status {
	case models.StatusUploading:
		doc.Status = models.StatusQueued
	case models.StatusQueued:
		doc.Status = models.StatusProcessing
	case models.StatusProcessing:
		doc.Status = models.StatusCompleted
		doc.Result = cannedResult(doc.Filename)
	}
}

func taskState(status models.DocumentStatus) string {
	switch status {
	case models.StatusQueued, models.StatusUploading:
		return "PENDING"
	case models.StatusProcessing:
		return "STARTED"
	case models.StatusCompleted:
		return "SUCCESS"
	case models.StatusFailed:
		return "FAILURE"
	default:
		return "PENDING"
	}
}

func cannedResult(filename string) *models.TaskResult {
	docType := models.DocumentTypeImage
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		docType = models.DocumentTypePDF
	}
	return &models.TaskResult{
		Success:      true,
		DocumentType: docType,
		ParsedDocument: []models.ParsedLineItem{
			{Date: "2024-01-15", Name: "Office Supplies", Amount: "$125.50"},
			{Date: "2024-01-16", Name: "Software License", Amount: "$299.99"},
		},
	}
}

func (b *Backend) Users(ctx context.Context) ([]models.User, error) {
	return b.users.List(ctx)
}

func (b *Backend) Deactivate(ctx context.Context, userID string) error {
	record, err := b.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if record.IsAdmin {
		return fmt.Errorf("%w: admin accounts cannot be deactivated", ErrForbidden)
	}
	if err := b.users.Deactivate(ctx, userID); err != nil {
		return err
	}
	b.logger.Info("User deactivated", zap.String("user_id", userID), zap.String("username", record.Username))
	return nil
}

// sanitizeFilename drops invalid UTF-8 and any directory part a client sent.
func sanitizeFilename(name string) string {
	if !utf8.ValidString(name) {
		var sb strings.Builder
		sb.Grow(len(name))
		for len(name) > 0 {
			r, size := utf8.DecodeRuneInString(name)
			if r != utf8.RuneError || size > 1 {
				sb.WriteRune(r)
			}
			name = name[size:]
		}
		name = sb.String()
	}
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}

package repository

import (
	"context"
	"errors"
	"sync"

	"finocr/internal/models"

	"go.uber.org/zap"
)

var ErrDocumentNotFound = errors.New("document not found")

type DocumentRecord struct {
	models.Document
	OwnerID  string
	FileSize int64
}

// DocumentRepository is the in-memory document store behind the mock
// backend. Newest documents come first.
type DocumentRepository struct {
	mu     sync.RWMutex
	docs   []*DocumentRecord
	logger *zap.Logger
}

func NewDocumentRepository(logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		logger: logger,
	}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *DocumentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *doc
	stored.Document = doc.Document.Clone()
	r.docs = append([]*DocumentRecord{&stored}, r.docs...)
	return nil
}

// ListByOwner returns the owner's documents. An empty owner lists all.
func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := make([]models.Document, 0, len(r.docs))
	for _, d := range r.docs {
		if ownerID == "" || d.OwnerID == ownerID {
			docs = append(docs, d.Document.Clone())
		}
	}
	return docs, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*DocumentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.docs {
		if d.ID == id {
			return cloneRecord(d), nil
		}
	}
	return nil, ErrDocumentNotFound
}

func (r *DocumentRepository) GetByTaskID(ctx context.Context, taskID string) (*DocumentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.docs {
		if d.TaskID == taskID {
			return cloneRecord(d), nil
		}
	}
	return nil, ErrDocumentNotFound
}

// UpdateByTaskID applies fn to the stored document under the write lock and
// returns the updated copy.
func (r *DocumentRepository) UpdateByTaskID(ctx context.Context, taskID string, fn func(*models.Document)) (*DocumentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.docs {
		if d.TaskID == taskID {
			fn(&d.Document)
			return cloneRecord(d), nil
		}
	}
	return nil, ErrDocumentNotFound
}

func cloneRecord(d *DocumentRecord) *DocumentRecord {
	out := *d
	out.Document = d.Document.Clone()
	return &out
}

package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"finocr/internal/dto"
	"finocr/internal/models"
	"finocr/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func strPtr(s string) *string {
	return &s
}

func queueFixture() []models.Document {
	return []models.Document{
		{ID: "doc1", TaskID: "task_123", Filename: "report.pdf", Status: models.StatusCompleted,
			Result: &models.TaskResult{Success: true, ParsedDocument: []models.ParsedLineItem{{Amount: "$1"}}}},
		{ID: "doc2", TaskID: "task_124", Filename: "invoice.png", Status: models.StatusProcessing},
		{ID: "doc3", TaskID: "task_125", Filename: "receipt.jpg", Status: models.StatusFailed,
			ErrorMessage: strPtr("Unable to extract text from image")},
		{ID: "doc4", TaskID: "task_126", Filename: "scan.png", Status: models.StatusQueued},
	}
}

func idleConfig() config.PollerConfig {
	return config.PollerConfig{Interval: time.Hour, MaxConcurrent: 4}
}

func listing(docs []models.Document) func(ctx context.Context) ([]models.Document, error) {
	return func(ctx context.Context) ([]models.Document, error) {
		out := make([]models.Document, len(docs))
		for i, d := range docs {
			out[i] = d.Clone()
		}
		return out, nil
	}
}

func TestPoller_CycleOnlyQueriesPendingAndMergesInPlace(t *testing.T) {
	var mu sync.Mutex
	queried := map[string]int{}
	mockAPI := &MockQueueAPI{
		ListDocumentsFunc: listing(queueFixture()),
		GetTaskStatusFunc: func(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error) {
			mu.Lock()
			queried[taskID]++
			mu.Unlock()
			if taskID == "task_124" {
				return &dto.TaskStatusResponse{
					TaskID: taskID,
					Status: "SUCCESS",
					Result: &models.TaskResult{
						Success:        true,
						DocumentType:   models.DocumentTypeImage,
						ParsedDocument: []models.ParsedLineItem{{Date: "2024-01-19", Name: "Invoice", Amount: "$80.00"}},
					},
				}, nil
			}
			return &dto.TaskStatusResponse{TaskID: taskID, Status: "PENDING"}, nil
		},
	}
	p := NewPoller(mockAPI, idleConfig(), zap.NewNop())
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	p.Cycle(context.Background())

	assert.Equal(t, map[string]int{"task_124": 1, "task_126": 1}, queried)

	docs := p.Documents()
	require.Len(t, docs, 4)
	assert.Equal(t, []string{"doc1", "doc2", "doc3", "doc4"}, []string{docs[0].ID, docs[1].ID, docs[2].ID, docs[3].ID})

	assert.Equal(t, models.StatusCompleted, docs[1].Status)
	require.NotNil(t, docs[1].Result)
	assert.Equal(t, "Invoice", docs[1].Result.ParsedDocument[0].Name)
	assert.Equal(t, models.StatusQueued, docs[3].Status)

	assert.Equal(t, queueFixture()[0], docs[0])
	assert.Equal(t, queueFixture()[2], docs[2])
	assert.Equal(t, 1, p.Pending())
}

func TestPoller_FailedQueryCarriesDocumentForward(t *testing.T) {
	mockAPI := &MockQueueAPI{
		ListDocumentsFunc: listing(queueFixture()),
		GetTaskStatusFunc: func(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error) {
			if taskID == "task_124" {
				return nil, errors.New("connection reset")
			}
			return &dto.TaskStatusResponse{TaskID: taskID, Status: "STARTED"}, nil
		},
	}
	p := NewPoller(mockAPI, idleConfig(), zap.NewNop())
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	p.Cycle(context.Background())

	docs := p.Documents()
	assert.Equal(t, models.StatusProcessing, docs[1].Status)
	assert.Equal(t, models.StatusProcessing, docs[3].Status)
}

func TestPoller_StatusNeverMovesBackward(t *testing.T) {
	mockAPI := &MockQueueAPI{
		ListDocumentsFunc: listing(queueFixture()),
		GetTaskStatusFunc: func(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error) {
			return &dto.TaskStatusResponse{TaskID: taskID, Status: "PENDING"}, nil
		},
	}
	p := NewPoller(mockAPI, idleConfig(), zap.NewNop())
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	p.Cycle(context.Background())

	assert.Equal(t, models.StatusProcessing, p.Documents()[1].Status)
}

func TestPoller_FailureResultCarriesMessage(t *testing.T) {
	mockAPI := &MockQueueAPI{
		ListDocumentsFunc: listing(queueFixture()[1:2]),
		GetTaskStatusFunc: func(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error) {
			return &dto.TaskStatusResponse{
				TaskID: taskID,
				Status: "SUCCESS",
				Result: &models.TaskResult{Success: false, Error: "No line items found"},
			}, nil
		},
	}
	p := NewPoller(mockAPI, idleConfig(), zap.NewNop())
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	p.Cycle(context.Background())

	doc := p.Documents()[0]
	assert.Equal(t, models.StatusFailed, doc.Status)
	assert.Nil(t, doc.Result)
	require.NotNil(t, doc.ErrorMessage)
	assert.Equal(t, "No line items found", *doc.ErrorMessage)
}

func TestPoller_NoMergeAfterStop(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	mockAPI := &MockQueueAPI{
		ListDocumentsFunc: listing(queueFixture()[1:2]),
		GetTaskStatusFunc: func(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error) {
			once.Do(func() { close(started) })
			<-release
			return &dto.TaskStatusResponse{TaskID: taskID, Status: "SUCCESS",
				Result: &models.TaskResult{Success: true}}, nil
		},
	}
	p := NewPoller(mockAPI, idleConfig(), zap.NewNop())
	require.NoError(t, p.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		p.Cycle(context.Background())
		close(done)
	}()
	<-started
	p.Stop()
	close(release)
	<-done

	assert.Equal(t, models.StatusProcessing, p.Documents()[0].Status)
}

func TestPoller_StartTwiceAndFailedStart(t *testing.T) {
	mockAPI := &MockQueueAPI{ListDocumentsFunc: listing(nil)}
	p := NewPoller(mockAPI, idleConfig(), zap.NewNop())
	require.NoError(t, p.Start(context.Background()))
	assert.ErrorIs(t, p.Start(context.Background()), ErrPollerRunning)
	p.Stop()

	failing := &MockQueueAPI{
		ListDocumentsFunc: func(ctx context.Context) ([]models.Document, error) {
			return nil, errors.New("Failed to fetch documents")
		},
	}
	p = NewPoller(failing, idleConfig(), zap.NewNop())
	assert.EqualError(t, p.Start(context.Background()), "Failed to fetch documents")
	p.Stop()
}

func TestPoller_TrackPrependsAndPublishes(t *testing.T) {
	mockAPI := &MockQueueAPI{ListDocumentsFunc: listing(queueFixture())}
	p := NewPoller(mockAPI, idleConfig(), zap.NewNop())
	updates := p.Subscribe()
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	initial := <-updates
	require.Len(t, initial, 4)

	p.Track(models.Document{ID: "fresh", TaskID: "t-new", Status: models.StatusQueued})

	snapshot := <-updates
	require.Len(t, snapshot, 5)
	assert.Equal(t, "fresh", snapshot[0].ID)
	assert.Equal(t, "doc1", snapshot[1].ID)
}

func TestPoller_TickerDrivesToCompletion(t *testing.T) {
	var calls atomic.Int32
	mockAPI := &MockQueueAPI{
		ListDocumentsFunc: listing(queueFixture()[3:]),
		GetTaskStatusFunc: func(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error) {
			switch calls.Add(1) {
			case 1:
				return &dto.TaskStatusResponse{TaskID: taskID, Status: "STARTED"}, nil
			default:
				return &dto.TaskStatusResponse{TaskID: taskID, Status: "SUCCESS",
					Result: &models.TaskResult{Success: true}}, nil
			}
		},
	}
	p := NewPoller(mockAPI, config.PollerConfig{Interval: 5 * time.Millisecond}, zap.NewNop())
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	assert.Eventually(t, func() bool { return p.Pending() == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, models.StatusCompleted, p.Documents()[0].Status)
}

func TestPoller_ConcurrentCyclesDoNotOverlap(t *testing.T) {
	var inFlight, maxInFlight, calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	mockAPI := &MockQueueAPI{
		ListDocumentsFunc: listing(queueFixture()[1:2]),
		GetTaskStatusFunc: func(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				m := maxInFlight.Load()
				if n <= m || maxInFlight.CompareAndSwap(m, n) {
					break
				}
			}
			calls.Add(1)
			once.Do(func() { close(started) })
			<-release
			return &dto.TaskStatusResponse{TaskID: taskID, Status: "STARTED"}, nil
		},
	}
	p := NewPoller(mockAPI, config.PollerConfig{Interval: 5 * time.Millisecond}, zap.NewNop())
	require.NoError(t, p.Start(context.Background()))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Cycle(context.Background())
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Cycle(context.Background())
	}()
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, int32(1), maxInFlight.Load())
	close(release)
	wg.Wait()
	p.Stop()

	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

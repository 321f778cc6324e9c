package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"finocr/internal/dto"
	"finocr/internal/models"
	"finocr/pkg/config"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type QueueAPI interface {
	ListDocuments(ctx context.Context) ([]models.Document, error)
	GetTaskStatus(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error)
}

// Poller keeps the processing queue current: one full list fetch on start,
// then a status query per non-terminal document every interval.
//
// Cycles never overlap, whether run by the schedule or through Cycle. A tick
// that fires while a cycle is running is dropped, so a late response from one
// cycle cannot overwrite the next.
type Poller struct {
	api    QueueAPI
	cfg    config.PollerConfig
	logger *zap.Logger

	mu      sync.Mutex
	docs    []models.Document
	subs    []chan []models.Document
	started bool

	cancel context.CancelFunc
	done   chan struct{}

	alive   atomic.Bool
	cycleMu sync.Mutex
}

func NewPoller(api QueueAPI, cfg config.PollerConfig, logger *zap.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 8
	}
	return &Poller{
		api:    api,
		cfg:    cfg,
		logger: logger,
	}
}

// Start performs the initial list fetch and then schedules polling. A failed
// initial fetch is returned and nothing is scheduled. A poller can be started
// once.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrPollerRunning
	}
	p.started = true
	p.mu.Unlock()

	p.alive.Store(true)
	if err := p.Refresh(ctx); err != nil {
		p.alive.Store(false)
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()
	go p.loop(loopCtx, done)

	p.logger.Info("Processing queue polling started", zap.Duration("interval", p.cfg.Interval))
	return nil
}

// Stop cancels the schedule and waits for an in-progress cycle to return.
// After Stop no result is applied to the held documents.
func (p *Poller) Stop() {
	p.alive.Store(false)

	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}

	p.mu.Lock()
	for _, ch := range p.subs {
		close(ch)
	}
	p.subs = nil
	p.mu.Unlock()
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.cycleMu.TryLock() {
				continue
			}
			p.cycle(ctx)
			p.cycleMu.Unlock()
		}
	}
}

// Refresh replaces the held list with a full fetch.
func (p *Poller) Refresh(ctx context.Context) error {
	docs, err := p.api.ListDocuments(ctx)
	if err != nil {
		p.logger.Error("Failed to fetch documents", zap.Error(err))
		return err
	}
	for i := range docs {
		docs[i].Normalize()
	}
	if !p.alive.Load() {
		return ErrPollerStopped
	}

	p.mu.Lock()
	p.docs = docs
	p.mu.Unlock()
	p.publish()
	return nil
}

// Track puts optimistic documents from an upload at the head of the list.
func (p *Poller) Track(docs ...models.Document) {
	if len(docs) == 0 {
		return
	}
	p.mu.Lock()
	fresh := make([]models.Document, 0, len(docs)+len(p.docs))
	for _, d := range docs {
		fresh = append(fresh, d.Clone())
	}
	p.docs = append(fresh, p.docs...)
	p.mu.Unlock()
	p.publish()
}

type statusUpdate struct {
	docID  string
	status *dto.TaskStatusResponse
}

// Cycle runs one merge step: query every non-terminal document and fold the
// responses back in. Failed queries are logged and the document is carried
// forward unchanged until the next cycle.
func (p *Poller) Cycle(ctx context.Context) {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()
	p.cycle(ctx)
}

func (p *Poller) cycle(ctx context.Context) {
	pending := p.pendingSnapshot()
	if len(pending) == 0 {
		return
	}

	var (
		mu      sync.Mutex
		updates []statusUpdate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrent)
	for _, doc := range pending {
		doc := doc
		g.Go(func() error {
			status, err := p.api.GetTaskStatus(gctx, doc.TaskID)
			if err != nil {
				if gctx.Err() == nil {
					p.logger.Warn("Failed to poll task status",
						zap.String("task_id", doc.TaskID),
						zap.String("document_id", doc.ID),
						zap.Error(err),
					)
				}
				return nil
			}
			mu.Lock()
			updates = append(updates, statusUpdate{docID: doc.ID, status: status})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(updates) == 0 || !p.alive.Load() || ctx.Err() != nil {
		return
	}
	if p.apply(updates) {
		p.publish()
	}
}

func (p *Poller) pendingSnapshot() []models.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	var pending []models.Document
	for _, d := range p.docs {
		if !d.Status.IsTerminal() && d.TaskID != "" {
			pending = append(pending, d)
		}
	}
	return pending
}

// apply folds updates into the current list by document ID, leaving order
// and every unpolled document untouched. It reports whether anything
// changed.
func (p *Poller) apply(updates []statusUpdate) bool {
	byID := make(map[string]*dto.TaskStatusResponse, len(updates))
	for _, u := range updates {
		byID[u.docID] = u.status
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	changed := false
	for i := range p.docs {
		resp, ok := byID[p.docs[i].ID]
		if !ok {
			continue
		}
		if next, ok := mergeStatus(p.docs[i], resp); ok {
			p.docs[i] = next
			changed = true
		}
	}
	return changed
}

// mergeStatus returns doc with the task response's status and result. It
// refuses to touch terminal documents, unknown statuses or backward moves.
func mergeStatus(doc models.Document, resp *dto.TaskStatusResponse) (models.Document, bool) {
	if doc.Status.IsTerminal() {
		return doc, false
	}
	status, ok := models.ParseDocumentStatus(resp.Status)
	if !ok || status.Rank() < doc.Status.Rank() {
		return doc, false
	}

	next := doc.Clone()
	next.Status = status
	next.Result = nil
	if resp.Result != nil {
		r := *resp.Result
		r.ParsedDocument = append([]models.ParsedLineItem(nil), resp.Result.ParsedDocument...)
		next.Result = &r
	}
	if status == models.StatusFailed && next.ErrorMessage == nil {
		msg := "Document processing failed"
		if resp.Result != nil && resp.Result.Error != "" {
			msg = resp.Result.Error
		}
		next.ErrorMessage = &msg
	}
	next.Normalize()

	if next.Status == doc.Status && next.Result == nil && doc.Result == nil {
		return doc, false
	}
	return next, true
}

// Documents returns a snapshot of the held list in display order.
func (p *Poller) Documents() []models.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneDocuments(p.docs)
}

// Pending counts documents still waiting on a terminal state.
func (p *Poller) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, d := range p.docs {
		if !d.Status.IsTerminal() {
			n++
		}
	}
	return n
}

// Subscribe returns a channel receiving the latest snapshot after every
// change. Slow readers only see the most recent snapshot. The channel is
// closed by Stop.
func (p *Poller) Subscribe() <-chan []models.Document {
	ch := make(chan []models.Document, 1)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	return ch
}

func (p *Poller) publish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		snapshot := cloneDocuments(p.docs)
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}

func cloneDocuments(docs []models.Document) []models.Document {
	out := make([]models.Document, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out
}

package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"finocr/internal/api"
	"finocr/internal/dto"
	"finocr/internal/models"
	"finocr/pkg/config"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Uploader interface {
	UploadFiles(ctx context.Context, files []api.UploadFile) (*dto.UploadResponse, error)
}

// PendingFile is one accepted selection waiting to be submitted.
type PendingFile struct {
	Path      string
	Name      string
	Size      int64
	MediaType string

	preview Preview
}

func (f PendingFile) IsPDF() bool {
	return f.MediaType == "application/pdf"
}

func (f PendingFile) IsImage() bool {
	return strings.HasPrefix(f.MediaType, "image/")
}

// PreviewRef is the local preview reference, "" for PDFs or when no preview
// could be rendered.
func (f PendingFile) PreviewRef() string {
	if f.preview == nil {
		return ""
	}
	return f.preview.Ref()
}

type UploadOutcome struct {
	Count   int
	Message string
	// Documents are optimistic queued entries built from the upload
	// response, ready to be tracked by the poller.
	Documents []models.Document
}

// UploadManager accumulates a pending selection and submits it as one batch.
type UploadManager struct {
	uploader Uploader
	previews PreviewFactory
	cfg      config.UploadConfig
	logger   *zap.Logger
	now      func() time.Time

	mu         sync.Mutex
	files      []*PendingFile
	inFlight   bool
	progress   int
	onProgress func(int)
}

func NewUploadManager(uploader Uploader, previews PreviewFactory, cfg config.UploadConfig, logger *zap.Logger) *UploadManager {
	return &UploadManager{
		uploader: uploader,
		previews: previews,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// OnProgress registers a hook called with every synthetic progress value.
func (m *UploadManager) OnProgress(fn func(int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onProgress = fn
}

// Add is the drop/picker handler. Candidates that are not a PDF or an
// allowed image, or exceed the size cap, are skipped without a reason being
// reported. It returns the entries that were accepted.
func (m *UploadManager) Add(paths ...string) []PendingFile {
	accepted := make([]*PendingFile, 0, len(paths))
	for _, path := range paths {
		f, ok := m.inspect(path)
		if !ok {
			continue
		}
		if f.IsImage() && m.previews != nil {
			p, err := m.previews.Create(path)
			if err != nil {
				m.logger.Debug("No preview for image", zap.String("path", path), zap.Error(err))
			} else {
				f.preview = p
			}
		}
		accepted = append(accepted, f)
	}

	m.mu.Lock()
	m.files = append(m.files, accepted...)
	m.mu.Unlock()

	out := make([]PendingFile, len(accepted))
	for i, f := range accepted {
		out[i] = *f
	}
	return out
}

func (m *UploadManager) inspect(path string) (*PendingFile, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		m.logger.Debug("Skipping unreadable selection", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	if info.Size() > m.cfg.MaxFileSize {
		m.logger.Debug("Skipping oversized file", zap.String("path", path), zap.Int64("size", info.Size()))
		return nil, false
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		m.logger.Debug("Skipping file with unknown type", zap.String("path", path), zap.Error(err))
		return nil, false
	}

	mediaType, ok := m.classify(mt, filepath.Ext(path))
	if !ok {
		m.logger.Debug("Skipping unsupported file", zap.String("path", path), zap.String("media_type", mt.String()))
		return nil, false
	}

	return &PendingFile{
		Path:      path,
		Name:      filepath.Base(path),
		Size:      info.Size(),
		MediaType: mediaType,
	}, true
}

func (m *UploadManager) classify(mt *mimetype.MIME, ext string) (string, bool) {
	if mt.Is("application/pdf") {
		return "application/pdf", true
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", false
	}
	ext = strings.ToLower(ext)
	for _, allowed := range m.cfg.AllowedImageExts {
		if ext == allowed {
			return mt.String(), true
		}
	}
	return "", false
}

// Files returns the pending sequence in selection order.
func (m *UploadManager) Files() []PendingFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PendingFile, len(m.files))
	for i, f := range m.files {
		out[i] = *f
	}
	return out
}

func (m *UploadManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

func (m *UploadManager) TotalSize() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, f := range m.files {
		total += f.Size
	}
	return total
}

// Remove drops the entry at index i and releases its preview.
func (m *UploadManager) Remove(i int) error {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return ErrUploadInFlight
	}
	if i < 0 || i >= len(m.files) {
		m.mu.Unlock()
		return ErrIndexOutOfRange
	}
	removed := m.files[i]
	m.files = append(m.files[:i:i], m.files[i+1:]...)
	m.mu.Unlock()

	m.release(removed)
	return nil
}

func (m *UploadManager) CanSubmit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.inFlight && len(m.files) > 0
}

func (m *UploadManager) InFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

func (m *UploadManager) Progress() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress
}

// Submit uploads the current pending sequence. While the call is out the
// progress value climbs on a fixed cadence up to the configured ceiling; it
// only reaches 100 once the upload resolves. On failure the sequence and its
// previews are left untouched.
func (m *UploadManager) Submit(ctx context.Context) (UploadOutcome, error) {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return UploadOutcome{}, ErrUploadInFlight
	}
	if len(m.files) == 0 {
		m.mu.Unlock()
		return UploadOutcome{}, ErrNothingToUpload
	}
	m.inFlight = true
	m.progress = 0
	batch := append([]*PendingFile(nil), m.files...)
	m.mu.Unlock()

	defer m.settle()
	m.emitProgress(0)

	stopProgress := m.startProgress()
	resp, err := m.send(ctx, batch)
	stopProgress()

	if err != nil {
		m.logger.Warn("Upload failed", zap.Int("files", len(batch)), zap.Error(err))
		return UploadOutcome{}, err
	}

	m.mu.Lock()
	m.progress = 100
	m.files = without(m.files, batch)
	m.mu.Unlock()
	m.emitProgress(100)

	for _, f := range batch {
		m.release(f)
	}

	outcome := UploadOutcome{
		Count:     len(batch),
		Message:   resp.Message,
		Documents: m.optimisticDocuments(resp),
	}
	if outcome.Message == "" {
		outcome.Message = fmt.Sprintf("%d file(s) uploaded and queued for processing.", len(batch))
	}
	m.logger.Info("Upload submitted", zap.Int("files", len(batch)), zap.Int("tasks", len(resp.Documents)))
	return outcome, nil
}

func (m *UploadManager) send(ctx context.Context, batch []*PendingFile) (*dto.UploadResponse, error) {
	files := make([]api.UploadFile, 0, len(batch))
	opened := make([]*os.File, 0, len(batch))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, p := range batch {
		f, err := os.Open(p.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", p.Name, err)
		}
		opened = append(opened, f)
		files = append(files, api.UploadFile{
			Filename:    p.Name,
			ContentType: p.MediaType,
			Content:     f,
		})
	}

	return m.uploader.UploadFiles(ctx, files)
}

// startProgress runs the cosmetic progress ticker and returns its stop func,
// which blocks until the ticker goroutine has exited.
func (m *UploadManager) startProgress() func() {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		if m.cfg.ProgressInterval <= 0 {
			return
		}
		ticker := time.NewTicker(m.cfg.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.mu.Lock()
				if m.progress >= m.cfg.ProgressCeiling {
					m.mu.Unlock()
					return
				}
				m.progress += m.cfg.ProgressStep
				if m.progress > m.cfg.ProgressCeiling {
					m.progress = m.cfg.ProgressCeiling
				}
				value := m.progress
				m.mu.Unlock()
				m.emitProgress(value)
			}
		}
	}()

	return func() {
		close(stop)
		<-done
	}
}

func (m *UploadManager) emitProgress(value int) {
	m.mu.Lock()
	fn := m.onProgress
	m.mu.Unlock()
	if fn != nil {
		fn(value)
	}
}

// settle clears the in-flight flag after the configured delay so a submit
// control does not flicker back on.
func (m *UploadManager) settle() {
	reset := func() {
		m.mu.Lock()
		m.inFlight = false
		m.mu.Unlock()
	}
	if m.cfg.SettleDelay <= 0 {
		reset()
		return
	}
	time.AfterFunc(m.cfg.SettleDelay, reset)
}

func (m *UploadManager) optimisticDocuments(resp *dto.UploadResponse) []models.Document {
	ts := m.now().UTC().Format(time.RFC3339)
	docs := make([]models.Document, len(resp.Documents))
	for i, d := range resp.Documents {
		docs[i] = models.Document{
			ID:              uuid.NewString(),
			TaskID:          d.TaskID,
			Filename:        d.Filename,
			UploadTimestamp: ts,
			Status:          models.StatusQueued,
		}
	}
	return docs
}

func (m *UploadManager) release(f *PendingFile) {
	if f.preview == nil {
		return
	}
	if err := f.preview.Release(); err != nil {
		m.logger.Warn("Failed to release preview", zap.String("file", f.Name), zap.Error(err))
	}
}

// Close releases every remaining preview and empties the selection.
func (m *UploadManager) Close() {
	m.mu.Lock()
	files := m.files
	m.files = nil
	m.mu.Unlock()
	for _, f := range files {
		m.release(f)
	}
}

func without(files, batch []*PendingFile) []*PendingFile {
	sent := make(map[*PendingFile]struct{}, len(batch))
	for _, f := range batch {
		sent[f] = struct{}{}
	}
	kept := files[:0:0]
	for _, f := range files {
		if _, ok := sent[f]; !ok {
			kept = append(kept, f)
		}
	}
	return kept
}

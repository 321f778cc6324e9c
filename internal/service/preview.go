package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Preview is a locally created, revocable reference used to show a selected
// image before upload. Release is safe to call more than once; only the first
// call does any work.
type Preview interface {
	Ref() string
	Release() error
}

type PreviewFactory interface {
	Create(path string) (Preview, error)
}

// ThumbnailFactory renders image previews as PNG thumbnails in a private
// temp directory.
type ThumbnailFactory struct {
	maxPx  int
	logger *zap.Logger

	mu  sync.Mutex
	dir string
}

func NewThumbnailFactory(maxPx int, logger *zap.Logger) *ThumbnailFactory {
	if maxPx <= 0 {
		maxPx = 256
	}
	return &ThumbnailFactory{
		maxPx:  maxPx,
		logger: logger,
	}
}

func (f *ThumbnailFactory) Create(path string) (Preview, error) {
	dir, err := f.ensureDir()
	if err != nil {
		return nil, err
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	thumb := imaging.Fit(img, f.maxPx, f.maxPx, imaging.Lanczos)

	out := filepath.Join(dir, uuid.NewString()+".png")
	if err := imaging.Save(thumb, out); err != nil {
		return nil, fmt.Errorf("failed to save preview: %w", err)
	}

	f.logger.Debug("Preview created", zap.String("source", path), zap.String("preview", out))
	return &filePreview{path: out}, nil
}

// Close removes the preview directory and anything still in it.
func (f *ThumbnailFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dir == "" {
		return nil
	}
	err := os.RemoveAll(f.dir)
	f.dir = ""
	return err
}

func (f *ThumbnailFactory) ensureDir() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dir != "" {
		return f.dir, nil
	}
	dir, err := os.MkdirTemp("", "finocr-previews-")
	if err != nil {
		return "", fmt.Errorf("failed to create preview directory: %w", err)
	}
	f.dir = dir
	return dir, nil
}

type filePreview struct {
	path string
	once sync.Once
	err  error
}

func (p *filePreview) Ref() string {
	return p.path
}

func (p *filePreview) Release() error {
	p.once.Do(func() {
		if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.err = err
		}
	})
	return p.err
}

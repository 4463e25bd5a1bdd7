package httpcontroller

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/oceanecho/oceanecho/internal/errors"
	"github.com/oceanecho/oceanecho/internal/logger"
	"github.com/oceanecho/oceanecho/internal/observability/metrics"
)

// Upload is a user-supplied clip kept on disk for analysis and playback.
type Upload struct {
	ID   string
	Name string // original base name, for display only
	Path string
	Size int64
}

// UploadStore keeps uploads in a per-process temporary directory. Each
// file is removed when its TTL expires and the directory is removed on Close.
type UploadStore struct {
	dir     string
	items   *cache.Cache
	metrics *metrics.HTTPMetrics
	log     logger.Logger
}

// NewUploadStore creates the upload directory under parent (os.TempDir when empty).
func NewUploadStore(parent string, ttl time.Duration, m *metrics.HTTPMetrics) (*UploadStore, error) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, errors.New(fmt.Errorf("creating upload parent directory: %w", err)).
				Component("httpcontroller").
				Category(errors.CategoryFileIO).
				Context("path", parent).
				Build()
		}
	}
	dir, err := os.MkdirTemp(parent, "oceanecho-uploads-")
	if err != nil {
		return nil, errors.New(fmt.Errorf("creating upload directory: %w", err)).
			Component("httpcontroller").
			Category(errors.CategoryFileIO).
			Build()
	}

	cleanup := ttl / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}

	s := &UploadStore{
		dir:     dir,
		items:   cache.New(ttl, cleanup),
		metrics: m,
		log:     GetLogger(),
	}
	s.items.OnEvicted(s.remove)
	return s, nil
}

// Dir returns the upload directory.
func (s *UploadStore) Dir() string { return s.dir }

// Save copies an uploaded file to disk under a random name that keeps
// the original extension for format detection.
func (s *UploadStore) Save(fh *multipart.FileHeader) (*Upload, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload %s: %w", fh.Filename, err)
	}
	defer func() { _ = src.Close() }()

	id := uuid.New().String()
	name := filepath.Base(fh.Filename)
	path := filepath.Join(s.dir, id+strings.ToLower(filepath.Ext(name)))

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, errors.New(fmt.Errorf("creating upload file: %w", err)).
			Component("httpcontroller").
			Category(errors.CategoryFileIO).
			Build()
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, errors.New(fmt.Errorf("writing upload %s: %w", name, err)).
			Component("httpcontroller").
			Category(errors.CategoryFileIO).
			FileContext(path, n).
			Build()
	}

	u := &Upload{ID: id, Name: name, Path: path, Size: n}
	s.items.SetDefault(id, u)
	s.metrics.UploadStored()
	s.log.Debug("upload stored",
		logger.String("id", id),
		logger.String("name", name),
		logger.Int64("size", n))
	return u, nil
}

// Get returns a live upload by id.
func (s *UploadStore) Get(id string) (*Upload, bool) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, false
	}
	u, ok := v.(*Upload)
	return u, ok
}

// Delete removes an upload immediately.
func (s *UploadStore) Delete(id string) {
	s.items.Delete(id)
}

// Len returns the number of live uploads.
func (s *UploadStore) Len() int {
	return s.items.ItemCount()
}

// Close removes every upload along with the directory.
func (s *UploadStore) Close() error {
	n := s.items.ItemCount()
	s.items.Flush()
	for range n {
		s.metrics.UploadRemoved()
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("removing upload directory: %w", err)
	}
	return nil
}

func (s *UploadStore) remove(id string, v any) {
	u, ok := v.(*Upload)
	if !ok {
		return
	}
	if err := os.Remove(u.Path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove expired upload",
			logger.String("id", id),
			logger.Error(err))
	}
	s.metrics.UploadRemoved()
}

// Package samples exposes the bundled library of example audio clips.
package samples

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/oceanecho/oceanecho/internal/errors"
	"github.com/oceanecho/oceanecho/internal/logger"
)

// ErrNotFound is returned by Resolve for names that are not in the library.
var ErrNotFound = errors.NewStd("sample not found")

// DefaultExtensions are the audio extensions offered when none are configured.
var DefaultExtensions = []string{".wav", ".mp3", ".ogg"}

// Sample is one clip in the library.
type Sample struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Library lists audio files in a single directory.
type Library struct {
	dir        string
	extensions []string
}

// NewLibrary creates a library over dir accepting the given extensions
// (case-insensitive, with or without a leading dot).
func NewLibrary(dir string, extensions []string) *Library {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !slices.Contains(normalized, ext) {
			normalized = append(normalized, ext)
		}
	}
	return &Library{dir: dir, extensions: normalized}
}

// Dir returns the library directory.
func (l *Library) Dir() string { return l.dir }

// Extensions returns the accepted extensions.
func (l *Library) Extensions() []string { return slices.Clone(l.extensions) }

// Accepts reports whether name has an accepted extension.
func (l *Library) Accepts(name string) bool {
	return slices.Contains(l.extensions, strings.ToLower(filepath.Ext(name)))
}

// List returns the accepted regular files in the library, sorted by name. A
// missing directory is an empty library.
func (l *Library) List() ([]Sample, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			GetLogger().Debug("sample directory does not exist", logger.String("dir", l.dir))
			return nil, nil
		}
		return nil, errors.New(fmt.Errorf("failed to read sample directory: %w", err)).
			Component("samples").
			Category(errors.CategoryFileIO).
			Context("dir", l.dir).
			Build()
	}

	var out []Sample
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !l.Accepts(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Sample{Name: entry.Name(), Size: info.Size()})
	}
	slices.SortFunc(out, func(a, b Sample) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// Resolve returns the path of a listed sample. Only names returned by List
// resolve, so callers can pass user input straight through.
func (l *Library) Resolve(name string) (string, error) {
	list, err := l.List()
	if err != nil {
		return "", err
	}
	for _, s := range list {
		if s.Name == name {
			return filepath.Join(l.dir, s.Name), nil
		}
	}
	return "", errors.New(fmt.Errorf("%w: %q", ErrNotFound, name)).
		Component("samples").
		Category(errors.CategoryNotFound).
		Build()
}

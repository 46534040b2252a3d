package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore manages the single root directory holding downloaded videos, their
// auxiliary frames, and the catalog metadata file. Final asset names derive
// from catalog identifiers, never from remote filenames.
type FileStore struct {
	basePath string
}

// NewFileStore initializes a FileStore rooted at basePath, creating the root
// and its staging area if needed.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if abs, err := filepath.Abs(basePath); err == nil {
		basePath = abs
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(basePath, ".staging"), 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure staging path: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// VideoPath returns the final location for the video with the given catalog
// identifier.
func (s *FileStore) VideoPath(id int64) string {
	return filepath.Join(s.basePath, fmt.Sprintf("%d.mp4", id))
}

// FramePath returns the final location for the optional last-frame image of
// the video with the given catalog identifier.
func (s *FileStore) FramePath(id int64) string {
	return filepath.Join(s.basePath, fmt.Sprintf("%d_frame.jpg", id))
}

// StagingPath returns a fresh download destination inside the staging area.
// Staged files only become visible under a final name via Publish.
func (s *FileStore) StagingPath(ext string) string {
	if ext == "" {
		ext = ".mp4"
	}
	return filepath.Join(s.basePath, ".staging", uuid.NewString()+ext)
}

// MetadataPath returns the location of the catalog metadata file.
func (s *FileStore) MetadataPath() string {
	return filepath.Join(s.basePath, "metadata.json")
}

// SettingsPath returns the location of the plugin settings file.
func (s *FileStore) SettingsPath() string {
	return filepath.Join(s.basePath, "settings.json")
}

// Publish atomically moves a staged file to its final location. Rename within
// the same filesystem means readers never observe a partial file.
func (s *FileStore) Publish(staged, final string) error {
	if err := os.Rename(staged, final); err != nil {
		return fmt.Errorf("storage: publish %s: %w", filepath.Base(final), err)
	}
	return nil
}

// Remove deletes the assets belonging to a catalog identifier. Missing files
// are not an error.
func (s *FileStore) Remove(id int64) error {
	for _, p := range []string{s.VideoPath(id), s.FramePath(id)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("storage: remove %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

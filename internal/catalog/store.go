package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/domain"
)

// storeFile is the on-disk shape of the catalog. The whole store is rewritten
// atomically on every commit, so a crash loses at most the job that had not
// committed yet. The identifier counter is persisted explicitly so removed
// entries never free their identifier for reuse.
type storeFile struct {
	NextID int64                 `json:"next_id"`
	Videos []domain.CatalogEntry `json:"videos"`
}

// PublishFunc moves a staged asset into its final, identifier-derived location
// and returns that location. It runs under the commit lock, so the identifier
// it receives is reserved for exactly this entry.
type PublishFunc func(id int64) (localPath string, err error)

// CommitError reports a commit whose asset was already published when the
// durable write failed, so an operator can recover the file manually.
type CommitError struct {
	LocalPath string
	Err       error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("catalog: commit failed (asset at %s): %v", e.LocalPath, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// Store is the durable, identifier-ordered catalog of completed videos.
// Commit is the single serialization point of the system; reads only need to
// be consistent with the most recently completed commit.
type Store struct {
	mu      sync.RWMutex
	path    string
	nextID  int64
	entries []domain.CatalogEntry
	now     func() time.Time
}

// Load reads the catalog from path, starting empty when no file exists yet.
func Load(path string) (*Store, error) {
	s := &Store{path: path, nextID: 1, now: time.Now}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var file storeFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	s.entries = file.Videos
	s.nextID = file.NextID
	for _, e := range s.entries {
		if e.ID >= s.nextID {
			s.nextID = e.ID + 1
		}
	}
	if s.nextID < 1 {
		s.nextID = 1
	}
	return s, nil
}

// Commit assigns the next identifier, publishes the staged asset under it,
// appends the entry, and persists the whole store before returning. The
// returned entry is guaranteed durable.
func (s *Store) Commit(draft domain.EntryDraft, publish PublishFunc) (*domain.CatalogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	localPath := draft.LocalPath
	if publish != nil {
		p, err := publish(id)
		if err != nil {
			return nil, fmt.Errorf("catalog: publish asset: %w", err)
		}
		localPath = p
	}

	entry := domain.CatalogEntry{
		ID:               id,
		Prompt:           draft.Prompt,
		ModelID:          draft.ModelID,
		OriginalFilename: draft.OriginalFilename,
		LocalPath:        localPath,
		CreatedAt:        s.now().UTC(),
	}
	s.entries = append(s.entries, entry)
	s.nextID = id + 1

	if err := s.persistLocked(); err != nil {
		s.entries = s.entries[:len(s.entries)-1]
		s.nextID = id
		return nil, &CommitError{LocalPath: localPath, Err: err}
	}
	return &entry, nil
}

// List returns all entries in creation order, ascending by identifier.
func (s *Store) List() []domain.CatalogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CatalogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get performs an exact-identifier lookup.
func (s *Store) Get(id int64) (*domain.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			e := s.entries[i]
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Remove deletes the entry with the given identifier and persists the store.
// The identifier is not reassigned.
func (s *Store) Remove(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i := range s.entries {
		if s.entries[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ErrNotFound
	}
	removed := s.entries[idx]
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	if err := s.persistLocked(); err != nil {
		s.entries = append(s.entries[:idx], append([]domain.CatalogEntry{removed}, s.entries[idx:]...)...)
		return err
	}
	return nil
}

// persistLocked rewrites the whole store via a temporary file and an atomic
// rename. Callers must hold the write lock.
func (s *Store) persistLocked() error {
	file := storeFile{NextID: s.nextID, Videos: s.entries}
	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("catalog: encode: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("catalog: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("catalog: replace %s: %w", s.path, err)
	}
	return nil
}

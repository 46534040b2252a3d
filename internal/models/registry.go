package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/providers/ark"
)

// ErrUnknownModel rejects attempts to select a model outside the supported set.
var ErrUnknownModel = errors.New("models: unknown model")

type settingsFile struct {
	DefaultModel string `json:"default_model"`
}

// Registry tracks the supported generation models and the process-wide
// default. Default selection survives restarts via a small settings file.
type Registry struct {
	mu        sync.Mutex
	supported []string
	def       string
	path      string
}

// Load builds a registry persisted at path, falling back to fallbackDefault
// when no selection has been stored yet.
func Load(path, fallbackDefault string) (*Registry, error) {
	r := &Registry{supported: ark.SupportedModels(), def: fallbackDefault, path: path}
	if r.def == "" {
		r.def = r.supported[0]
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("models: read %s: %w", path, err)
	}
	var file settingsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("models: parse %s: %w", path, err)
	}
	if file.DefaultModel != "" && r.contains(file.DefaultModel) {
		r.def = file.DefaultModel
	}
	return r, nil
}

// List returns the supported model identifiers in presentation order.
func (r *Registry) List() []string {
	out := make([]string, len(r.supported))
	copy(out, r.supported)
	return out
}

// Default returns the current default model.
func (r *Registry) Default() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.def
}

// SetDefault selects a new default model and persists the choice.
func (r *Registry) SetDefault(id string) error {
	if !r.contains(id) {
		return fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	previous := r.def
	r.def = id
	if err := r.persistLocked(); err != nil {
		r.def = previous
		return err
	}
	return nil
}

// ByIndex resolves a 1-based position into a model identifier, matching the
// numbering shown to chat users.
func (r *Registry) ByIndex(i int) (string, error) {
	if i < 1 || i > len(r.supported) {
		return "", fmt.Errorf("%w: index %d out of range 1-%d", ErrUnknownModel, i, len(r.supported))
	}
	return r.supported[i-1], nil
}

func (r *Registry) contains(id string) bool {
	for _, m := range r.supported {
		if m == id {
			return true
		}
	}
	return false
}

func (r *Registry) persistLocked() error {
	raw, err := json.MarshalIndent(settingsFile{DefaultModel: r.def}, "", "  ")
	if err != nil {
		return fmt.Errorf("models: encode settings: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("models: write settings: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("models: replace settings: %w", err)
	}
	return nil
}

package domain

import "time"

// CatalogEntry is the durable record of one completed video asset. Identifiers
// are dense and increasing in creation order and are never reused, even after
// an entry is removed.
type CatalogEntry struct {
	ID               int64     `json:"id"`
	Prompt           string    `json:"prompt"`
	ModelID          string    `json:"model_id"`
	OriginalFilename string    `json:"original_filename"`
	LocalPath        string    `json:"local_path"`
	CreatedAt        time.Time `json:"created_at"`
}

// EntryDraft is a CatalogEntry before the store has assigned its identifier
// and final local path.
type EntryDraft struct {
	Prompt           string
	ModelID          string
	OriginalFilename string
	LocalPath        string
}

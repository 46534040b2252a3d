package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/delivery"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/domain"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/infra"
)

// Generator runs one full generation cycle.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.CatalogEntry, error)
}

// Catalog is the read/remove surface of the video catalog.
type Catalog interface {
	List() []domain.CatalogEntry
	Get(id int64) (*domain.CatalogEntry, error)
	Remove(id int64) error
}

// Resolver translates a user token into a catalog entry.
type Resolver interface {
	Resolve(token string) (*domain.CatalogEntry, error)
}

// Sink delivers a local video into the chat channel.
type Sink interface {
	SendVideo(ctx context.Context, target delivery.Target, path, caption string) error
}

// ModelRegistry exposes the supported models and the default selection.
type ModelRegistry interface {
	List() []string
	Default() string
	SetDefault(id string) error
	ByIndex(i int) (string, error)
}

// AssetRemover deletes the stored files of a catalog entry.
type AssetRemover interface {
	Remove(id int64) error
}

// App bundles the dependencies of the HTTP surface. The external chat-command
// dispatcher translates user commands into these routes; no raw command text
// is parsed here.
type App struct {
	Logger    infra.Logger
	Generator Generator
	Catalog   Catalog
	Resolver  Resolver
	Sink      Sink
	Models    ModelRegistry
	Assets    AssetRemover
	Cfg       *infra.Config
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/delivery"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/domain"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/middleware"
)

type generateRequest struct {
	Prompt   string `json:"prompt"`
	ModelID  string `json:"model_id"`
	ImageURL string `json:"image_url"`
}

type entryResponse struct {
	ID               int64  `json:"id"`
	Prompt           string `json:"prompt"`
	ModelID          string `json:"model_id"`
	OriginalFilename string `json:"original_filename"`
	LocalPath        string `json:"local_path"`
	CreatedAt        string `json:"created_at"`
}

func toEntryResponse(e *domain.CatalogEntry) entryResponse {
	return entryResponse{
		ID:               e.ID,
		Prompt:           e.Prompt,
		ModelID:          e.ModelID,
		OriginalFilename: e.OriginalFilename,
		LocalPath:        e.LocalPath,
		CreatedAt:        e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// VideosGenerate runs one synchronous generation cycle. The dispatcher holds
// the chat turn open while this blocks, which can be minutes.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}

	genReq := domain.GenerationRequest{
		ID:              middleware.RequestIDFromContext(r.Context()),
		Prompt:          strings.TrimSpace(req.Prompt),
		ModelID:         strings.TrimSpace(req.ModelID),
		ImageURL:        strings.TrimSpace(req.ImageURL),
		Ratio:           a.Cfg.VideoRatio,
		Duration:        a.Cfg.VideoDuration,
		Watermark:       a.Cfg.Watermark,
		GenerateAudio:   a.Cfg.GenerateAudio,
		Draft:           a.Cfg.Draft,
		ReturnLastFrame: a.Cfg.ReturnLastFrame,
	}

	entry, err := a.Generator.Generate(r.Context(), genReq)
	if err != nil {
		a.generationError(w, err)
		return
	}
	a.json(w, http.StatusCreated, toEntryResponse(entry))
}

func (a *App) generationError(w http.ResponseWriter, err error) {
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		a.error(w, http.StatusInternalServerError, "internal", "generation failed")
		return
	}
	body := map[string]string{
		"error":   string(genErr.Stage),
		"message": genErr.Error(),
	}
	if genErr.RemoteMessage != "" {
		body["remote_message"] = genErr.RemoteMessage
	}
	if genErr.VideoURL != "" {
		body["video_url"] = genErr.VideoURL
	}
	if genErr.LocalPath != "" {
		body["local_path"] = genErr.LocalPath
	}

	status := http.StatusBadGateway
	switch genErr.Stage {
	case domain.StageTimedOut:
		status = http.StatusGatewayTimeout
	case domain.StageStoreCommitFailed:
		status = http.StatusInternalServerError
	}
	a.json(w, status, body)
}

// VideosList returns all catalog entries in creation order.
func (a *App) VideosList(w http.ResponseWriter, r *http.Request) {
	entries := a.Catalog.List()
	out := make([]entryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, toEntryResponse(&entries[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"videos": out})
}

// VideosResolve translates a numeric or fuzzy token into a single entry.
func (a *App) VideosResolve(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	entry, err := a.Resolver.Resolve(token)
	if err != nil {
		a.resolveError(w, token, err)
		return
	}
	a.json(w, http.StatusOK, toEntryResponse(entry))
}

func (a *App) resolveError(w http.ResponseWriter, token string, err error) {
	var ambiguous *domain.AmbiguousMatchError
	if errors.As(err, &ambiguous) {
		candidates := make([]entryResponse, 0, len(ambiguous.Candidates))
		for i := range ambiguous.Candidates {
			candidates = append(candidates, toEntryResponse(&ambiguous.Candidates[i]))
		}
		a.json(w, http.StatusConflict, map[string]any{
			"error":      "ambiguous",
			"message":    ambiguous.Error(),
			"candidates": candidates,
		})
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "no video matches "+strconv.Quote(token))
		return
	}
	a.error(w, http.StatusInternalServerError, "internal", "lookup failed")
}

type sendRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
	Caption string `json:"caption"`
}

// VideosSend resolves a token and delivers the video to a chat target.
func (a *App) VideosSend(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.GroupID == "" && req.UserID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "group_id or user_id is required")
		return
	}

	entry, err := a.Resolver.Resolve(token)
	if err != nil {
		a.resolveError(w, token, err)
		return
	}

	target := delivery.Target{GroupID: req.GroupID, UserID: req.UserID}
	if err := a.Sink.SendVideo(r.Context(), target, entry.LocalPath, req.Caption); err != nil {
		a.Logger.Warn().Err(err).Int64("id", entry.ID).Msg("video delivery failed")
		a.error(w, http.StatusBadGateway, "delivery_failed", err.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]any{"sent": true, "id": entry.ID})
}

// VideosDelete removes a catalog entry and its stored files. The identifier
// is retired, never reassigned.
func (a *App) VideosDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "token"), 10, 64)
	if err != nil || id < 1 {
		a.error(w, http.StatusBadRequest, "bad_request", "id must be a positive integer")
		return
	}
	if err := a.Catalog.Remove(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "no such video")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "remove failed")
		return
	}
	if a.Assets != nil {
		if err := a.Assets.Remove(id); err != nil {
			a.Logger.Warn().Err(err).Int64("id", id).Msg("asset cleanup failed")
		}
	}
	a.json(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

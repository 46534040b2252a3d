package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/models"
)

// ModelsList returns the supported models and the current default.
func (a *App) ModelsList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"models":  a.Models.List(),
		"default": a.Models.Default(),
	})
}

type setDefaultRequest struct {
	ModelID string `json:"model_id"`
	Index   int    `json:"index"`
}

// ModelsSetDefault selects the process-wide default model, by identifier or
// by the 1-based index shown in chat listings.
func (a *App) ModelsSetDefault(w http.ResponseWriter, r *http.Request) {
	var req setDefaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	id := req.ModelID
	if id == "" && req.Index > 0 {
		var err error
		id, err = a.Models.ByIndex(req.Index)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "model_id or index is required")
		return
	}
	if err := a.Models.SetDefault(id); err != nil {
		if errors.Is(err, models.ErrUnknownModel) {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to persist selection")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"default": id})
}

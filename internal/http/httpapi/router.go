package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/http/handlers"
	"github.com/poncianopadolcg658-byte/maimaidoubao/internal/middleware"
)

// NewRouter maps the chat-command surface onto the core contracts.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Logger(app.Logger),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/videos", func(r chi.Router) {
		r.Post("/", app.VideosGenerate)
		r.Get("/", app.VideosList)
		r.Get("/{token}", app.VideosResolve)
		r.Post("/{token}/send", app.VideosSend)
		r.Delete("/{token}", app.VideosDelete)
	})

	r.Route("/v1/models", func(r chi.Router) {
		r.Get("/", app.ModelsList)
		r.Put("/default", app.ModelsSetDefault)
	})

	return r
}

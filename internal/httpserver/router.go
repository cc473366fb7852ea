package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/healthz", healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/readings", app.createReading)
		r.Get("/readings/{reading_id}", app.getReading)

		r.Post("/players", app.createPlayer)
		r.Get("/players", app.listPlayers)
		r.Get("/players/{player_id}/readings", app.listPlayerReadings)

		r.Route("/admin/retry-queue", func(r chi.Router) {
			r.Get("/", app.listRetryJobs)
			r.Get("/stats", app.retryStats)
			r.Post("/process", app.processRetryQueue)
			r.Post("/{job_id}/reset", app.resetRetryJob)
			r.Delete("/{job_id}", app.deleteRetryJob)
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", app.showFormHandler)
	mux.HandleFunc("POST /form", app.rateLimit(app.submitFormHandler))
	mux.HandleFunc("POST /submissions", app.rateLimit(app.authMiddleware(app.createSubmissionHandler)))
	mux.HandleFunc("GET /healthz", app.healthzHandler)
	mux.HandleFunc("GET /readyz", app.readyzHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	return app.logRequest(mux)
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/dkorovin/lunchbot-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса заказов обедов.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Group(func(r chi.Router) {
		r.Use(h.webhookAuth.Middleware)
		r.Post("/webhook", h.Webhook)
	})

	r.Route("/api/report", func(r chi.Router) {
		r.Use(h.reportAuth.Middleware)

		r.Get("/orders", h.GetOrdersReport)
		r.Get("/locations", h.GetLocationTotals)
	})

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}

// Package handler содержит HTTP-обработчики сервиса заказов обедов:
// вебхук чат-платформы и отчётное API.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dkorovin/lunchbot-system/internal/middleware"
	"github.com/dkorovin/lunchbot-system/internal/model"
	"github.com/dkorovin/lunchbot-system/internal/telegram"
)

const dateLayout = "2006-01-02"

// Dispatcher определяет контракт обработки входящих обновлений чат-платформы.
type Dispatcher interface {
	HandleUpdate(ctx context.Context, u *telegram.Update)
}

// Reporter определяет контракт отчётных выборок, используемых HTTP-обработчиками.
type Reporter interface {
	GetOrdersReport(ctx context.Context, from, to time.Time) ([]model.ReportRow, error)
	LocationTotals(ctx context.Context, targetDate time.Time) ([]model.LocationTotal, error)
	Ping(ctx context.Context) error
}

// Handler реализует HTTP-обработчики сервиса заказов обедов.
type Handler struct {
	dispatcher  Dispatcher
	reporter    Reporter
	logger      *zap.Logger
	location    *time.Location
	webhookAuth *middleware.KeyAuth
	reportAuth  *middleware.KeyAuth
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(d Dispatcher, rep Reporter, logger *zap.Logger, loc *time.Location, webhookAuth, reportAuth *middleware.KeyAuth) *Handler {
	return &Handler{
		dispatcher:  d,
		reporter:    rep,
		logger:      logger,
		location:    loc,
		webhookAuth: webhookAuth,
		reportAuth:  reportAuth,
	}
}

// Webhook принимает обновление от чат-платформы. Ответ всегда 200:
// повторная доставка одного и того же обновления не нужна,
// ошибки обрабатываются внутри диспетчера.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var u telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		h.logger.Warn("malformed webhook payload", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.dispatcher.HandleUpdate(r.Context(), &u)
	w.WriteHeader(http.StatusOK)
}

// GetOrdersReport возвращает заказы за период [from, to] для выгрузки.
func (h *Handler) GetOrdersReport(w http.ResponseWriter, r *http.Request) {
	from, err := h.parseDate(r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	to, err := h.parseDate(r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if to.Before(from) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	rows, err := h.reporter.GetOrdersReport(r.Context(), from, to)
	if err != nil {
		h.logger.Error("orders report error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(rows) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rows); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// GetLocationTotals возвращает суммарные порции по объектам за указанный день.
func (h *Handler) GetLocationTotals(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	totals, err := h.reporter.LocationTotals(r.Context(), date)
	if err != nil {
		h.logger.Error("location totals error", zap.Error(err), zap.String("date", date.Format(dateLayout)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(totals) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(totals); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// Healthz проверяет доступность хранилища.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.reporter.Ping(r.Context()); err != nil {
		h.logger.Error("healthcheck failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, h.location)
}

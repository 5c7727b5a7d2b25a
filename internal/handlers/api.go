package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"appliance-dashboard/internal/errors"
	"appliance-dashboard/internal/observability"
	"appliance-dashboard/internal/services"
)

var noStore = map[string]string{
	"Cache-Control": "no-store",
}

type APIHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
	maxRows   int
}

func NewAPIHandlers(dashboard *services.Dashboard, logger *slog.Logger, maxRows int) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
		maxRows:   maxRows,
	}
}

func (h *APIHandlers) tick(w http.ResponseWriter, r *http.Request) (*services.Tick, bool) {
	tick, err := h.dashboard.Tick(r.Context(), selectionFromQuery(r.URL.Query()))
	if err != nil {
		errors.WriteError(w, h.logger, tickError(err), observability.GetRequestID(r.Context()))
		return nil, false
	}
	return tick, true
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	ds, err := h.dashboard.Dataset(r.Context())
	if err != nil {
		errors.WriteError(w, h.logger, tickError(err), observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, h.logger, ds.Options, noStore, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	tick, ok := h.tick(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, h.logger, map[string]any{
		"values":    tick.KPIs,
		"display":   tick.Display,
		"selection": tick.Selection,
		"matched":   len(tick.View),
	}, noStore, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleCategorySales(w http.ResponseWriter, r *http.Request) {
	tick, ok := h.tick(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, h.logger, tick.CategorySales, noStore, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleSalesTrend(w http.ResponseWriter, r *http.Request) {
	tick, ok := h.tick(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, h.logger, tick.SalesTrend, noStore, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleRatingDistribution(w http.ResponseWriter, r *http.Request) {
	tick, ok := h.tick(w, r)
	if !ok {
		return
	}

	errors.WriteSuccessWithHeaders(w, h.logger, tick.RatingBins, noStore, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	limit := h.maxRows
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errors.WriteError(w, h.logger, errors.BadRequest("limit must be a positive integer"), observability.GetRequestID(r.Context()))
			return
		}
		limit = min(n, h.maxRows)
	}

	tick, ok := h.tick(w, r)
	if !ok {
		return
	}

	rows := tick.View
	if len(rows) > limit {
		rows = rows[:limit]
	}

	errors.WriteSuccessWithHeaders(w, h.logger, map[string]any{
		"records":  rows,
		"returned": len(rows),
		"matched":  len(tick.View),
		"total":    tick.TotalRecords,
	}, noStore, observability.GetRequestID(r.Context()))
}

// HandleNotFound answers unknown API paths with the JSON error envelope.
func (h *APIHandlers) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	errors.WriteError(w, h.logger, errors.NotFound("No such endpoint: "+r.URL.Path), observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, h.logger, healthData, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.dashboard.Stats(r.Context())

	errors.WriteSuccess(w, h.logger, stats, observability.GetRequestID(r.Context()))
}

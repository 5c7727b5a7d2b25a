package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"appliance-dashboard/internal/errors"
	"appliance-dashboard/internal/observability"
	"appliance-dashboard/internal/services"
	"appliance-dashboard/internal/ui/templates"
	"github.com/starfederation/datastar-go/datastar"
)

const refreshLayout = "2006-01-02 15:04:05"

type SSEHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
	maxRows   int
}

func NewSSEHandlers(dashboard *services.Dashboard, logger *slog.Logger, maxRows int) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		logger:    logger,
		maxRows:   maxRows,
	}
}

// tick computes the snapshot before the stream is opened so failures can
// still be reported with a proper status code.
func (h *SSEHandlers) tick(w http.ResponseWriter, r *http.Request) (*services.Tick, bool) {
	requestID := observability.GetRequestID(r.Context())

	in, err := selectionFromSignals(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return nil, false
	}

	tick, err := h.dashboard.Tick(r.Context(), in)
	if err != nil {
		errors.WriteError(w, h.logger, tickError(err), requestID)
		return nil, false
	}
	return tick, true
}

func chartSignals(tick *services.Tick) ([]byte, error) {
	return json.Marshal(map[string]any{
		"_categorySales": tick.CategorySales,
		"_salesTrend":    tick.SalesTrend,
		"_ratingBins":    tick.RatingBins,
	})
}

func (h *SSEHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	tick, ok := h.tick(w, r)
	if !ok {
		return
	}
	sse := datastar.NewSSE(w, r)

	if err := sse.PatchElementTempl(templates.KPITiles(tick.Display)); err != nil {
		h.logger.Error("patch kpi tiles", "error", err)
		return
	}

	flush(w)
}

func (h *SSEHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	tick, ok := h.tick(w, r)
	if !ok {
		return
	}

	jsonData, err := chartSignals(tick)
	if err != nil {
		h.logger.Error("marshal chart data", "error", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchSignals(jsonData); err != nil {
		h.logger.Error("patch chart signals", "error", err)
		return
	}

	flush(w)
}

func (h *SSEHandlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	tick, ok := h.tick(w, r)
	if !ok {
		return
	}
	sse := datastar.NewSSE(w, r)

	if err := sse.PatchElementTempl(templates.RecordsTable(tick.View, tick.TotalRecords, h.maxRows)); err != nil {
		h.logger.Error("patch records table", "error", err)
		return
	}

	flush(w)
}

// HandleRefresh pushes every panel plus the refresh timestamp in one stream.
func (h *SSEHandlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	tick, ok := h.tick(w, r)
	if !ok {
		return
	}

	charts, err := chartSignals(tick)
	if err != nil {
		h.logger.Error("marshal chart data", "error", err)
		return
	}
	stamp, err := json.Marshal(map[string]string{
		"lastRefresh": tick.GeneratedAt.Local().Format(refreshLayout),
	})
	if err != nil {
		h.logger.Error("marshal refresh stamp", "error", err)
		return
	}

	sse := datastar.NewSSE(w, r)

	if err := sse.PatchElementTempl(templates.KPITiles(tick.Display)); err != nil {
		h.logger.Error("patch kpi tiles", "error", err)
		return
	}
	if err := sse.PatchSignals(charts); err != nil {
		h.logger.Error("patch chart signals", "error", err)
		return
	}
	if err := sse.PatchElementTempl(templates.RecordsTable(tick.View, tick.TotalRecords, h.maxRows)); err != nil {
		h.logger.Error("patch records table", "error", err)
		return
	}
	if err := sse.PatchSignals(stamp); err != nil {
		h.logger.Error("patch refresh stamp", "error", err)
		return
	}

	h.logger.Debug("dashboard refreshed",
		"matched", len(tick.View),
		"total", tick.TotalRecords,
		"elapsed", time.Since(tick.GeneratedAt),
	)

	flush(w)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

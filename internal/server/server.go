package server

import (
	"log/slog"
	"net/http"

	"appliance-dashboard/internal/handlers"
	"appliance-dashboard/internal/services"
)

type Server struct {
	dashboard   *services.Dashboard
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

// NewServer wires every route. maxRows caps the detail table and the records API.
func NewServer(dashboard *services.Dashboard, logger *slog.Logger, templateHandlers *TemplateHandlers, maxRows int) *Server {
	s := &Server{
		dashboard:   dashboard,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(dashboard, logger, maxRows),
		sseHandlers: handlers.NewSSEHandlers(dashboard, logger, maxRows),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilters)
	s.mux.HandleFunc("GET /api/kpis", s.apiHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /api/charts/category-sales", s.apiHandlers.HandleCategorySales)
	s.mux.HandleFunc("GET /api/charts/sales-trend", s.apiHandlers.HandleSalesTrend)
	s.mux.HandleFunc("GET /api/charts/rating-distribution", s.apiHandlers.HandleRatingDistribution)
	s.mux.HandleFunc("GET /api/records", s.apiHandlers.HandleRecords)
	s.mux.HandleFunc("GET /api/", s.apiHandlers.HandleNotFound)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/kpis", s.sseHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /sse/charts", s.sseHandlers.HandleCharts)
	s.mux.HandleFunc("GET /sse/records", s.sseHandlers.HandleRecords)
	s.mux.HandleFunc("GET /sse/refresh", s.sseHandlers.HandleRefresh)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

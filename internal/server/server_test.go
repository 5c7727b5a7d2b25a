package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"appliance-dashboard/internal/config"
	"appliance-dashboard/internal/models"
	"appliance-dashboard/internal/services"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer() *Server {
	records := []models.SalesRecord{
		{Category: "Refrigeradores", Region: "Norte", SaleDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), SalesAmount: 1500, UnitsSold: 3, UnitPrice: 500, UnitCost: 350, InventoryLevel: 30, CustomerRating: 4.5},
		{Category: "Lavadoras", Region: "Sur", SaleDate: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), SalesAmount: 800, UnitsSold: 2, UnitPrice: 400, UnitCost: 300, InventoryLevel: 20, ReturnsCount: 1, CustomerRating: 3.8},
	}
	dashboard := services.NewDashboard(services.StaticSource{Data: services.NewDataset("memory", records)}, services.WithLogger(quietLogger()))
	page := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dashboard"))
	}
	return NewServer(dashboard, quietLogger(), &TemplateHandlers{Dashboard: page}, 100)
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		path        string
		contentType string
	}{
		{"/", ""},
		{"/health", "application/json"},
		{"/admin/stats", "application/json"},
		{"/api/filters", "application/json"},
		{"/api/kpis", "application/json"},
		{"/api/charts/category-sales", "application/json"},
		{"/api/charts/sales-trend", "application/json"},
		{"/api/charts/rating-distribution", "application/json"},
		{"/api/records?limit=1", "application/json"},
		{"/sse/kpis", "text/event-stream"},
		{"/sse/charts", "text/event-stream"},
		{"/sse/records", "text/event-stream"},
		{"/sse/refresh", "text/event-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
			}
			if tt.contentType != "" && !strings.Contains(w.Header().Get("Content-Type"), tt.contentType) {
				t.Errorf("expected content-type %q, got %q", tt.contentType, w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestServer_JSONResponse(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/kpis?region=Sur", nil))

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			Display models.KPIDisplay `json:"display"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if !response.Success || response.Data.Display.TotalSales != "$800.00" {
		t.Errorf("unexpected response %+v", response)
	}
}

func TestServer_ErrorHandling(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/nonexistent", http.StatusNotFound},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
		{http.MethodPost, "/api/kpis", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/sse/refresh", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/kpis?end=tomorrow", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func testConfig() *config.Config {
	return &config.Config{Server: config.ServerConfig{ShutdownTimeout: 2 * time.Second}}
}

func TestGracefulServer_RunsHooksOnCancel(t *testing.T) {
	httpServer := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	gs := NewGracefulServer(httpServer, quietLogger(), testConfig())

	var ran atomic.Int32
	gs.RegisterShutdownHook("first", func(context.Context) error { ran.Add(1); return nil })
	gs.RegisterShutdownHook("second", func(context.Context) error { ran.Add(1); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if ran.Load() != 2 {
		t.Errorf("expected 2 hooks to run, got %d", ran.Load())
	}
}

func TestGracefulServer_HookErrors(t *testing.T) {
	httpServer := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	gs := NewGracefulServer(httpServer, quietLogger(), testConfig())

	boom := stderrors.New("boom")
	gs.RegisterShutdownHook("failing", func(context.Context) error { return boom })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := gs.Run(ctx)
	if !stderrors.Is(err, boom) {
		t.Errorf("expected hook error, got %v", err)
	}
}

func TestGracefulServer_ListenError(t *testing.T) {
	httpServer := &http.Server{Addr: "256.0.0.1:bad", Handler: http.NotFoundHandler()}
	gs := NewGracefulServer(httpServer, quietLogger(), testConfig())

	if err := gs.Run(context.Background()); err == nil {
		t.Error("expected listen error")
	}
}

package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"appliance-dashboard/internal/config"
	"appliance-dashboard/internal/models"
)

const testCSV = `categoria,region,fecha_venta,ventas,unidades_vendidas,precio_venta,costo,inventario,devoluciones,calificacion_cliente
Refrigeradores,Norte,2024-01-05,1500,3,500,350,30,0,4.5
Lavadoras,Sur,2024-01-06,800,2,400,300,20,1,3.8
Lavadoras,Norte,2024-01-07,1200,3,400,300,0,0,4.1
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T, csv string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom("")
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	cfg.Database.CSVFile = csv
	cfg.Security.EnableRateLimit = false
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRootCmd(t *testing.T) {
	root := newRootCmd()

	if root.Use != "appliance-dashboard" {
		t.Errorf("unexpected Use %q", root.Use)
	}
	for _, name := range []string{"serve", "summary"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("expected %s subcommand", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil || root.PersistentFlags().Lookup("csv") == nil {
		t.Error("expected --config and --csv flags")
	}
}

func TestHandler_DashboardPage(t *testing.T) {
	cfg := testConfig(t, writeCSV(t, testCSV))
	dashboard, _, err := buildDashboard(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	newHandler(dashboard, cfg, quietLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("middleware chain should assign a request id")
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected cache-control 'no-store', got %q", cc)
	}

	body := w.Body.String()
	for _, want := range []string{"Appliance Sales Dashboard", "$3,500.00", "Lavadoras", "data-on-interval__duration.60s"} {
		if !strings.Contains(body, want) {
			t.Errorf("page should contain %q", want)
		}
	}
}

func TestHandler_DashboardUnavailable(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing.csv"))
	dashboard, _, err := buildDashboard(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	dashboardHandler(dashboard, cfg, quietLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestHandler_PicksUpFileChanges(t *testing.T) {
	path := writeCSV(t, testCSV)
	cfg := testConfig(t, path)
	dashboard, cache, err := buildDashboard(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	handler := newHandler(dashboard, cfg, quietLogger())

	get := func() string {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/kpis", nil))
		return w.Body.String()
	}

	if body := get(); !strings.Contains(body, "$3,500.00") {
		t.Fatalf("unexpected first response %s", body)
	}

	updated := testCSV + "Microondas,Este,2024-01-08,500,5,100,60,10,0,4.0\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	if body := get(); !strings.Contains(body, "$4,000.00") {
		t.Errorf("expected refreshed totals, got %s", body)
	}
	if loads := cache.Stats().Loads; loads != 2 {
		t.Errorf("expected 2 loads, got %d", loads)
	}
}

func TestWarmUp(t *testing.T) {
	good := testConfig(t, writeCSV(t, testCSV))
	dashboard, _, _ := buildDashboard(good, quietLogger())
	if err := warmUp(dashboard, good.Database.CSVFile, quietLogger()); err != nil {
		t.Errorf("warmUp() error = %v", err)
	}

	bad := testConfig(t, writeCSV(t, "categoria,region\nA,B\n"))
	dashboard, _, _ = buildDashboard(bad, quietLogger())
	if err := warmUp(dashboard, bad.Database.CSVFile, quietLogger()); err == nil {
		t.Error("warmUp() should fail on a bad schema")
	}
}

func TestSummaryCommand(t *testing.T) {
	path := writeCSV(t, testCSV)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"everything", []string{"summary", "--csv", path}, []string{"3 of 3 rows", "$3,500.00"}},
		{"one region", []string{"summary", "--csv", path, "--region", "Sur"}, []string{"1 of 3 rows", "$800.00"}},
		{"date window", []string{"summary", "--csv", path, "--start", "2024-01-06", "--end", "2024-01-07"}, []string{"2 of 3 rows", "$2,000.00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			root := newRootCmd()
			root.SetOut(&out)
			root.SetErr(io.Discard)
			root.SetArgs(tt.args)

			if err := root.Execute(); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("summary should contain %q, got:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestSummaryCommand_InvalidDate(t *testing.T) {
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"summary", "--csv", writeCSV(t, testCSV), "--start", "January"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid selection") {
		t.Errorf("expected invalid selection error, got %v", err)
	}
}

func TestBuildDashboard_UsesConfig(t *testing.T) {
	cfg := testConfig(t, writeCSV(t, testCSV))
	cfg.Dashboard.HistogramBins = 4

	dashboard, _, err := buildDashboard(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	tick, err := dashboard.Tick(t.Context(), models.SelectionInput{})
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if len(tick.RatingBins) != 4 {
		t.Errorf("expected 4 rating bins, got %d", len(tick.RatingBins))
	}
}

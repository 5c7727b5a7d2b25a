package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{BadRequest("x"), http.StatusBadRequest},
		{NotFound("x"), http.StatusNotFound},
		{RateLimit("x"), http.StatusTooManyRequests},
		{DataUnavailable(nil, "x"), http.StatusServiceUnavailable},
		{Internal("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if tt.err.StatusCode != tt.want {
			t.Errorf("%s status = %d, want %d", tt.err.Code, tt.err.StatusCode, tt.want)
		}
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := stderrors.New("disk gone")
	err := DataUnavailable(cause, "dataset unavailable")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match its cause")
	}
	if err.Error() != "DATA_UNAVAILABLE: dataset unavailable (caused by: disk gone)" {
		t.Errorf("Error() = %q", err.Error())
	}

	detailed := err.WithDetails("missing column")
	if detailed.Details != "missing column" || err.Details != "" {
		t.Error("WithDetails should copy, not mutate")
	}
}

func TestWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("app error", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, logger, BadRequest("bad date"), "req-1")

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
		var resp map[string]any
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if resp["success"] != false {
			t.Error("expected success=false")
		}
		body := resp["error"].(map[string]any)
		if body["code"] != string(CodeBadRequest) || body["request_id"] != "req-1" {
			t.Errorf("unexpected error body %v", body)
		}
	})

	t.Run("wrapped app error", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, logger, fmt.Errorf("context: %w", BadRequest("nope")), "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("plain error", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, logger, stderrors.New("boom"), "")
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
	})
}

func TestWriteSuccessWithHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessWithHeaders(w, slog.New(slog.NewTextHandler(io.Discard, nil)), []int{1, 2}, map[string]string{"Cache-Control": "no-store"}, "")

	if w.Header().Get("Cache-Control") != "no-store" {
		t.Error("custom header not set")
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Error("content type not set")
	}
	var resp SuccessResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
}

func TestWriteSuccess_UnencodablePayload(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	w := httptest.NewRecorder()
	WriteSuccess(w, logger, map[string]float64{"rate": math.NaN()}, "req-9")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if resp["success"] != false {
		t.Error("expected success=false")
	}
	if !strings.Contains(logs.String(), "request failed") || !strings.Contains(logs.String(), "req-9") {
		t.Errorf("encode failure not logged: %q", logs.String())
	}
}

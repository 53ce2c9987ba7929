package opsserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestEcho() *echo.Echo {
	return New(":0", prometheus.NewRegistry(), slog.Default()).echo
}

func TestHealthzReportsOK(t *testing.T) {
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) == "" {
		t.Error("expected a non-empty response body")
	}
}

func TestNewBuildsServerWithoutStarting(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(":0", reg, slog.Default())
	if s.echo == nil {
		t.Fatal("expected an initialized echo instance")
	}
}

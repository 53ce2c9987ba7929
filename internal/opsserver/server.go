// Package opsserver runs the ambient HTTP surface for a shuttle process:
// a liveness endpoint and a Prometheus scrape endpoint. Grounded on the
// echo wiring the connector SDK uses for its own HTTP surface
// (sdk/validate.go's StrictJSONSerializer/DefaultValidator), generalized
// here to a minimal ops server instead of a connector management API.
package opsserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the optional /healthz and /metrics HTTP surface, enabled when
// RunConfig.OpsListenAddr is non-empty.
type Server struct {
	echo   *echo.Echo
	addr   string
	logger *slog.Logger
}

// New builds a Server bound to addr, scraping registry for /metrics.
func New(addr string, registry *prometheus.Registry, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = StrictJSONSerializer{}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return &Server{echo: e, addr: addr, logger: logger}
}

// Start runs the server in a background goroutine and returns immediately.
// Serve errors other than a clean shutdown are logged.
func (s *Server) Start() {
	go func() {
		if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
			s.logger.Error("ops server stopped unexpectedly", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// StrictJSONSerializer mirrors the SDK's encoding/json-based serializer so
// ops responses follow the same JSON conventions as the rest of the stack.
type StrictJSONSerializer struct{}

func (StrictJSONSerializer) Serialize(c echo.Context, i any, indent string) error {
	return echo.DefaultJSONSerializer{}.Serialize(c, i, indent)
}

func (StrictJSONSerializer) Deserialize(c echo.Context, i any) error {
	return echo.DefaultJSONSerializer{}.Deserialize(c, i)
}

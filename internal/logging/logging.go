// Package logging builds the run's base slog.Logger and a handler that
// tees WARN/ERROR records into the notify.ErrorTracker, grounded on
// sdk/client.go's LevelVar/slog.NewJSONHandler setup and the
// record-forwarding shape of sdk/events/logger.go's LogHandler.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/glimps-re/shuttle/internal/config"
	"github.com/glimps-re/shuttle/internal/notify"
)

// New builds the run logger per cfg.LogLevel/cfg.LogFormat, writing to w
// (os.Stdout in production, a pipe in tests). When tracker is non-nil,
// WARN and ERROR records are also recorded into it under errType, even
// when the emitting code never called tracker.Record directly. The
// orchestrator's summary notification does not include these records.
func New(cfg config.RunConfig, w *os.File, tracker *notify.ErrorTracker, errType notify.ErrorType) *slog.Logger {
	level := &slog.LevelVar{}
	level.Set(cfg.SlogLevel().Level())

	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if cfg.LogFormat == "text" {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}

	if tracker == nil {
		return slog.New(base)
	}
	return slog.New(&trackingHandler{base: base, tracker: tracker, errType: errType})
}

// trackingHandler forwards every record to base and additionally records
// WARN/ERROR messages into the shared ErrorTracker.
type trackingHandler struct {
	base    slog.Handler
	tracker *notify.ErrorTracker
	errType notify.ErrorType
}

func (h *trackingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *trackingHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= slog.LevelWarn {
		h.tracker.Record(h.errType, fmt.Sprintf("%s: %s", record.Level, record.Message))
	}
	return h.base.Handle(ctx, record)
}

func (h *trackingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &trackingHandler{base: h.base.WithAttrs(attrs), tracker: h.tracker, errType: h.errType}
}

func (h *trackingHandler) WithGroup(name string) slog.Handler {
	return &trackingHandler{base: h.base.WithGroup(name), tracker: h.tracker, errType: h.errType}
}

package cli

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/roach88/form/internal/config"
)

// RunIDGenerator produces the id attached to every log record and JSON
// response of one invocation.
type RunIDGenerator interface {
	Generate() string
}

// uuidRunIDs generates time-ordered UUIDv7 run ids.
type uuidRunIDs struct{}

func (uuidRunIDs) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewLogger returns a slog logger writing human-readable records to w.
// Records below level are dropped; unknown levels fall back to info.
func NewLogger(w io.Writer, level, runID string) *slog.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Prefix: config.AppName,
		Level:  lvl,
	})
	logger := slog.New(handler)
	if runID != "" {
		logger = logger.With("run_id", runID)
	}
	return logger
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

package cli

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info", "run-9")

	logger.Debug("hidden")
	logger.Info("creating directory", "dir", "/out/a")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "creating directory")
	assert.Contains(t, out, "dir=/out/a")
	assert.Contains(t, out, "run_id=run-9")
	assert.Contains(t, out, "form")
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"error", false, false},
		{"unknown", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.level, "")

			logger.Debug("debug record")
			logger.Info("info record")

			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug record")))
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info record")))
			assert.NotContains(t, buf.String(), "run_id", "an empty run id is not attached")
		})
	}
}

func TestUUIDRunIDs(t *testing.T) {
	gen := uuidRunIDs{}

	first := gen.Generate()
	second := gen.Generate()
	assert.NotEqual(t, first, second)

	id, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

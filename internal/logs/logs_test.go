package logs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/consultation-scheduling/internal/config"
)

func TestJSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(config.Config{Env: "prod", LogLevel: "info"}, &buf))

	logger.Info("appointment scheduled", slog.String("appointment_id", "CON-001"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "appointment scheduled", rec["msg"])
	assert.Equal(t, "CON-001", rec["appointment_id"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(config.Config{Env: "dev", LogLevel: "warn"}, &buf))

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestFileOutput(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "api.log")
	logger := slog.New(newHandler(config.Config{Env: "prod", LogFile: path}, &buf))

	logger.Info("to both")
	assert.FileExists(t, path)
	assert.Contains(t, buf.String(), "to both")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}

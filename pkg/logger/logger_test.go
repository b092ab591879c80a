package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel("warning"))
	require.Equal(t, slog.LevelError, parseLevel(" error "))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestNewWriterJSONTagsService(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "info", "")
	log.Debug("hidden")
	log.Info("chart rendered", "houses", 12)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "kundali-web", entry["service"])
	require.Equal(t, "chart rendered", entry["msg"])
	require.EqualValues(t, 12, entry["houses"])
}

func TestNewWriterText(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "warn", "TEXT").Warn("backend slow")
	require.Contains(t, buf.String(), "msg=\"backend slow\"")
	require.Contains(t, buf.String(), "service=kundali-web")
}

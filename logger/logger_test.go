package logger_test

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/taproom/logger"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logger.ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taproom.log")
	log, err := logger.New(logger.Config{Level: "warn", Format: "json", Output: path, Component: "taproom"})
	require.NoError(t, err)

	log.Info("dropped below level")
	log.WithComponent("api").Warn("kept", "item_id", "beer")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(data, &line), "exactly one JSON line: %s", data)
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "beer", line["item_id"])
	assert.Equal(t, "api", line["component"])
}

func TestNew_Rejects(t *testing.T) {
	_, err := logger.New(logger.Config{Level: "info", Format: "xml"})
	assert.Error(t, err)

	_, err = logger.New(logger.Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	log := logger.Discard()
	log.Error("nowhere")
	assert.NoError(t, log.Close())
}

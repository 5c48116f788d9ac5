package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, "json")
	logger.Debug("hidden")
	logger.Info("session created", "game", "quiz")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "session created", line["msg"])
	assert.Equal(t, "quiz", line["game"])
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn, "text")
	logger.Info("hidden")
	logger.Warn("remote game call failed", "game", "quiz")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "remote game call failed")
	assert.Contains(t, out, "game=quiz")
}

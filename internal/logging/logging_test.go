package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWriter(&buf, "debug", "json")
	require.NoError(t, err)

	l := Component(log, "engine")
	l.Info().Int("base", 109).Msg("generated")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "engine", line["component"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, float64(109), line["base"])
	assert.Contains(t, line, "time")
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWriter(&buf, "WARN", "json")
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWriter(&buf, "", "console")
	require.NoError(t, err)

	log.Info().Msg("ready")
	out := buf.String()
	assert.Contains(t, out, "ready")
	assert.False(t, strings.HasPrefix(out, "{"), out)
}

func TestInvalidConfig(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, "loud", "json")
	assert.ErrorContains(t, err, "level")

	_, err = NewWriter(&bytes.Buffer{}, "info", "xml")
	assert.ErrorContains(t, err, "unknown format")
}

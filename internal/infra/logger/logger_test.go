package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_ProdIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	log.Debug("hidden")
	log.Info("pricing done", "concept_id", 7)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "pricing done", rec["msg"])
	assert.Equal(t, service, rec["service"])
	assert.Equal(t, float64(7), rec["concept_id"])
}

func TestNewLogger_DevEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev")

	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
	log.Debug("row matched", "score", 0.5)
	assert.Contains(t, buf.String(), "msg=\"row matched\"")
	assert.Contains(t, buf.String(), "service="+service)
}

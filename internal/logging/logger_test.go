package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadripper/internal/config"
)

func TestNewLevelAndFormat(t *testing.T) {
	l := New(config.LoggingConfig{Level: "debug", Format: "json"})
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	l = New(config.LoggingConfig{Level: "loud"})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel(), "unknown level falls back to info")
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
}

func TestLogErrorFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(config.LoggingConfig{Format: "json"})
	l.SetOutput(&buf)

	LogError(l, "create_job", errors.New("db down"), map[string]interface{}{"job_id": "j1"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "create_job", entry["error_type"])
	assert.Equal(t, "db down", entry["error"])
	assert.Equal(t, "j1", entry["job_id"])
	assert.Equal(t, "error", entry["level"])
}

func TestInitSentryWithoutDSN(t *testing.T) {
	assert.NoError(t, InitSentry("", "test"))
}

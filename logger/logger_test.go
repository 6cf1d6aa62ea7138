package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ESTATE_ENVIRONMENT", "production")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel())

	t.Setenv("ESTATE_ENVIRONMENT", "development")
	assert.Equal(t, zerolog.DebugLevel, getLogLevel())

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, zerolog.WarnLevel, getLogLevel())

	t.Setenv("LOG_LEVEL", "nonsense")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel())
}

func TestWithFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	l := New(&buf).WithFields(Fields{"scraper": "flats/riga"}).WithError(errors.New("boom"))
	l.Info().Msg("scraped")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "flats/riga", line["scraper"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "scraped", line["message"])
}

func TestScopedLoggers(t *testing.T) {
	var buf bytes.Buffer
	prev := Default
	Default = New(&buf)
	defer func() { Default = prev }()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	ForStore().Info().Msg("stored")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "store", line["component"])

	buf.Reset()
	LogError("worker", errors.New("failed"), "cycle %d", 3)
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "worker", line["component"])
	assert.Equal(t, "cycle 3", line["message"])
	assert.Equal(t, "error", line["level"])
}

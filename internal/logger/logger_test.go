package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("console output", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger, err := New(Config{Level: "info", Console: true, Out: buf})
		require.NoError(t, err)
		defer logger.Close()

		logger.Info().Str("tool", "echo").Msg("Tool execution finished")

		assert.Contains(t, buf.String(), `"tool":"echo"`)
		assert.Contains(t, buf.String(), "Tool execution finished")
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "logs", "llm-functions.log")

		logger, err := New(Config{Level: "debug", File: logFile})
		require.NoError(t, err)

		logger.Debug().Msg("to file")
		require.NoError(t, logger.Close())
		assert.NoError(t, logger.Close())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "to file")
	})

	t.Run("no writers", func(t *testing.T) {
		logger, err := New(Config{Level: "info"})
		require.NoError(t, err)
		defer logger.Close()

		logger.Info().Msg("discarded")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logger, err := New(Config{Level: "loud"})
		require.NoError(t, err)
		defer logger.Close()

		assert.Equal(t, zerolog.InfoLevel, logger.GetZerolog().GetLevel())
	})

	t.Run("installs global logger", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger, err := New(Config{Level: "warn", Console: true, Out: buf})
		require.NoError(t, err)
		defer logger.Close()

		log.Warn().Msg("from global")
		assert.Contains(t, buf.String(), "from global")
	})
}

func TestNew_Redaction(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{
		Level:          "warn",
		Console:        true,
		Redaction:      true,
		RedactPatterns: []string{`internal-[0-9]{6}`},
		Out:            buf,
	})
	require.NoError(t, err)
	defer logger.Close()

	logger.Info().Msg("hidden")
	logger.Warn().
		Str("key", "sk-test123456789abcdefghijklmnopqrstuvwxyz").
		Str("ticket", "internal-123456").
		Msg("visible")

	output := buf.String()
	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, "visible")
	assert.Contains(t, output, "[REDACTED]")
	assert.NotContains(t, output, "sk-test123456789")
	assert.NotContains(t, output, "internal-123456")
}

func TestNew_InvalidRedactPattern(t *testing.T) {
	_, err := New(Config{Redaction: true, RedactPatterns: []string{`[unclosed`}})
	assert.Error(t, err)
}

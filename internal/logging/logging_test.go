package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "webgrab.log")

	logger, closer, err := New(Options{Level: "info", File: file, Console: &console, NoColor: true})
	require.NoError(t, err)

	logger.Info().Str("url", "http://example.test/a.mkv").Msg("Found file")
	logger.Debug().Msg("hidden")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "INF")
	assert.Contains(t, console.String(), "Found file")
	assert.NotContains(t, console.String(), "hidden")

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"level":"info"`)
	assert.Contains(t, string(content), `"message":"Found file"`)
	assert.Contains(t, string(content), `"time":`)
}

func TestNew_AppendsToExistingFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "webgrab.log")
	require.NoError(t, os.WriteFile(file, []byte("previous\n"), 0644))

	logger, closer, err := New(Options{File: file})
	require.NoError(t, err)
	logger.Warn().Msg("second run")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("previous\n")))
	assert.Contains(t, string(content), "second run")
}

func TestNew_InvalidFile(t *testing.T) {
	_, _, err := New(Options{File: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		"WARNING": zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
	}
	for input, expected := range tests {
		level, err := ParseLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, level, input)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/KaramelBytes/pubsift-cli/internal/logging"
)

func TestConsoleDefaultsToWarn(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup, err := logging.New(logging.Options{Console: &buf})
	require.NoError(t, err)
	l.Info("quiet")
	l.Warn("loud")
	cleanup()
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestDebugFlagLowersLevel(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup, err := logging.New(logging.Options{Level: "error", Debug: true, Console: &buf})
	require.NoError(t, err)
	l.Debug("details")
	cleanup()
	assert.Contains(t, buf.String(), "details")
}

func TestFileCoreWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "pubsift.log")
	l, cleanup, err := logging.New(logging.Options{File: path, Console: &buf})
	require.NoError(t, err)
	l.Info("dataset loaded")
	cleanup()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"dataset loaded"`)
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	lvl, err := logging.ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)
	_, err = logging.ParseLevel("loud")
	assert.Error(t, err)
}

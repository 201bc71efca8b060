package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultExportFilename, c.ExportFilename)
	assert.Equal(t, 200, c.ListTitlesLimit)
	assert.Equal(t, 10, c.DefaultTopN)
	assert.Equal(t, "all", c.ChatScope)
	assert.Equal(t, DefaultServerAddr, c.ServerAddr)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	home := isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Set("dataset_path", "/data/pubs.csv"))
	require.NoError(t, c.Set("default_top_n", "5"))
	require.NoError(t, Save(c, ""))

	_, err = os.Stat(filepath.Join(home, ".pubsift", "config.yaml"))
	require.NoError(t, err)

	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/data/pubs.csv", again.DatasetPath)
	assert.Equal(t, 5, again.DefaultTopN)
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_top_n: 3\nchat_scope: filtered\n"), 0o644))
	t.Setenv("PUBSIFT_DEFAULT_TOP_N", "7")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, c.DefaultTopN)
	assert.Equal(t, "filtered", c.ChatScope)
}

func TestDotEnvIsLoaded(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PUBSIFT_SERVER_ADDR=0.0.0.0:9999\n"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("PUBSIFT_SERVER_ADDR")
	})

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", c.ServerAddr)
}

func TestInvalidValuesRejected(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chat_scope: everything\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	c := &Global{}
	assert.Error(t, c.Set("chat_scope", "some"))
	assert.Error(t, c.Set("list_titles_limit", "-1"))
	assert.Error(t, c.Set("nope", "x"))
	assert.NoError(t, c.Set("log_level", "DEBUG"))
	assert.Equal(t, "debug", c.LogLevel)
	assert.Contains(t, Keys(), "export_filename")
}

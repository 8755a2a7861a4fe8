package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"apkdrop/internal/structures"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileMissingReturnsEmpty(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, structures.Config{}, cfg)
}

func TestSaveFileRoundTripsAndRestrictsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apkdrop", "config.yaml")
	want := structures.Config{
		SendGridHook:    "https://example.test/send",
		SendGridAuth:    "secret",
		EmailFrom:       "release@example.test",
		CredentialsPath: "/etc/apkdrop/sa.json",
		HTTPTimeout:     90 * time.Second,
	}
	require.NoError(t, SaveFile(path, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadFileParsesDurationString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_timeout: 15s\nlog_level: debug\n"), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFileRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sendgrid_hook: [unterminated\n"), 0600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestApplyEnvOverridesFileValues(t *testing.T) {
	t.Setenv(EnvSendGridAuth, "from-env")
	t.Setenv(EnvEmailFrom, "  ")

	cfg := ApplyEnv(structures.Config{SendGridAuth: "from-file", EmailFrom: "file@example.test"})
	assert.Equal(t, "from-env", cfg.SendGridAuth)
	assert.Equal(t, "file@example.test", cfg.EmailFrom, "blank env values are ignored")
}

func TestWithDefaults(t *testing.T) {
	cfg := WithDefaults(structures.Config{SendGridAuthPrefix: "Token"})
	assert.Equal(t, DefaultSendGridHook, cfg.SendGridHook)
	assert.Equal(t, "Token", cfg.SendGridAuthPrefix)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
}

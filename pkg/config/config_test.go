package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Resolve reads so tests are isolated
// from the host environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		EnvAddr, EnvUsername, EnvPassword, EnvTenantID,
		EnvBearerToken, EnvBearerTokenFile,
		EnvCACertPath, EnvClientCertPath, EnvClientKeyPath,
		EnvOrgID, EnvTLSSkipVerify, EnvConfigPath,
	} {
		t.Setenv(name, "")
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolveFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAddr, "http://loki:3100")
	t.Setenv(EnvUsername, "admin")
	t.Setenv(EnvTLSSkipVerify, "true")

	cfg := Resolve(zerolog.Nop())

	assert.Equal(t, "http://loki:3100", cfg.Addr)
	assert.Equal(t, "admin", cfg.Username)
	assert.True(t, cfg.TLSSkipVerify)
	assert.Empty(t, cfg.Password)
}

func TestResolveEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, "addr: http://file:3100\nusername: fileuser\ntenant_id: team-a\n")
	t.Setenv(EnvConfigPath, path)
	t.Setenv(EnvAddr, "http://env:3100")

	cfg := Resolve(zerolog.Nop())

	// Env wins per field; file fields not present in env are retained.
	assert.Equal(t, "http://env:3100", cfg.Addr)
	assert.Equal(t, "fileuser", cfg.Username)
	assert.Equal(t, "team-a", cfg.TenantID)
}

func TestResolveSkipsUnparsableFile(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, "addr: [not: valid: yaml\n")
	t.Setenv(EnvConfigPath, path)
	t.Setenv(EnvAddr, "http://env:3100")

	cfg := Resolve(zerolog.Nop())

	assert.Equal(t, "http://env:3100", cfg.Addr)
	assert.Empty(t, cfg.Username)
}

func TestResolveMissingFileIsNotFatal(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	cfg := Resolve(zerolog.Nop())

	assert.NotNil(t, cfg)
	assert.Empty(t, cfg.Addr)
}

func TestResolveTLSSkipVerifyFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, "tls_skip_verify: true\n")
	t.Setenv(EnvConfigPath, path)

	cfg := Resolve(zerolog.Nop())

	assert.True(t, cfg.TLSSkipVerify)
}

func TestRedacted(t *testing.T) {
	cfg := &Config{
		Addr:        "http://loki:3100",
		Username:    "admin",
		Password:    "hunter2",
		BearerToken: "secret-token",
		TenantID:    "team-a",
	}

	redacted := cfg.Redacted()

	assert.Empty(t, redacted.Password)
	assert.Empty(t, redacted.BearerToken)
	assert.Equal(t, "http://loki:3100", redacted.Addr)
	assert.Equal(t, "admin", redacted.Username)
	assert.Equal(t, "team-a", redacted.TenantID)

	// The original is untouched.
	assert.Equal(t, "hunter2", cfg.Password)
}

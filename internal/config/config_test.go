package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, noEnv)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, int64(4<<20), cfg.MaxBodyBytes)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout.Duration)
	assert.Empty(t, cfg.Hooks)
	assert.False(t, cfg.TLSEnabled())
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load([]string{
		"--addr", "127.0.0.1:9443",
		"--log-level", "debug",
		"--log-format", "console",
		"--hooks", "indexedjob, daemonjob,,",
		"--read-timeout", "3s",
	}, noEnv)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9443", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, []string{"indexedjob", "daemonjob"}, cfg.Hooks)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout.Duration)
}

func TestLoad_FileThenFlagsThenEnv(t *testing.T) {
	path := writeFile(t, `
addr: ":7000"
logLevel: warn
hooks: [configmappropagation]
maxBodyBytes: 1024
writeTimeout: 45s
`)

	t.Run("file overrides defaults", func(t *testing.T) {
		cfg, err := Load([]string{"--config", path}, noEnv)
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.Addr)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, []string{"configmappropagation"}, cfg.Hooks)
		assert.Equal(t, int64(1024), cfg.MaxBodyBytes)
		assert.Equal(t, 45*time.Second, cfg.WriteTimeout.Duration)
		assert.Equal(t, "json", cfg.LogFormat, "fields absent from the file keep defaults")
	})

	t.Run("explicit flags override file", func(t *testing.T) {
		cfg, err := Load([]string{"--log-level", "error", "--config", path}, noEnv)
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.LogLevel)
		assert.Equal(t, ":7000", cfg.Addr)
	})

	t.Run("environment overrides flags", func(t *testing.T) {
		cfg, err := Load([]string{"--config", path, "--addr", ":7001"},
			envOf(map[string]string{EnvAddr: ":7002", EnvLogLevel: "debug"}))
		require.NoError(t, err)
		assert.Equal(t, ":7002", cfg.Addr)
		assert.Equal(t, "debug", cfg.LogLevel)
	})
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		file    string
		env     map[string]string
		wantErr string
	}{
		{name: "unknown flag", args: []string{"--nope"}, wantErr: "nope"},
		{name: "bad level", args: []string{"--log-level", "loud"}, wantErr: "LogLevel"},
		{name: "bad format", args: []string{"--log-format", "xml"}, wantErr: "LogFormat"},
		{name: "bad addr", args: []string{"--addr", "8080"}, wantErr: "addr"},
		{name: "bad metrics addr", args: []string{"--metrics-addr", "metrics"}, wantErr: "metricsAddr"},
		{name: "zero body", args: []string{"--max-body-bytes", "0"}, wantErr: "MaxBodyBytes"},
		{name: "cert without key", args: []string{"--tls-cert-file", "/tls/cert.pem"}, wantErr: "TLSKeyFile"},
		{name: "self-signed and files", args: []string{"--self-signed", "--tls-cert-file", "a", "--tls-key-file", "b"}, wantErr: "mutually exclusive"},
		{name: "self-signed without service", args: []string{"--self-signed", "--service-name", ""}, wantErr: "ServiceName"},
		{name: "env level", env: map[string]string{EnvLogLevel: "trace"}, wantErr: "LogLevel"},
		{name: "unknown file field", file: "adress: \":1\"\n", wantErr: "adress"},
		{name: "missing file", args: []string{"--config", "/does/not/exist.yaml"}, wantErr: "reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if tt.file != "" {
				args = append([]string{"--config", writeFile(t, tt.file)}, args...)
			}
			_, err := Load(args, envOf(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_SelfSigned(t *testing.T) {
	cfg, err := Load([]string{"--self-signed", "--ca-bundle-file", "/tmp/ca.pem"}, noEnv)
	require.NoError(t, err)
	assert.True(t, cfg.TLSEnabled())
	assert.Equal(t, "synchook", cfg.ServiceName)
	assert.Equal(t, "synchook-system", cfg.Namespace)
}

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, splitCSV(""))
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a ,, b "))
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := NewLogger("debug", format)
		require.NoError(t, err, format)
		assert.True(t, logger.Core().Enabled(-1), "debug must be enabled")
	}

	logger, err := NewLogger("warn", "json")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(0), "info must be disabled at warn")

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)
}

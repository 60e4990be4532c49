package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/platinummonkey/protobridge/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "PROTOBRIDGE_TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "PROTOBRIDGE_TEST_VAR_NOT_SET",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}
			assert.Equal(t, tt.want, getEnv(tt.key, tt.defaultValue))
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{name: "true", envValue: "true", want: true},
		{name: "TRUE", envValue: "TRUE", want: true},
		{name: "1", envValue: "1", want: true},
		{name: "yes", envValue: "yes", want: true},
		{name: "on", envValue: "on", want: true},
		{name: "false", defaultValue: true, envValue: "false", want: false},
		{name: "garbage", defaultValue: true, envValue: "nope", want: false},
		{name: "unset uses default", defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("PROTOBRIDGE_TEST_BOOL", tt.envValue)
			}
			assert.Equal(t, tt.want, getEnvBool("PROTOBRIDGE_TEST_BOOL", tt.defaultValue))
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("PROTOBRIDGE_TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, getEnvDuration("PROTOBRIDGE_TEST_DURATION", 0))

	t.Setenv("PROTOBRIDGE_TEST_DURATION", "not-a-duration")
	assert.Equal(t, time.Minute, getEnvDuration("PROTOBRIDGE_TEST_DURATION", time.Minute))
}

func clearBridgeEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PROTOBRIDGE_SHELL",
		"PROTOBRIDGE_KEEP_TEMP",
		"PROTOBRIDGE_TEMP_DIR",
		"PROTOBRIDGE_TIMEOUT",
		"PROTOBRIDGE_PROTOC",
		"PROTOBRIDGE_LOG_LEVEL",
		"PROTOBRIDGE_LOG_FORMAT",
		"PROTOBRIDGE_METRICS_FILE",
		"PROTOBRIDGE_OTEL_ENABLED",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearBridgeEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultShell, cfg.Bridge.Shell)
	assert.False(t, cfg.Bridge.KeepTemp)
	assert.Empty(t, cfg.Bridge.TempDir)
	assert.Zero(t, cfg.Bridge.Timeout)
	assert.Equal(t, DefaultProtoc, cfg.Bridge.ProtocPath)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.Equal(t, observability.TextFormat, cfg.Observability.LogFormat)
	assert.False(t, cfg.Observability.OTelEnabled)
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearBridgeEnv(t)
	tmp := t.TempDir()

	t.Setenv("PROTOBRIDGE_SHELL", "/usr/bin/bash")
	t.Setenv("PROTOBRIDGE_KEEP_TEMP", "1")
	t.Setenv("PROTOBRIDGE_TEMP_DIR", tmp)
	t.Setenv("PROTOBRIDGE_TIMEOUT", "2m")
	t.Setenv("PROTOBRIDGE_PROTOC", "/opt/protoc/bin/protoc")
	t.Setenv("PROTOBRIDGE_LOG_LEVEL", "debug")
	t.Setenv("PROTOBRIDGE_LOG_FORMAT", "JSON")
	t.Setenv("PROTOBRIDGE_METRICS_FILE", filepath.Join(tmp, "m.prom"))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/bash", cfg.Bridge.Shell)
	assert.True(t, cfg.Bridge.KeepTemp)
	assert.Equal(t, tmp, cfg.Bridge.TempDir)
	assert.Equal(t, 2*time.Minute, cfg.Bridge.Timeout)
	assert.Equal(t, "/opt/protoc/bin/protoc", cfg.Bridge.ProtocPath)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.Equal(t, observability.JSONFormat, cfg.Observability.LogFormat)
	assert.Equal(t, filepath.Join(tmp, "m.prom"), cfg.Observability.MetricsFile)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Bridge: BridgeConfig{
				Shell:      DefaultShell,
				ProtocPath: DefaultProtoc,
			},
			Observability: ObservabilityConfig{
				LogFormat: observability.TextFormat,
			},
		}
	}

	notADir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notADir, nil, 0600))

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty shell", mutate: func(c *Config) { c.Bridge.Shell = "" }, wantErr: "shell is required"},
		{name: "relative shell", mutate: func(c *Config) { c.Bridge.Shell = "sh" }, wantErr: "absolute"},
		{name: "shell with args", mutate: func(c *Config) { c.Bridge.Shell = "/bin/sh -x" }, wantErr: "whitespace"},
		{name: "negative timeout", mutate: func(c *Config) { c.Bridge.Timeout = -time.Second }, wantErr: "negative"},
		{name: "missing temp dir", mutate: func(c *Config) { c.Bridge.TempDir = "/nonexistent/protobridge" }, wantErr: "temp dir"},
		{name: "temp dir is file", mutate: func(c *Config) { c.Bridge.TempDir = notADir }, wantErr: "not a directory"},
		{name: "empty protoc", mutate: func(c *Config) { c.Bridge.ProtocPath = "" }, wantErr: "protoc path"},
		{name: "bad log format", mutate: func(c *Config) { c.Observability.LogFormat = "xml" }, wantErr: "log format"},
		{
			name: "otel without endpoint",
			mutate: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelServiceName = "svc"
			},
			wantErr: "endpoint",
		},
		{
			name: "otel without service name",
			mutate: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelEndpoint = "localhost:4317"
			},
			wantErr: "service name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_OTel(t *testing.T) {
	cfg := &Config{Observability: ObservabilityConfig{
		OTelEnabled:        true,
		OTelEndpoint:       "collector:4317",
		OTelServiceName:    "protobridge",
		OTelServiceVersion: "2.0.0",
		OTelInsecure:       true,
	}}

	otelCfg := cfg.OTel()
	assert.True(t, otelCfg.Enabled)
	assert.Equal(t, "collector:4317", otelCfg.Endpoint)
	assert.Equal(t, "protobridge", otelCfg.ServiceName)
	assert.Equal(t, "2.0.0", otelCfg.ServiceVersion)
	assert.True(t, otelCfg.Insecure)
}

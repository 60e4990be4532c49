package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/platinummonkey/protobridge/pkg/observability"
)

const (
	// DefaultShell is the interpreter written into bridge scripts when
	// PROTOBRIDGE_SHELL is unset.
	DefaultShell = "/bin/sh"

	// DefaultProtoc is the compiler executable looked up on PATH.
	DefaultProtoc = "protoc"
)

// Config holds all application configuration
type Config struct {
	// Bridge configuration
	Bridge BridgeConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// BridgeConfig holds named-pipe bridge settings
type BridgeConfig struct {
	// Shell is the interpreter used in the generated script's shebang line.
	Shell string

	// KeepTemp leaves pipes, temp directory and script on disk after
	// cleanup for post-mortem inspection.
	KeepTemp bool

	// TempDir is the parent directory for bridge resources. Empty means
	// os.TempDir().
	TempDir string

	// Timeout bounds each bridge worker. Zero waits forever.
	Timeout time.Duration

	// ProtocPath is the external compiler executable.
	ProtocPath string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel  observability.LogLevel
	LogFormat observability.LogFormat

	// Metrics
	MetricsFile string

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Bridge:        loadBridgeConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadBridgeConfig loads bridge configuration from environment
func loadBridgeConfig() BridgeConfig {
	return BridgeConfig{
		Shell:      getEnv("PROTOBRIDGE_SHELL", DefaultShell),
		KeepTemp:   getEnvBool("PROTOBRIDGE_KEEP_TEMP", false),
		TempDir:    getEnv("PROTOBRIDGE_TEMP_DIR", ""),
		Timeout:    getEnvDuration("PROTOBRIDGE_TIMEOUT", 0),
		ProtocPath: getEnv("PROTOBRIDGE_PROTOC", DefaultProtoc),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("PROTOBRIDGE_LOG_LEVEL", "info")),
		LogFormat:          observability.LogFormat(strings.ToLower(getEnv("PROTOBRIDGE_LOG_FORMAT", "text"))),
		MetricsFile:        getEnv("PROTOBRIDGE_METRICS_FILE", ""),
		OTelEnabled:        getEnvBool("PROTOBRIDGE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("PROTOBRIDGE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("PROTOBRIDGE_OTEL_SERVICE_NAME", "protobridge"),
		OTelServiceVersion: getEnv("PROTOBRIDGE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("PROTOBRIDGE_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// The shebang needs an absolute interpreter path.
	if c.Bridge.Shell == "" {
		return fmt.Errorf("bridge shell is required")
	}
	if !filepath.IsAbs(c.Bridge.Shell) {
		return fmt.Errorf("bridge shell must be an absolute path: %s", c.Bridge.Shell)
	}
	if strings.ContainsAny(c.Bridge.Shell, " \t\n") {
		return fmt.Errorf("bridge shell must not contain whitespace: %q", c.Bridge.Shell)
	}
	if c.Bridge.Timeout < 0 {
		return fmt.Errorf("bridge timeout must not be negative")
	}
	if c.Bridge.TempDir != "" {
		info, err := os.Stat(c.Bridge.TempDir)
		if err != nil {
			return fmt.Errorf("bridge temp dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("bridge temp dir is not a directory: %s", c.Bridge.TempDir)
		}
	}
	if c.Bridge.ProtocPath == "" {
		return fmt.Errorf("protoc path is required")
	}

	switch c.Observability.LogFormat {
	case observability.TextFormat, observability.JSONFormat:
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Observability.LogFormat)
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// OTel returns the OpenTelemetry settings in the form observability expects
func (c *Config) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        c.Observability.OTelEnabled,
		Endpoint:       c.Observability.OTelEndpoint,
		ServiceName:    c.Observability.OTelServiceName,
		ServiceVersion: c.Observability.OTelServiceVersion,
		Insecure:       c.Observability.OTelInsecure,
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		default:
			return false
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Package config provides application configuration management from environment variables.
//
// # Configuration Structure
//
// Bridge settings:
//
//	PROTOBRIDGE_SHELL="/bin/sh"          # interpreter in the generated script's shebang
//	PROTOBRIDGE_KEEP_TEMP="false"        # keep pipes, temp dir and script after cleanup
//	PROTOBRIDGE_TEMP_DIR=""              # parent dir for bridge resources (default os.TempDir)
//	PROTOBRIDGE_TIMEOUT="0"              # per-worker bound, 0 waits forever
//	PROTOBRIDGE_PROTOC="protoc"          # external compiler
//
// Observability settings:
//
//	PROTOBRIDGE_LOG_LEVEL="info"         # debug, info, warn, error
//	PROTOBRIDGE_LOG_FORMAT="text"        # text, json
//	PROTOBRIDGE_METRICS_FILE=""          # write Prometheus textfile on exit
//	PROTOBRIDGE_OTEL_ENABLED="false"
//	PROTOBRIDGE_OTEL_ENDPOINT="localhost:4317"
//
// # Usage
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
package config

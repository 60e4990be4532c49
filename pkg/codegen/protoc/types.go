package protoc

import (
	"time"

	"github.com/platinummonkey/protobridge/pkg/plugins"
)

// Request is a single protoc run with one or more in-process plugins.
type Request struct {
	// Import paths passed as --proto_path
	ProtoPaths []string

	// Files to compile, relative to one of ProtoPaths
	Files []string

	// OutputDir is the default output directory for every plugin
	OutputDir string

	Plugins []PluginInvocation

	// Extra environment for protoc and the plugins, on top of os.Environ()
	Env map[string]string

	// Timeout bounds the whole run. Zero means no timeout.
	Timeout time.Duration
}

// PluginInvocation binds an in-process generator to a protoc-gen-<Name>
// plugin slot.
type PluginInvocation struct {
	Name      string
	Generator plugins.CodeGenerator

	// Options are joined into --<Name>_opt. An empty value emits the bare key.
	Options map[string]string

	// OutputDir overrides Request.OutputDir for this plugin
	OutputDir string
}

// Result is the outcome of a protoc run
type Result struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration

	// PluginErrors holds the worker error of each plugin that failed
	PluginErrors map[string]error

	Error error
}

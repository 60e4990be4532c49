package compiler

import "errors"

var (
	// ErrCompile is returned when the proto sources do not compile
	ErrCompile = errors.New("proto compilation failed")

	// ErrPluginExec is returned when the plugin executable fails to run
	ErrPluginExec = errors.New("plugin execution failed")

	// ErrPluginResponse is returned when the plugin reports an error or
	// writes an undecodable response
	ErrPluginResponse = errors.New("plugin returned an error")

	// ErrInvalidOutput is returned for generated files that cannot be written
	ErrInvalidOutput = errors.New("invalid generated file")
)

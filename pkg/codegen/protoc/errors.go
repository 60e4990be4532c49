package protoc

import "errors"

var (
	// ErrProtocNotFound is returned when the protoc executable cannot be found
	ErrProtocNotFound = errors.New("protoc executable not found")

	// ErrProtocFailed is returned when protoc exits non-zero
	ErrProtocFailed = errors.New("protoc failed")

	// ErrPluginFailed is returned when protoc succeeded but a bridged plugin did not
	ErrPluginFailed = errors.New("plugin failed")

	// ErrInvalidRequest is returned for requests that cannot be run
	ErrInvalidRequest = errors.New("invalid protoc request")
)

package plugins

import (
	"context"
	"fmt"
	"io"
)

// Env is the environment handed to an in-process generator.
//
// The bridge never inspects it. Stdin, stdout and args are deliberately
// absent: those belong to the compiler protocol.
type Env struct {
	// Environ are the environment variables, in os.Environ form.
	Environ []string
	// Stderr receives diagnostics. May be nil.
	Stderr io.Writer
}

// CodeGenerator turns a compiler request stream into response bytes.
//
// Generate is called exactly once per bridge invocation and must read the
// request to completion (or fail) before returning.
type CodeGenerator interface {
	Generate(ctx context.Context, request io.Reader, env Env) ([]byte, error)
}

// GeneratorFunc adapts a function to CodeGenerator.
type GeneratorFunc func(ctx context.Context, request io.Reader, env Env) ([]byte, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, request io.Reader, env Env) ([]byte, error) {
	return f(ctx, request, env)
}

// BytesFunc adapts a function over fully buffered request bytes.
type BytesFunc func(ctx context.Context, request []byte, env Env) ([]byte, error)

// Generate reads the whole request and calls f.
func (f BytesFunc) Generate(ctx context.Context, request io.Reader, env Env) ([]byte, error) {
	data, err := io.ReadAll(request)
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}
	return f(ctx, data, env)
}

// Plugin is a named, registrable generator.
type Plugin interface {
	CodeGenerator
	Manifest() *Manifest
}

// Identity is a generator that echoes its request. Useful for exercising a
// bridge without any protocol knowledge.
var Identity CodeGenerator = BytesFunc(func(_ context.Context, request []byte, _ Env) ([]byte, error) {
	return request, nil
})

package compiler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/protobridge/pkg/fifobridge"
	"github.com/platinummonkey/protobridge/pkg/plugins"
)

// workerSettle bounds how long a failed run waits for the worker to report
// why the script exited.
const workerSettle = 200 * time.Millisecond

// LocalRequest describes a protoc-free generation run.
type LocalRequest struct {
	ImportPaths []string
	Files       []string
	Parameter   string
	OutputDir   string
	Env         plugins.Env

	Bridge  fifobridge.Options
	Cleanup fifobridge.CleanupConfig
}

// RunLocal compiles the request's files in-process and drives gen through a
// fifobridge script exactly as protoc would, then writes the generated
// files. It returns the written paths.
func RunLocal(ctx context.Context, gen plugins.CodeGenerator, req LocalRequest) (written []string, err error) {
	cgReq, err := BuildRequest(ctx, req.ImportPaths, req.Files, req.Parameter)
	if err != nil {
		return nil, err
	}

	state, err := fifobridge.Prepare(ctx, gen, req.Env, req.Bridge)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cleanupErr := fifobridge.Cleanup(state, req.Cleanup); cleanupErr != nil {
			err = errors.Join(err, cleanupErr)
		}
	}()

	resp, err := Execute(ctx, state.ScriptPath(), cgReq)
	if err != nil {
		if workerErr := finishedWorkerError(state); workerErr != nil {
			err = errors.Join(err, fmt.Errorf("bridge worker: %w", workerErr))
		}
		return nil, err
	}
	// The script has drained the response pipe, so the worker is returning.
	if err := state.Wait(ctx); err != nil {
		return nil, fmt.Errorf("bridge worker: %w", err)
	}

	return WriteFiles(req.OutputDir, resp)
}

// finishedWorkerError returns the worker's error if it finishes within
// workerSettle. A plugin that fails before draining the request makes the
// script exit on a broken pipe, and only the worker knows the cause.
func finishedWorkerError(state *fifobridge.State) error {
	select {
	case <-state.Done():
		return state.Wait(context.Background())
	case <-time.After(workerSettle):
		return nil
	}
}

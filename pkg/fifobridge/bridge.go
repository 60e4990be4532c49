package fifobridge

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/protobridge/pkg/async"
	"github.com/platinummonkey/protobridge/pkg/config"
	"github.com/platinummonkey/protobridge/pkg/observability"
	"github.com/platinummonkey/protobridge/pkg/plugins"
)

// cleanupGrace bounds how long Cleanup waits for a cancelled worker.
const cleanupGrace = 5 * time.Second

// removePath is os.Remove, replaced in tests.
var removePath = os.Remove

// Options configures a single bridge.
type Options struct {
	// Shell is the interpreter in the script's shebang line.
	// Defaults to config.DefaultShell.
	Shell string

	// TempDir is the parent of the pipe directory and the script.
	// Empty means os.TempDir().
	TempDir string

	// Timeout bounds the worker from Prepare until the response is
	// written. Zero means no timeout.
	Timeout time.Duration

	Logger      logrus.FieldLogger
	Metrics     *observability.Metrics
	OTelMetrics *observability.OTelMetrics

	// responseFirst makes the worker open the response pipe before the
	// request pipe, which deadlocks against the generated script.
	responseFirst bool
}

// OptionsFromConfig maps bridge configuration onto Options.
func OptionsFromConfig(cfg config.BridgeConfig) Options {
	return Options{
		Shell:   cfg.Shell,
		TempDir: cfg.TempDir,
		Timeout: cfg.Timeout,
	}
}

func (o Options) withDefaults() Options {
	if o.Shell == "" {
		o.Shell = config.DefaultShell
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}

// CleanupConfig controls Cleanup.
type CleanupConfig struct {
	// KeepTemp leaves every bridge resource on disk.
	KeepTemp bool
}

// State is the set of resources behind one prepared bridge. It is created
// by Prepare, serves exactly one plugin invocation and is released by
// Cleanup.
type State struct {
	id     string
	pipes  *pipePair
	script string

	task        *async.Task
	log         logrus.FieldLogger
	metrics     *observability.Metrics
	otelMetrics *observability.OTelMetrics

	closeOnce sync.Once
}

// Prepare creates the pipes and the script, starts the worker and returns
// without waiting for it. Pass ScriptPath to the compiler as the plugin
// executable, then call Cleanup once the compiler has exited.
//
// The worker's context derives from ctx; cancelling ctx abandons the
// invocation.
func Prepare(ctx context.Context, gen plugins.CodeGenerator, env plugins.Env, opts Options) (*State, error) {
	if gen == nil {
		return nil, errors.New("code generator is required")
	}
	opts = opts.withDefaults()

	id := uuid.NewString()
	pipes, err := allocatePipes(opts.TempDir, id)
	if err != nil {
		return nil, err
	}

	script, err := writeScript(opts.TempDir, opts.Shell, pipes)
	if err != nil {
		os.RemoveAll(pipes.dir)
		return nil, err
	}

	s := &State{
		id:      id,
		pipes:   pipes,
		script:  script,
		metrics:     opts.Metrics,
		otelMetrics: opts.OTelMetrics,
		log: opts.Logger.WithFields(logrus.Fields{
			"invocation_id": id,
			"script":        script,
		}),
	}

	responseFirst := opts.responseFirst
	s.task = async.Go(ctx, "fifobridge-worker", func(ctx context.Context) error {
		return s.serve(ctx, gen, env, responseFirst)
	}, async.WithTimeout(opts.Timeout), async.WithLogger(s.log))

	s.metrics.BridgeOpened()
	s.otelMetrics.BridgeOpened(ctx)
	s.log.WithField("dir", pipes.dir).Debug("Bridge prepared")

	return s, nil
}

// ID returns the invocation id embedded in the pipe directory name.
func (s *State) ID() string { return s.id }

// ScriptPath returns the executable to hand to the compiler.
func (s *State) ScriptPath() string { return s.script }

// RequestPipe returns the path of the compiler-to-plugin FIFO.
func (s *State) RequestPipe() string { return s.pipes.request }

// ResponsePipe returns the path of the plugin-to-compiler FIFO.
func (s *State) ResponsePipe() string { return s.pipes.response }

// Dir returns the directory holding both FIFOs.
func (s *State) Dir() string { return s.pipes.dir }

// Paths returns every filesystem entry owned by the bridge.
func (s *State) Paths() []string {
	return []string{s.pipes.request, s.pipes.response, s.pipes.dir, s.script}
}

// Done is closed when the worker has returned.
func (s *State) Done() <-chan struct{} {
	return s.task.Done()
}

// Wait blocks until the worker returns and reports its error, or until ctx
// is done. A worker stopped by Cleanup reports context.Canceled.
func (s *State) Wait(ctx context.Context) error {
	return s.task.Wait(ctx)
}

// Cleanup stops the worker if it is still running and removes the pipes,
// their directory and the script. With cfg.KeepTemp set nothing is removed.
//
// Entries that no longer exist are ignored. Every other removal failure is
// collected into a *CleanupError; Cleanup never stops half way.
func Cleanup(state *State, cfg CleanupConfig) error {
	if state == nil {
		return nil
	}

	state.task.Cancel()
	select {
	case <-state.task.Done():
	case <-time.After(cleanupGrace):
		state.log.Warn("Bridge worker did not stop, releasing resources anyway")
	}
	ctx := context.Background()
	state.closeOnce.Do(func() {
		state.metrics.BridgeClosed()
		state.otelMetrics.BridgeClosed(ctx)
	})

	if cfg.KeepTemp {
		state.log.WithField("paths", state.Paths()).Info("Keeping bridge resources")
		return nil
	}

	var failures []error
	for _, path := range state.Paths() {
		err := removePath(path)
		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist):
			state.log.WithField("path", path).Debug("Bridge resource already removed")
		default:
			reason := "other"
			if errors.Is(err, fs.ErrPermission) {
				reason = "permission"
			}
			state.metrics.RecordCleanupError(reason)
			state.otelMetrics.RecordCleanupError(ctx, reason)
			state.log.WithError(err).WithField("reason", reason).Warn("Failed to remove bridge resource")
			failures = append(failures, err)
		}
	}

	if len(failures) > 0 {
		return &CleanupError{Failures: failures}
	}
	return nil
}

package protoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/protobridge/pkg/fifobridge"
	"github.com/platinummonkey/protobridge/pkg/observability"
	"github.com/platinummonkey/protobridge/pkg/plugins"
)

// joinGrace bounds how long a successful run waits for bridge workers.
// protoc has read every response by then, so workers only have to return.
const joinGrace = 10 * time.Second

// RunnerConfig configures a Runner
type RunnerConfig struct {
	// ProtocPath is the protoc executable, looked up on PATH if not absolute
	ProtocPath string

	// Bridge is applied to every plugin bridge. Its Logger, Metrics and
	// OTelMetrics are also used by the runner.
	Bridge fifobridge.Options

	// Cleanup is applied to every plugin bridge after the run
	Cleanup fifobridge.CleanupConfig

	// PluginStderr receives plugin diagnostics. Nil discards them.
	PluginStderr io.Writer
}

// Runner runs protoc with in-process plugins attached through fifobridge.
type Runner struct {
	cfg         RunnerConfig
	log         logrus.FieldLogger
	metrics     *observability.Metrics
	otelMetrics *observability.OTelMetrics
}

type bridge struct {
	name  string
	state *fifobridge.State
}

// NewRunner creates a Runner
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.ProtocPath == "" {
		cfg.ProtocPath = "protoc"
	}
	log := cfg.Bridge.Logger
	if log == nil {
		log = logrus.StandardLogger()
		cfg.Bridge.Logger = log
	}
	return &Runner{
		cfg:         cfg,
		log:         log,
		metrics:     cfg.Bridge.Metrics,
		otelMetrics: cfg.Bridge.OTelMetrics,
	}
}

// Run prepares one bridge per plugin, runs protoc, joins every worker and
// removes the bridges, also when protoc fails.
func (r *Runner) Run(ctx context.Context, req *Request) (*Result, error) {
	result := &Result{}

	startTime := time.Now()
	defer func() {
		result.Duration = time.Since(startTime)
		status := "success"
		if !result.Success {
			status = "failure"
		}
		r.metrics.RecordProtocRun(status, result.Duration)
		r.otelMetrics.RecordProtocRun(context.WithoutCancel(ctx), status, result.Duration)
	}()

	if err := validateRequest(req); err != nil {
		result.Error = err
		return result, err
	}

	protocPath, err := exec.LookPath(r.cfg.ProtocPath)
	if err != nil {
		result.Error = fmt.Errorf("%w: %v", ErrProtocNotFound, err)
		return result, result.Error
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	environ := os.Environ()
	for _, key := range sortedKeys(req.Env) {
		environ = append(environ, key+"="+req.Env[key])
	}

	bridges, err := r.prepare(ctx, req, plugins.Env{Environ: environ, Stderr: r.cfg.PluginStderr})
	defer r.cleanup(bridges)
	if err != nil {
		result.Error = err
		return result, err
	}

	scripts := make(map[string]string, len(bridges))
	for _, b := range bridges {
		scripts[b.name] = b.state.ScriptPath()
	}
	args := BuildCommand(req, scripts)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, protocPath, args[1:]...)
	cmd.Env = environ
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	r.log.WithFields(logrus.Fields{
		"protoc":  protocPath,
		"plugins": len(bridges),
		"files":   len(req.Files),
	}).Debug("Running protoc")

	runErr := cmd.Run()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if runErr != nil {
		result.PluginErrors = finishedWorkerErrors(bridges)
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.Error = fmt.Errorf("%w: %w", ErrProtocFailed, ctxErr)
		} else {
			result.Error = fmt.Errorf("%w: exit code %d: %s", ErrProtocFailed, result.ExitCode, result.Stderr)
		}
		return result, result.Error
	}

	result.PluginErrors = r.join(ctx, bridges)
	if len(result.PluginErrors) > 0 {
		errs := make([]error, 0, len(result.PluginErrors))
		for _, name := range sortedKeys(result.PluginErrors) {
			errs = append(errs, fmt.Errorf("%s: %w", name, result.PluginErrors[name]))
		}
		result.Error = fmt.Errorf("%w: %w", ErrPluginFailed, errors.Join(errs...))
		return result, result.Error
	}

	result.Success = true
	return result, nil
}

func (r *Runner) prepare(ctx context.Context, req *Request, env plugins.Env) ([]bridge, error) {
	bridges := make([]bridge, 0, len(req.Plugins))
	for _, p := range req.Plugins {
		opts := r.cfg.Bridge
		opts.Logger = r.log.WithField("plugin", p.Name)

		state, err := fifobridge.Prepare(ctx, p.Generator, env, opts)
		if err != nil {
			return bridges, fmt.Errorf("failed to prepare bridge for %s: %w", p.Name, err)
		}
		bridges = append(bridges, bridge{name: p.Name, state: state})
	}
	return bridges, nil
}

// join waits for every worker concurrently and returns the failures.
func (r *Runner) join(ctx context.Context, bridges []bridge) map[string]error {
	joinCtx, cancel := context.WithTimeout(ctx, joinGrace)
	defer cancel()

	var (
		mu   sync.Mutex
		errs = make(map[string]error)
		g    errgroup.Group
	)
	for _, b := range bridges {
		g.Go(func() error {
			if err := b.state.Wait(joinCtx); err != nil {
				mu.Lock()
				errs[b.name] = err
				mu.Unlock()
				return err
			}
			return nil
		})
	}
	_ = g.Wait()

	return errs
}

func (r *Runner) cleanup(bridges []bridge) {
	for _, b := range bridges {
		if err := fifobridge.Cleanup(b.state, r.cfg.Cleanup); err != nil {
			r.log.WithError(err).WithField("plugin", b.name).Warn("Failed to clean up bridge")
		}
	}
}

// finishedWorkerErrors collects errors of workers that already returned.
// Workers still waiting for protoc are stopped by cleanup instead.
func finishedWorkerErrors(bridges []bridge) map[string]error {
	errs := make(map[string]error)
	for _, b := range bridges {
		select {
		case <-b.state.Done():
			if err := b.state.Wait(context.Background()); err != nil {
				errs[b.name] = err
			}
		default:
		}
	}
	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

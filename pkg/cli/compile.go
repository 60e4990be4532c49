package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/platinummonkey/protobridge/pkg/codegen/compiler"
	"github.com/platinummonkey/protobridge/pkg/codegen/protoc"
	"github.com/platinummonkey/protobridge/pkg/fifobridge"
	"github.com/platinummonkey/protobridge/pkg/plugins"
)

func newCompileCommand() *Command {
	cmd := &Command{
		Name:        "compile",
		Description: "Generate code from proto files with in-process plugins",
		Flags:       flag.NewFlagSet("compile", flag.ContinueOnError),
		Run:         runCompile,
	}

	cmd.Flags.Var(&stringList{}, "proto_path", "Import path, repeatable (default \".\")")
	cmd.Flags.String("out", ".", "Output directory for generated files")
	cmd.Flags.String("plugin", "inventory", "Comma-separated registered plugins to run")
	cmd.Flags.Var(&stringList{}, "opt", "Plugin option key=value, repeatable, passed to every plugin")
	cmd.Flags.Bool("local", false, "Compile in-process instead of running protoc")
	cmd.Flags.String("protoc", "", "protoc executable (overrides PROTOBRIDGE_PROTOC)")
	cmd.Flags.Bool("keep-temp", false, "Keep pipes and scripts after the run (same as PROTOBRIDGE_KEEP_TEMP)")
	cmd.Flags.Duration("timeout", 0, "Bound each plugin invocation (overrides PROTOBRIDGE_TIMEOUT)")

	return cmd
}

type compileArgs struct {
	protoPaths []string
	files      []string
	out        string
	plugins    []plugins.Plugin
	options    map[string]string
	local      bool
	protoc     string
	keepTemp   bool
	timeout    time.Duration
}

func parseCompileArgs(args []string) (*compileArgs, error) {
	cmd := newCompileCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return nil, err
	}

	parsed := &compileArgs{
		protoPaths: *cmd.Flags.Lookup("proto_path").Value.(*stringList),
		files:      cmd.Flags.Args(),
		out:        cmd.Flags.Lookup("out").Value.String(),
		local:      cmd.Flags.Lookup("local").Value.String() == "true",
		protoc:     cmd.Flags.Lookup("protoc").Value.String(),
		keepTemp:   cmd.Flags.Lookup("keep-temp").Value.String() == "true",
		timeout:    cmd.Flags.Lookup("timeout").Value.(flag.Getter).Get().(time.Duration),
	}

	if len(parsed.files) == 0 {
		return nil, fmt.Errorf("at least one .proto file is required")
	}
	if len(parsed.protoPaths) == 0 {
		parsed.protoPaths = []string{"."}
	}

	for _, name := range strings.Split(cmd.Flags.Lookup("plugin").Value.String(), ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		plugin, err := plugins.Get(name)
		if err != nil {
			return nil, err
		}
		parsed.plugins = append(parsed.plugins, plugin)
	}
	if len(parsed.plugins) == 0 {
		return nil, fmt.Errorf("at least one plugin is required")
	}

	options, err := parsePluginOptions(*cmd.Flags.Lookup("opt").Value.(*stringList))
	if err != nil {
		return nil, err
	}
	parsed.options = options

	return parsed, nil
}

func runCompile(args []string) error {
	parsed, err := parseCompileArgs(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := setupRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := os.MkdirAll(parsed.out, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	bridge := rt.bridgeOptions()
	if parsed.timeout > 0 {
		bridge.Timeout = parsed.timeout
	}
	cleanup := rt.cleanupConfig(parsed.keepTemp)

	if parsed.local {
		return compileLocal(ctx, rt, parsed, bridge, cleanup)
	}
	return compileWithProtoc(ctx, rt, parsed, bridge, cleanup)
}

func compileLocal(ctx context.Context, rt *runtime, parsed *compileArgs, bridge fifobridge.Options, cleanup fifobridge.CleanupConfig) error {
	for _, plugin := range parsed.plugins {
		name := plugin.Manifest().Name
		fmt.Printf("=== Generating with %s ===\n", name)

		opts := bridge
		opts.Logger = rt.log.WithField("plugin", name)

		written, err := compiler.RunLocal(ctx, plugin, compiler.LocalRequest{
			ImportPaths: parsed.protoPaths,
			Files:       parsed.files,
			Parameter:   joinParameter(parsed.options),
			OutputDir:   parsed.out,
			Env:         plugins.Env{Environ: os.Environ(), Stderr: os.Stderr},
			Bridge:      opts,
			Cleanup:     cleanup,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		for _, path := range written {
			fmt.Printf("  %s\n", path)
		}
	}
	return nil
}

func compileWithProtoc(ctx context.Context, rt *runtime, parsed *compileArgs, bridge fifobridge.Options, cleanup fifobridge.CleanupConfig) error {
	protocPath := parsed.protoc
	if protocPath == "" {
		protocPath = rt.cfg.Bridge.ProtocPath
	}

	req := &protoc.Request{
		ProtoPaths: parsed.protoPaths,
		Files:      parsed.files,
		OutputDir:  parsed.out,
	}
	for _, plugin := range parsed.plugins {
		req.Plugins = append(req.Plugins, protoc.PluginInvocation{
			Name:      plugin.Manifest().Name,
			Generator: plugin,
			Options:   parsed.options,
		})
	}

	runner := protoc.NewRunner(protoc.RunnerConfig{
		ProtocPath:   protocPath,
		Bridge:       bridge,
		Cleanup:      cleanup,
		PluginStderr: os.Stderr,
	})

	result, err := runner.Run(ctx, req)
	if result != nil && result.Stderr != "" {
		fmt.Fprint(os.Stderr, result.Stderr)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Generated %d plugin output(s) into %s in %s\n", len(req.Plugins), parsed.out, result.Duration.Round(time.Millisecond))
	return nil
}

package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platinummonkey/protobridge/pkg/fifobridge"
	"github.com/platinummonkey/protobridge/pkg/plugins"
)

func newServeCommand() *Command {
	cmd := &Command{
		Name:        "serve",
		Description: "Prepare one bridge, print its script path and serve a single invocation",
		Flags:       flag.NewFlagSet("serve", flag.ContinueOnError),
		Run:         runServe,
	}

	cmd.Flags.Bool("keep-temp", false, "Keep pipes and script after the invocation")
	cmd.Flags.Duration("timeout", 0, "Give up if the script is not run within this time")

	return cmd
}

// runServe prints the script path, then blocks until a compiler started by
// hand has run it once.
func runServe(args []string) error {
	cmd := newServeCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	keepTemp := cmd.Flags.Lookup("keep-temp").Value.String() == "true"
	timeout := cmd.Flags.Lookup("timeout").Value.(flag.Getter).Get().(time.Duration)

	if cmd.Flags.NArg() != 1 {
		return fmt.Errorf("plugin name required. Usage: protobridge serve [flags] <plugin>")
	}
	plugin, err := plugins.Get(cmd.Flags.Arg(0))
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

	opts := rt.bridgeOptions()
	if timeout > 0 {
		opts.Timeout = timeout
	}
	opts.Logger = rt.log.WithField("plugin", plugin.Manifest().Name)

	state, err := fifobridge.Prepare(ctx, plugin, plugins.Env{Environ: os.Environ(), Stderr: os.Stderr}, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := fifobridge.Cleanup(state, rt.cleanupConfig(keepTemp)); err != nil {
			rt.log.WithError(err).Warn("Failed to clean up bridge")
		}
	}()

	fmt.Println(state.ScriptPath())
	rt.log.WithField("script", state.ScriptPath()).Info("Waiting for the compiler to run the plugin script")

	if err := state.Wait(ctx); err != nil {
		// The script still exits 0 with nothing on stdout, which protoc
		// accepts as an empty response.
		rt.log.WithError(err).WithField("invocation_id", state.ID()).
			Error("Plugin failed, the compiler received an empty response")
		return fmt.Errorf("plugin invocation failed: %w", err)
	}

	rt.log.Info("Plugin invocation complete")
	return nil
}

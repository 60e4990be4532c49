// Package fifobridge makes an in-process code generator callable as a
// protoc plugin executable.
//
// Prepare creates a private directory with two named pipes and a small
// shell script, then starts a background worker. The script is handed to
// the compiler as the plugin binary. When the compiler runs it, the script
// forwards its stdin into the request pipe and the response pipe to its
// stdout, while the worker feeds the request to the generator and writes
// the result back:
//
//	protoc ──stdin──▶ script ──request.fifo──▶ worker ──▶ CodeGenerator
//	protoc ◀─stdout── script ◀─response.fifo── worker ◀──┘
//
// Opening a FIFO blocks until the other end is opened, so the script and
// the worker open the two pipes in the same order: request first, then
// response. Opening them in opposite orders deadlocks.
//
// Typical use:
//
//	state, err := fifobridge.Prepare(ctx, gen, plugins.Env{}, fifobridge.Options{})
//	if err != nil {
//	    return err
//	}
//	defer fifobridge.Cleanup(state, fifobridge.CleanupConfig{})
//
//	runProtoc("--plugin=protoc-gen-x=" + state.ScriptPath())
//	if err := state.Wait(ctx); err != nil {
//	    return err
//	}
//
// Named pipes are only available on unix; elsewhere Prepare returns
// ErrUnsupported.
package fifobridge

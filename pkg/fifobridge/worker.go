package fifobridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/protobridge/pkg/observability"
	"github.com/platinummonkey/protobridge/pkg/plugins"
)

const tracerName = "github.com/platinummonkey/protobridge/pkg/fifobridge"

// serve runs one plugin invocation over the bridge's pipes:
//
//  1. open the request pipe for reading
//  2. open the response pipe for writing
//  3. run the generator on the request stream
//  4. close the request pipe
//  5. write the response and close the response pipe
//
// The open order must match the script's, otherwise both sides block on an
// open that the other side never performs.
func (s *State) serve(ctx context.Context, gen plugins.CodeGenerator, env plugins.Env, responseFirst bool) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "fifobridge.worker",
		trace.WithAttributes(attribute.String("protobridge.invocation_id", s.id)))

	log := s.log.WithFields(observability.TraceFields(ctx))
	start := time.Now()
	var requestBytes, responseBytes int
	defer func() {
		if r := recover(); r != nil {
			span.SetStatus(codes.Error, fmt.Sprint(r))
			span.End()
			s.recordInvocation(ctx, "panic", time.Since(start), requestBytes, responseBytes)
			panic(r)
		}

		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(
			attribute.Int("protobridge.request_bytes", requestBytes),
			attribute.Int("protobridge.response_bytes", responseBytes),
		)
		span.End()
		s.recordInvocation(ctx, status, time.Since(start), requestBytes, responseBytes)
	}()

	request, response, err := s.openPipes(ctx, responseFirst)
	if err != nil {
		return err
	}
	defer closePipe(request)
	defer closePipe(response)
	log.Debug("Bridge pipes connected")

	// Pipe reads and writes go through the runtime poller, so closing the
	// handles releases a worker blocked on a vanished peer.
	stop := context.AfterFunc(ctx, func() {
		request.Close()
		response.Close()
	})
	defer stop()

	in := &countingReader{r: request}
	out, err := gen.Generate(ctx, in, env)
	requestBytes = in.n
	closePipe(request)
	if err != nil {
		closePipe(response)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", ErrPlugin, err)
	}

	responseBytes, err = response.Write(out)
	if err != nil {
		closePipe(response)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("failed to write response: %w", err)
	}
	if err := closePipe(response); err != nil {
		return fmt.Errorf("failed to close response pipe: %w", err)
	}

	log.WithFields(logrus.Fields{
		"request_bytes":  requestBytes,
		"response_bytes": responseBytes,
	}).Debug("Bridge invocation complete")

	return nil
}

func (s *State) recordInvocation(ctx context.Context, status string, elapsed time.Duration, requestBytes, responseBytes int) {
	s.metrics.RecordInvocation(status, elapsed, requestBytes, responseBytes)
	s.otelMetrics.RecordInvocation(ctx, status, elapsed, requestBytes, responseBytes)
}

func (s *State) openPipes(ctx context.Context, responseFirst bool) (request, response *os.File, err error) {
	if responseFirst {
		response, err = openFIFO(ctx, s.pipes.response, os.O_WRONLY)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open response pipe: %w", err)
		}
		request, err = openFIFO(ctx, s.pipes.request, os.O_RDONLY)
		if err != nil {
			response.Close()
			return nil, nil, fmt.Errorf("failed to open request pipe: %w", err)
		}
		return request, response, nil
	}

	request, err = openFIFO(ctx, s.pipes.request, os.O_RDONLY)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open request pipe: %w", err)
	}
	response, err = openFIFO(ctx, s.pipes.response, os.O_WRONLY)
	if err != nil {
		request.Close()
		return nil, nil, fmt.Errorf("failed to open response pipe: %w", err)
	}
	return request, response, nil
}

// closePipe closes f, ignoring a close already done by cancellation.
func closePipe(f *os.File) error {
	if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

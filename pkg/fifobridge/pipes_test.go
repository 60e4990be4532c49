//go:build unix

package fifobridge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatePipes(t *testing.T) {
	parent := t.TempDir()

	pair, err := allocatePipes(parent, "abc")
	require.NoError(t, err)

	assert.Equal(t, parent, filepath.Dir(pair.dir))
	assert.True(t, strings.HasPrefix(filepath.Base(pair.dir), "protobridge-abc-"))
	assert.Equal(t, filepath.Join(pair.dir, "request.fifo"), pair.request)
	assert.Equal(t, filepath.Join(pair.dir, "response.fifo"), pair.response)
	assert.NotEqual(t, pair.request, pair.response)

	for _, path := range []string{pair.request, pair.response} {
		info, err := os.Lstat(path)
		require.NoError(t, err)
		assert.Equal(t, os.ModeNamedPipe, info.Mode().Type(), path)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), path)
	}

	info, err := os.Stat(pair.dir)
	require.NoError(t, err)
	assert.Zero(t, info.Mode().Perm()&0o077, "pipe directory must be private")
}

func TestAllocatePipes_MissingParent(t *testing.T) {
	_, err := allocatePipes(filepath.Join(t.TempDir(), "missing"), "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCreate)
}

func TestAllocatePipes_SameIDDistinctDirs(t *testing.T) {
	parent := t.TempDir()

	a, err := allocatePipes(parent, "same")
	require.NoError(t, err)
	b, err := allocatePipes(parent, "same")
	require.NoError(t, err)

	assert.NotEqual(t, a.dir, b.dir)
	assert.NotEqual(t, a.request, b.request)
}

func TestOpenFIFO_Rendezvous(t *testing.T) {
	pair, err := allocatePipes(t.TempDir(), "open")
	require.NoError(t, err)

	ctx := context.Background()
	readerCh := make(chan *os.File, 1)
	go func() {
		f, err := openFIFO(ctx, pair.request, os.O_RDONLY)
		if err != nil {
			readerCh <- nil
			return
		}
		readerCh <- f
	}()

	w, err := openFIFO(ctx, pair.request, os.O_WRONLY)
	require.NoError(t, err)
	defer w.Close()

	r := <-readerCh
	require.NotNil(t, r)
	defer r.Close()

	_, err = w.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	_, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))
}

func TestOpenFIFO_CancelUnblocksPendingOpen(t *testing.T) {
	for _, flag := range []int{os.O_RDONLY, os.O_WRONLY} {
		pair, err := allocatePipes(t.TempDir(), "cancel")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		start := time.Now()
		f, err := openFIFO(ctx, pair.response, flag)
		cancel()

		assert.Nil(t, f)
		assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
		assert.Less(t, time.Since(start), 5*time.Second)
	}
}

func TestOpenFIFO_AlreadyCancelled(t *testing.T) {
	pair, err := allocatePipes(t.TempDir(), "done")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f, err := openFIFO(ctx, pair.request, os.O_RDONLY)
	assert.Nil(t, f)
	assert.ErrorIs(t, err, context.Canceled)
}

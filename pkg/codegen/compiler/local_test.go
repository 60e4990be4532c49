//go:build unix

package compiler

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/protobridge/pkg/fifobridge"
	"github.com/platinummonkey/protobridge/pkg/plugins"
	"github.com/platinummonkey/protobridge/pkg/plugins/inventory"
)

func localRequest(t *testing.T, files ...string) (LocalRequest, string) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	bridgeDir := t.TempDir()
	return LocalRequest{
		ImportPaths: []string{writeProtos(t, testProtos)},
		Files:       files,
		OutputDir:   t.TempDir(),
		Bridge:      fifobridge.Options{TempDir: bridgeDir, Logger: logger},
	}, bridgeDir
}

func TestRunLocal_Inventory(t *testing.T) {
	req, bridgeDir := localRequest(t, "shop/item.proto")
	req.Parameter = "prefix=inv"

	written, err := RunLocal(context.Background(), inventory.New(), req)
	require.NoError(t, err)

	want := filepath.Join(req.OutputDir, "inv", "shop", "item.inventory.yaml")
	assert.Equal(t, []string{want}, written)

	content, err := os.ReadFile(want)
	require.NoError(t, err)
	var inv inventory.FileInventory
	require.NoError(t, yaml.Unmarshal(content, &inv))
	assert.Equal(t, "shop", inv.Package)
	assert.Equal(t, []string{"base/id.proto", "google/protobuf/timestamp.proto"}, inv.Imports)

	entries, err := os.ReadDir(bridgeDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunLocal_ReportedError(t *testing.T) {
	req, _ := localRequest(t, "shop/cart.proto")

	gen := plugins.NewProtocPlugin(&plugins.Manifest{Name: "strict", Version: "1.0.0"}, 0,
		func(context.Context, *pluginpb.CodeGeneratorRequest, plugins.Env) (*pluginpb.CodeGeneratorResponse, error) {
			return nil, errors.New("cart is not supported")
		})

	_, err := RunLocal(context.Background(), gen, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPluginResponse)
	assert.Contains(t, err.Error(), "cart is not supported")
}

func TestRunLocal_WorkerError(t *testing.T) {
	req, _ := localRequest(t, "shop/cart.proto")
	boom := errors.New("boom")

	gen := plugins.BytesFunc(func(context.Context, []byte, plugins.Env) ([]byte, error) {
		return nil, boom
	})

	_, err := RunLocal(context.Background(), gen, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, fifobridge.ErrPlugin)
	assert.ErrorIs(t, err, boom)
}

func TestRunLocal_WorkerErrorWithUnreadRequest(t *testing.T) {
	req, bridgeDir := localRequest(t, "shop/cart.proto")
	// Larger than a pipe buffer, so the script blocks writing it.
	req.Parameter = "pad=" + strings.Repeat("x", 256<<10)
	boom := errors.New("rejected before reading")

	gen := plugins.GeneratorFunc(func(context.Context, io.Reader, plugins.Env) ([]byte, error) {
		return nil, boom
	})

	_, err := RunLocal(context.Background(), gen, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPluginExec)
	assert.ErrorIs(t, err, fifobridge.ErrPlugin)
	assert.ErrorIs(t, err, boom)

	entries, err := os.ReadDir(bridgeDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunLocal_PassesRequestThrough(t *testing.T) {
	req, _ := localRequest(t, "shop/cart.proto")

	var got *pluginpb.CodeGeneratorRequest
	gen := plugins.NewProtocPlugin(&plugins.Manifest{Name: "spy", Version: "1.0.0"}, 0,
		func(_ context.Context, r *pluginpb.CodeGeneratorRequest, _ plugins.Env) (*pluginpb.CodeGeneratorResponse, error) {
			got = r
			return &pluginpb.CodeGeneratorResponse{
				File: []*pluginpb.CodeGeneratorResponse_File{{Name: proto.String("out.txt"), Content: proto.String("ok")}},
			}, nil
		})

	_, err := RunLocal(context.Background(), gen, req)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, []string{"shop/cart.proto"}, got.GetFileToGenerate())
	assert.Len(t, got.GetProtoFile(), 4)
}

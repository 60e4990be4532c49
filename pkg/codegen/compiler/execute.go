package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"
)

// Execute runs a plugin executable the way protoc does: the marshalled
// request on stdin, the response read from stdout. A response carrying an
// error is returned together with an ErrPluginResponse error.
func Execute(ctx context.Context, pluginPath string, req *pluginpb.CodeGeneratorRequest) (*pluginpb.CodeGeneratorResponse, error) {
	input, err := proto.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode code generator request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, pluginPath)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%w: %s: %w", ErrPluginExec, pluginPath, err)
		}
		return nil, fmt.Errorf("%w: %s: %w: %s", ErrPluginExec, pluginPath, err, msg)
	}

	resp := &pluginpb.CodeGeneratorResponse{}
	if err := proto.Unmarshal(stdout.Bytes(), resp); err != nil {
		return nil, fmt.Errorf("%w: undecodable response: %w", ErrPluginResponse, err)
	}
	if resp.Error != nil {
		return resp, fmt.Errorf("%w: %s", ErrPluginResponse, resp.GetError())
	}

	return resp, nil
}

// WriteFiles materialises the generated files of resp under outDir and
// returns their paths. A file without a name continues the previous one.
// Insertion points are not supported.
func WriteFiles(outDir string, resp *pluginpb.CodeGeneratorResponse) ([]string, error) {
	type output struct {
		name    string
		content strings.Builder
	}

	var outputs []*output
	for i, f := range resp.GetFile() {
		if f.GetInsertionPoint() != "" {
			return nil, fmt.Errorf("%w: %s: insertion points are not supported", ErrInvalidOutput, f.GetName())
		}
		if f.Name == nil {
			if len(outputs) == 0 {
				return nil, fmt.Errorf("%w: file %d has no name", ErrInvalidOutput, i)
			}
			outputs[len(outputs)-1].content.WriteString(f.GetContent())
			continue
		}
		name, err := cleanName(f.GetName())
		if err != nil {
			return nil, err
		}
		out := &output{name: name}
		out.content.WriteString(f.GetContent())
		outputs = append(outputs, out)
	}

	written := make([]string, 0, len(outputs))
	for _, out := range outputs {
		path := filepath.Join(outDir, filepath.FromSlash(out.name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return written, fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(out.content.String()), 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", out.name, err)
		}
		written = append(written, path)
	}

	return written, nil
}

// cleanName rejects generated file names that escape the output directory.
func cleanName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty file name", ErrInvalidOutput)
	}
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(name)))
	if strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %s escapes the output directory", ErrInvalidOutput, name)
	}
	return clean, nil
}

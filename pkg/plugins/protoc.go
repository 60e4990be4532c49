package plugins

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"
)

// ProtocHandlerFunc handles one decoded protoc plugin request.
type ProtocHandlerFunc func(ctx context.Context, req *pluginpb.CodeGeneratorRequest, env Env) (*pluginpb.CodeGeneratorResponse, error)

// ProtocPlugin is a Plugin speaking the protoc CodeGeneratorRequest /
// CodeGeneratorResponse protocol.
type ProtocPlugin struct {
	manifest *Manifest
	handler  ProtocHandlerFunc
	features uint64
}

// NewProtocPlugin wraps handler as a registrable Plugin. features is OR-ed
// into every response's supported_features.
func NewProtocPlugin(manifest *Manifest, features pluginpb.CodeGeneratorResponse_Feature, handler ProtocHandlerFunc) *ProtocPlugin {
	return &ProtocPlugin{
		manifest: manifest,
		handler:  handler,
		features: uint64(features),
	}
}

// Manifest returns the plugin manifest
func (p *ProtocPlugin) Manifest() *Manifest {
	return p.manifest
}

// Generate decodes the request, runs the handler and encodes the response.
//
// Handler errors are reported to the compiler through the response's error
// field, the way protoc expects a plugin to fail. A request that cannot be
// read or decoded is returned as a Go error.
func (p *ProtocPlugin) Generate(ctx context.Context, request io.Reader, env Env) ([]byte, error) {
	data, err := io.ReadAll(request)
	if err != nil {
		return nil, fmt.Errorf("failed to read code generator request: %w", err)
	}

	req := &pluginpb.CodeGeneratorRequest{}
	if err := proto.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("failed to decode code generator request: %w", err)
	}

	resp, err := p.handler(ctx, req, env)
	if err != nil {
		resp = &pluginpb.CodeGeneratorResponse{
			Error: proto.String(err.Error()),
		}
	}
	if resp == nil {
		resp = &pluginpb.CodeGeneratorResponse{}
	}
	if p.features != 0 {
		resp.SupportedFeatures = proto.Uint64(resp.GetSupportedFeatures() | p.features)
	}

	out, err := proto.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode code generator response: %w", err)
	}
	return out, nil
}

// Package plugins defines the in-process code generator contract.
//
// # Overview
//
// A CodeGenerator receives the raw request stream a compiler would write to a
// plugin executable's stdin and returns the bytes it would read back from
// stdout. The fifobridge package makes any CodeGenerator callable by an
// external compiler.
//
// # Adapters
//
// GeneratorFunc: stream form
// BytesFunc: fully buffered request bytes
// ProtocPlugin: decoded pluginpb.CodeGeneratorRequest / CodeGeneratorResponse
//
//	gen := plugins.NewProtocPlugin(
//		&plugins.Manifest{Name: "inventory", Version: "1.0.0"},
//		pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL,
//		func(ctx context.Context, req *pluginpb.CodeGeneratorRequest, env plugins.Env) (*pluginpb.CodeGeneratorResponse, error) {
//			return &pluginpb.CodeGeneratorResponse{}, nil
//		},
//	)
//
// # Registry
//
// Register: add a named Plugin (names must be valid in --NAME_out)
// Get / Has / List / Unregister / Clear
//
// # Related Packages
//
//   - pkg/fifobridge: named-pipe bridge to external compilers
//   - pkg/plugins/inventory: built-in generator
package plugins

package compiler

import (
	"context"
	"fmt"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/pluginpb"
)

// BuildRequest compiles files and returns the CodeGeneratorRequest protoc
// would send to a plugin: proto_file holds every file and its transitive
// imports, each after its dependencies.
func BuildRequest(ctx context.Context, importPaths, files []string, parameter string) (*pluginpb.CodeGeneratorRequest, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files", ErrCompile)
	}
	if len(importPaths) == 0 {
		importPaths = []string{"."}
	}

	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			ImportPaths: importPaths,
		}),
		SourceInfoMode: protocompile.SourceInfoStandard,
	}

	result, err := compiler.Compile(ctx, files...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}

	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: append([]string(nil), files...),
	}
	if parameter != "" {
		req.Parameter = proto.String(parameter)
	}

	visited := make(map[string]bool)
	var visit func(fd protoreflect.FileDescriptor)
	visit = func(fd protoreflect.FileDescriptor) {
		if visited[fd.Path()] {
			return
		}
		visited[fd.Path()] = true
		for i := 0; i < fd.Imports().Len(); i++ {
			visit(fd.Imports().Get(i).FileDescriptor)
		}
		req.ProtoFile = append(req.ProtoFile, protodesc.ToFileDescriptorProto(fd))
	}

	for _, name := range files {
		fd := result.FindFileByPath(name)
		if fd == nil {
			return nil, fmt.Errorf("%w: %s missing from compilation result", ErrCompile, name)
		}
		visit(fd)
		req.SourceFileDescriptors = append(req.SourceFileDescriptors, protodesc.ToFileDescriptorProto(fd))
	}

	return req, nil
}

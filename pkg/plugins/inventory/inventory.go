package inventory

import (
	"context"
	"fmt"
	"path"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/protobridge/pkg/plugins"
)

const (
	// Name is the registry name of the generator.
	Name    = "inventory"
	Version = "1.0.0"

	outputSuffix = ".inventory.yaml"
)

// New returns the inventory generator as a registrable plugin.
func New() *plugins.ProtocPlugin {
	return plugins.NewProtocPlugin(&plugins.Manifest{
		Name:        Name,
		Version:     Version,
		Description: "Writes a YAML summary of the messages, enums and services in each file",
	}, pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL, Generate)
}

// Generate produces one <file>.inventory.yaml per file to generate.
func Generate(ctx context.Context, req *pluginpb.CodeGeneratorRequest, env plugins.Env) (*pluginpb.CodeGeneratorResponse, error) {
	params, err := parseParameter(req.GetParameter())
	if err != nil {
		return nil, err
	}

	files, err := protodesc.NewFiles(&descriptorpb.FileDescriptorSet{File: req.GetProtoFile()})
	if err != nil {
		return nil, fmt.Errorf("invalid proto_file set: %w", err)
	}

	resp := &pluginpb.CodeGeneratorResponse{}
	for _, name := range req.GetFileToGenerate() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fd, err := files.FindFileByPath(name)
		if err != nil {
			return nil, fmt.Errorf("file to generate %s: %w", name, err)
		}

		content, err := yaml.Marshal(Describe(fd))
		if err != nil {
			return nil, fmt.Errorf("failed to encode inventory for %s: %w", name, err)
		}

		resp.File = append(resp.File, &pluginpb.CodeGeneratorResponse_File{
			Name:    proto.String(outputName(params.prefix, name)),
			Content: proto.String(string(content)),
		})
	}

	if env.Stderr != nil {
		fmt.Fprintf(env.Stderr, "%s: described %d file(s)\n", Name, len(resp.File))
	}

	return resp, nil
}

// Describe builds the inventory of a single file.
func Describe(fd protoreflect.FileDescriptor) FileInventory {
	pkg := string(fd.Package())
	inv := FileInventory{
		File:    fd.Path(),
		Package: pkg,
		Syntax:  fd.Syntax().String(),
	}

	for i := 0; i < fd.Imports().Len(); i++ {
		inv.Imports = append(inv.Imports, fd.Imports().Get(i).Path())
	}

	var walk func(protoreflect.MessageDescriptors)
	walk = func(msgs protoreflect.MessageDescriptors) {
		for i := 0; i < msgs.Len(); i++ {
			md := msgs.Get(i)
			if md.IsMapEntry() {
				continue
			}
			inv.Messages = append(inv.Messages, describeMessage(pkg, md))
			for j := 0; j < md.Enums().Len(); j++ {
				inv.Enums = append(inv.Enums, describeEnum(pkg, md.Enums().Get(j)))
			}
			walk(md.Messages())
		}
	}
	walk(fd.Messages())

	for i := 0; i < fd.Enums().Len(); i++ {
		inv.Enums = append(inv.Enums, describeEnum(pkg, fd.Enums().Get(i)))
	}

	for i := 0; i < fd.Services().Len(); i++ {
		inv.Services = append(inv.Services, describeService(pkg, fd.Services().Get(i)))
	}

	return inv
}

func describeMessage(pkg string, md protoreflect.MessageDescriptor) Message {
	msg := Message{Name: relativeName(pkg, md.FullName())}
	for i := 0; i < md.Fields().Len(); i++ {
		fd := md.Fields().Get(i)
		field := Field{
			Name:        string(fd.Name()),
			Number:      int32(fd.Number()),
			Type:        fieldType(fd),
			Cardinality: fd.Cardinality().String(),
		}
		if fd.IsMap() {
			field.Cardinality = "map"
		}
		if oneof := fd.ContainingOneof(); oneof != nil && !oneof.IsSynthetic() {
			field.Oneof = string(oneof.Name())
		}
		msg.Fields = append(msg.Fields, field)
	}
	return msg
}

func fieldType(fd protoreflect.FieldDescriptor) string {
	if fd.IsMap() {
		return fmt.Sprintf("map<%s, %s>", fieldType(fd.MapKey()), fieldType(fd.MapValue()))
	}
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return string(fd.Message().FullName())
	case protoreflect.EnumKind:
		return string(fd.Enum().FullName())
	default:
		return fd.Kind().String()
	}
}

func describeEnum(pkg string, ed protoreflect.EnumDescriptor) Enum {
	enum := Enum{Name: relativeName(pkg, ed.FullName())}
	for i := 0; i < ed.Values().Len(); i++ {
		enum.Values = append(enum.Values, string(ed.Values().Get(i).Name()))
	}
	return enum
}

func describeService(pkg string, sd protoreflect.ServiceDescriptor) Service {
	svc := Service{Name: relativeName(pkg, sd.FullName())}
	for i := 0; i < sd.Methods().Len(); i++ {
		md := sd.Methods().Get(i)
		svc.Methods = append(svc.Methods, Method{
			Name:            string(md.Name()),
			Input:           string(md.Input().FullName()),
			Output:          string(md.Output().FullName()),
			ClientStreaming: md.IsStreamingClient(),
			ServerStreaming: md.IsStreamingServer(),
		})
	}
	return svc
}

func relativeName(pkg string, name protoreflect.FullName) string {
	if pkg == "" {
		return string(name)
	}
	return strings.TrimPrefix(string(name), pkg+".")
}

type parameters struct {
	prefix string
}

// parseParameter reads the comma separated key=value plugin parameter.
func parseParameter(raw string) (parameters, error) {
	var params parameters
	if raw == "" {
		return params, nil
	}

	for _, kv := range strings.Split(raw, ",") {
		key, value, _ := strings.Cut(kv, "=")
		switch strings.TrimSpace(key) {
		case "prefix":
			prefix := path.Clean(strings.TrimSpace(value))
			if path.IsAbs(prefix) || prefix == ".." || strings.HasPrefix(prefix, "../") {
				return params, fmt.Errorf("prefix must be a relative path inside the output directory: %q", value)
			}
			params.prefix = prefix
		case "":
		default:
			return params, fmt.Errorf("unknown parameter %q", key)
		}
	}

	return params, nil
}

func outputName(prefix, file string) string {
	return path.Join(prefix, strings.TrimSuffix(file, ".proto")+outputSuffix)
}

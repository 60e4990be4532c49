package inventory

import (
	"bytes"
	"context"
	"testing"

	"github.com/bufbuild/protocompile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/protobridge/pkg/plugins"
)

const commonProto = `syntax = "proto3";
package acme.common;

message Money {
  string currency = 1;
  int64 units = 2;
}
`

const orderProto = `syntax = "proto3";
package acme.orders;

import "acme/common/money.proto";

message Order {
  string id = 1;
  repeated Item items = 2;
  acme.common.Money total = 3;
  map<string, string> labels = 4;
  optional string note = 5;
  oneof payment {
    string card = 6;
    string voucher = 7;
  }

  message Item {
    string sku = 1;
    Status status = 2;
  }

  enum Status {
    STATUS_UNSPECIFIED = 0;
    STATUS_SHIPPED = 1;
  }
}

enum Priority {
  PRIORITY_UNSPECIFIED = 0;
  PRIORITY_HIGH = 1;
}

service OrderService {
  rpc Get(Order) returns (Order);
  rpc Watch(Order) returns (stream Order);
}
`

func testRequest(t *testing.T, parameter string) *pluginpb.CodeGeneratorRequest {
	t.Helper()

	compiler := protocompile.Compiler{
		Resolver: &protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(map[string]string{
				"acme/common/money.proto": commonProto,
				"acme/orders/order.proto": orderProto,
			}),
		},
	}
	result, err := compiler.Compile(context.Background(), "acme/orders/order.proto")
	require.NoError(t, err)

	order := result.FindFileByPath("acme/orders/order.proto")
	require.NotNil(t, order)
	money := order.Imports().Get(0).FileDescriptor

	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{"acme/orders/order.proto"},
		ProtoFile: []*descriptorpb.FileDescriptorProto{
			protodesc.ToFileDescriptorProto(money),
			protodesc.ToFileDescriptorProto(order),
		},
	}
	if parameter != "" {
		req.Parameter = proto.String(parameter)
	}
	return req
}

func TestGenerate(t *testing.T) {
	var stderr bytes.Buffer
	resp, err := Generate(context.Background(), testRequest(t, ""), plugins.Env{Stderr: &stderr})
	require.NoError(t, err)
	require.Len(t, resp.GetFile(), 1)

	file := resp.GetFile()[0]
	assert.Equal(t, "acme/orders/order.inventory.yaml", file.GetName())
	assert.Contains(t, stderr.String(), "described 1 file(s)")

	var inv FileInventory
	require.NoError(t, yaml.Unmarshal([]byte(file.GetContent()), &inv))

	assert.Equal(t, "acme/orders/order.proto", inv.File)
	assert.Equal(t, "acme.orders", inv.Package)
	assert.Equal(t, "proto3", inv.Syntax)
	assert.Equal(t, []string{"acme/common/money.proto"}, inv.Imports)

	require.Len(t, inv.Messages, 2)
	assert.Equal(t, "Order", inv.Messages[0].Name)
	assert.Equal(t, "Order.Item", inv.Messages[1].Name)

	fields := make(map[string]Field)
	for _, f := range inv.Messages[0].Fields {
		fields[f.Name] = f
	}
	assert.Equal(t, Field{Name: "id", Number: 1, Type: "string", Cardinality: "optional"}, fields["id"])
	assert.Equal(t, "acme.orders.Order.Item", fields["items"].Type)
	assert.Equal(t, "repeated", fields["items"].Cardinality)
	assert.Equal(t, "acme.common.Money", fields["total"].Type)
	assert.Equal(t, "map<string, string>", fields["labels"].Type)
	assert.Equal(t, "map", fields["labels"].Cardinality)
	assert.Empty(t, fields["note"].Oneof, "proto3 optional uses a synthetic oneof")
	assert.Equal(t, "payment", fields["card"].Oneof)
	assert.Equal(t, "acme.orders.Order.Status", inv.Messages[1].Fields[1].Type)

	require.Len(t, inv.Enums, 2)
	assert.Equal(t, Enum{Name: "Order.Status", Values: []string{"STATUS_UNSPECIFIED", "STATUS_SHIPPED"}}, inv.Enums[0])
	assert.Equal(t, "Priority", inv.Enums[1].Name)

	require.Len(t, inv.Services, 1)
	assert.Equal(t, "OrderService", inv.Services[0].Name)
	assert.Equal(t, []Method{
		{Name: "Get", Input: "acme.orders.Order", Output: "acme.orders.Order"},
		{Name: "Watch", Input: "acme.orders.Order", Output: "acme.orders.Order", ServerStreaming: true},
	}, inv.Services[0].Methods)
}

func TestGenerate_Prefix(t *testing.T) {
	resp, err := Generate(context.Background(), testRequest(t, "prefix=docs/inventory"), plugins.Env{})
	require.NoError(t, err)
	require.Len(t, resp.GetFile(), 1)
	assert.Equal(t, "docs/inventory/acme/orders/order.inventory.yaml", resp.GetFile()[0].GetName())
}

func TestGenerate_MissingFile(t *testing.T) {
	req := testRequest(t, "")
	req.FileToGenerate = append(req.FileToGenerate, "nope.proto")

	_, err := Generate(context.Background(), req, plugins.Env{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.proto")
}

func TestParseParameter(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		prefix  string
		wantErr bool
	}{
		{name: "empty", raw: "", prefix: ""},
		{name: "prefix", raw: "prefix=gen", prefix: "gen"},
		{name: "cleaned", raw: "prefix=gen/./x/", prefix: "gen/x"},
		{name: "trailing comma", raw: "prefix=gen,", prefix: "gen"},
		{name: "absolute", raw: "prefix=/etc", wantErr: true},
		{name: "escapes", raw: "prefix=../up", wantErr: true},
		{name: "unknown", raw: "lang=go", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := parseParameter(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.prefix == "" {
				assert.Contains(t, []string{"", "."}, params.prefix)
			} else {
				assert.Equal(t, tt.prefix, params.prefix)
			}
		})
	}
}

func TestNew_ProtocRoundTrip(t *testing.T) {
	plugin := New()
	assert.Equal(t, Name, plugin.Manifest().Name)
	assert.Empty(t, plugins.ValidateManifest(plugin.Manifest()))

	data, err := proto.Marshal(testRequest(t, "prefix=bad/../../x"))
	require.NoError(t, err)

	out, err := plugin.Generate(context.Background(), bytes.NewReader(data), plugins.Env{})
	require.NoError(t, err)

	resp := &pluginpb.CodeGeneratorResponse{}
	require.NoError(t, proto.Unmarshal(out, resp))
	assert.Contains(t, resp.GetError(), "prefix")
	assert.Empty(t, resp.GetFile())
	assert.Equal(t, uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL), resp.GetSupportedFeatures())
}

// Package grpcapi exposes the encounter service over gRPC.
//
// Messages are google.protobuf.Struct so the service needs no generated
// code; field names match the HTTP query parameters.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "encounter.v1.EncounterService"

const (
	methodComputeBudget = "/" + ServiceName + "/ComputeBudget"
	methodGenerate      = "/" + ServiceName + "/Generate"
	methodSimulate      = "/" + ServiceName + "/Simulate"
)

// EncounterServer is the server API for EncounterService.
type EncounterServer interface {
	ComputeBudget(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Generate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Simulate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterEncounterServer registers srv on s.
func RegisterEncounterServer(s grpc.ServiceRegistrar, srv EncounterServer) {
	s.RegisterService(&encounterServiceDesc, srv)
}

var encounterServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EncounterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ComputeBudget", Handler: unaryHandler(methodComputeBudget, EncounterServer.ComputeBudget)},
		{MethodName: "Generate", Handler: unaryHandler(methodGenerate, EncounterServer.Generate)},
		{MethodName: "Simulate", Handler: unaryHandler(methodSimulate, EncounterServer.Simulate)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "encounter/v1/encounter.proto",
}

type unaryMethod func(EncounterServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler adapts one EncounterServer method to a grpc.MethodDesc handler.
func unaryHandler(fullMethod string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EncounterServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(EncounterServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client is the client API for EncounterService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ComputeBudget(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodComputeBudget, in, opts)
}

func (c *Client) Generate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGenerate, in, opts)
}

func (c *Client) Simulate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodSimulate, in, opts)
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

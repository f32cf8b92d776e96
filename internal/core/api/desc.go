package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Full method names, as seen by interceptors.
const (
	ServiceName                = "parkwatch.sensor.v1.SensorAPI"
	FullMethodEvaluateReadings = "/" + ServiceName + "/EvaluateReadings"
	FullMethodSyncConditions   = "/" + ServiceName + "/SyncConditions"
)

// SensorAPIServer is the server contract of the sensor API.
type SensorAPIServer interface {
	EvaluateReadings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SyncConditions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterSensorAPIServer registers srv on s.
func RegisterSensorAPIServer(s grpc.ServiceRegistrar, srv SensorAPIServer) {
	s.RegisterService(&SensorAPI_ServiceDesc, srv)
}

// SensorAPI_ServiceDesc describes the service for grpc.Server.
var SensorAPI_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SensorAPIServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "EvaluateReadings", Handler: evaluateReadingsHandler},
		{MethodName: "SyncConditions", Handler: syncConditionsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "parkwatch/sensor/v1/sensor_api.proto",
}

func evaluateReadingsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SensorAPIServer).EvaluateReadings(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethodEvaluateReadings}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SensorAPIServer).EvaluateReadings(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func syncConditionsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SensorAPIServer).SyncConditions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethodSyncConditions}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SensorAPIServer).SyncConditions(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// SensorAPIClient calls the sensor API over cc.
type SensorAPIClient struct {
	cc grpc.ClientConnInterface
}

// NewSensorAPIClient wraps a client connection.
func NewSensorAPIClient(cc grpc.ClientConnInterface) *SensorAPIClient {
	return &SensorAPIClient{cc: cc}
}

// EvaluateReadings calls the EvaluateReadings method.
func (c *SensorAPIClient) EvaluateReadings(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethodEvaluateReadings, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SyncConditions calls the SyncConditions method.
func (c *SensorAPIClient) SyncConditions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethodSyncConditions, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

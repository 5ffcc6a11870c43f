package alarm

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "radioalarm.v1.AlarmService"

// Method names of the alarm service.
const (
	MethodAddAlarm        = "AddAlarm"
	MethodListAlarms      = "ListAlarms"
	MethodGetAlarm        = "GetAlarm"
	MethodSetEnabled      = "SetEnabled"
	MethodChangeTime      = "ChangeTime"
	MethodChangeWeekDays  = "ChangeWeekDays"
	MethodToggleRepeating = "ToggleRepeating"
	MethodRemoveAlarm     = "RemoveAlarm"
	MethodGetStation      = "GetStation"
	MethodResetAllAlarms  = "ResetAllAlarms"
)

// FullMethod returns the path of method as used by grpc.ClientConn.Invoke.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// AlarmServiceServer is the server API of the alarm service.
type AlarmServiceServer interface {
	AddAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListAlarms(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetEnabled(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ChangeTime(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ChangeWeekDays(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ToggleRepeating(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RemoveAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetStation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ResetAllAlarms(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// unaryCall is a method expression of AlarmServiceServer.
type unaryCall func(AlarmServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// ServiceDesc describes the alarm service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Mirrors generated service descriptors.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodAddAlarm, AlarmServiceServer.AddAlarm),
		unaryMethod(MethodListAlarms, AlarmServiceServer.ListAlarms),
		unaryMethod(MethodGetAlarm, AlarmServiceServer.GetAlarm),
		unaryMethod(MethodSetEnabled, AlarmServiceServer.SetEnabled),
		unaryMethod(MethodChangeTime, AlarmServiceServer.ChangeTime),
		unaryMethod(MethodChangeWeekDays, AlarmServiceServer.ChangeWeekDays),
		unaryMethod(MethodToggleRepeating, AlarmServiceServer.ToggleRepeating),
		unaryMethod(MethodRemoveAlarm, AlarmServiceServer.RemoveAlarm),
		unaryMethod(MethodGetStation, AlarmServiceServer.GetStation),
		unaryMethod(MethodResetAllAlarms, AlarmServiceServer.ResetAllAlarms),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "radioalarm/v1/alarm.proto",
}

// RegisterAlarmServiceServer registers srv on s.
func RegisterAlarmServiceServer(s grpc.ServiceRegistrar, srv AlarmServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unaryMethod builds the descriptor of a unary method, honoring interceptors.
func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}

			server, _ := srv.(AlarmServiceServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}

			handler := func(ctx context.Context, req any) (any, error) {
				in, _ := req.(*structpb.Struct)

				return call(server, ctx, in)
			}

			return interceptor(ctx, in, info, handler)
		},
	}
}

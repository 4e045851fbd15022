package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmitrijs2005/qaapi/internal/server/models"
)

const ServiceName = "qaapi.auth.v1.AuthService"

// Full method names, as seen by interceptors.
const (
	MethodRegister = "/" + ServiceName + "/Register"
	MethodLogin    = "/" + ServiceName + "/Login"
	MethodRefresh  = "/" + ServiceName + "/Refresh"
	MethodWhoAmI   = "/" + ServiceName + "/WhoAmI"
	MethodPing     = "/" + ServiceName + "/Ping"
)

// AuthServiceServer is the server API of qaapi.auth.v1.AuthService. It is
// built from well-known protobuf types and uses the default proto codec.
type AuthServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	WhoAmI(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

func unaryHandler[Req any, Resp any](method string, call func(AuthServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AuthServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var authServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Register", AuthServiceServer.Register),
		unaryHandler("Login", AuthServiceServer.Login),
		unaryHandler("Refresh", AuthServiceServer.Refresh),
		unaryHandler("WhoAmI", AuthServiceServer.WhoAmI),
		unaryHandler("Ping", AuthServiceServer.Ping),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&authServiceDesc, srv)
}

// AuthServiceClient calls qaapi.auth.v1.AuthService and decodes the
// replies into domain types.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

func (c *AuthServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*models.User, error) {
	req, err := toStruct(in)
	if err != nil {
		return nil, err
	}
	return invokeStruct[models.User](ctx, c.cc, MethodRegister, req, opts)
}

func (c *AuthServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*models.TokenPair, error) {
	req, err := toStruct(in)
	if err != nil {
		return nil, err
	}
	return invokeStruct[models.TokenPair](ctx, c.cc, MethodLogin, req, opts)
}

func (c *AuthServiceClient) Refresh(ctx context.Context, refreshToken string, opts ...grpc.CallOption) (*models.TokenPair, error) {
	return invokeStruct[models.TokenPair](ctx, c.cc, MethodRefresh, wrapperspb.String(refreshToken), opts)
}

func (c *AuthServiceClient) WhoAmI(ctx context.Context, opts ...grpc.CallOption) (*models.User, error) {
	return invokeStruct[models.User](ctx, c.cc, MethodWhoAmI, &emptypb.Empty{}, opts)
}

// Ping returns the server's status string.
func (c *AuthServiceClient) Ping(ctx context.Context, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, MethodPing, &emptypb.Empty{}, out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func invokeStruct[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in proto.Message, opts []grpc.CallOption) (*Resp, error) {
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	resp := new(Resp)
	if err := fromStruct(out, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

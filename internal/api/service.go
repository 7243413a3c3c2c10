package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "custody.v1.Custody"

// Method names.
const (
	MethodPing             = "Ping"
	MethodCreateWallet     = "CreateWallet"
	MethodAuthenticate     = "Authenticate"
	MethodLogout           = "Logout"
	MethodWhoAmI           = "WhoAmI"
	MethodSignMessage      = "SignMessage"
	MethodVerifySignature  = "VerifySignature"
	MethodChangePassword   = "ChangePassword"
	MethodExportPrivateKey = "ExportPrivateKey"
	MethodInitiateRecovery = "InitiateRecovery"
	MethodResetPassword    = "ResetPassword"
	MethodGetWallet        = "GetWallet"
	MethodDeactivate       = "Deactivate"
	MethodReactivate       = "Reactivate"
)

// FullMethod returns the "/service/method" path of a method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// CustodyServer is implemented by the server transport.
type CustodyServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	CreateWallet(context.Context, *CreateWalletRequest) (*CreateWalletResponse, error)
	Authenticate(context.Context, *AuthenticateRequest) (*AuthenticateResponse, error)
	Logout(context.Context, *Empty) (*Empty, error)
	WhoAmI(context.Context, *Empty) (*SessionResponse, error)
	SignMessage(context.Context, *SignMessageRequest) (*SignMessageResponse, error)
	VerifySignature(context.Context, *VerifySignatureRequest) (*VerifySignatureResponse, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*Empty, error)
	ExportPrivateKey(context.Context, *ExportPrivateKeyRequest) (*ExportPrivateKeyResponse, error)
	InitiateRecovery(context.Context, *InitiateRecoveryRequest) (*Empty, error)
	ResetPassword(context.Context, *ResetPasswordRequest) (*Empty, error)
	GetWallet(context.Context, *GetWalletRequest) (*WalletInfo, error)
	Deactivate(context.Context, *SetActiveRequest) (*Empty, error)
	Reactivate(context.Context, *SetActiveRequest) (*Empty, error)
}

func unary[Req, Resp any](method string, call func(CustodyServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CustodyServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CustodyServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the custody service to grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CustodyServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, CustodyServer.Ping),
		unary(MethodCreateWallet, CustodyServer.CreateWallet),
		unary(MethodAuthenticate, CustodyServer.Authenticate),
		unary(MethodLogout, CustodyServer.Logout),
		unary(MethodWhoAmI, CustodyServer.WhoAmI),
		unary(MethodSignMessage, CustodyServer.SignMessage),
		unary(MethodVerifySignature, CustodyServer.VerifySignature),
		unary(MethodChangePassword, CustodyServer.ChangePassword),
		unary(MethodExportPrivateKey, CustodyServer.ExportPrivateKey),
		unary(MethodInitiateRecovery, CustodyServer.InitiateRecovery),
		unary(MethodResetPassword, CustodyServer.ResetPassword),
		unary(MethodGetWallet, CustodyServer.GetWallet),
		unary(MethodDeactivate, CustodyServer.Deactivate),
		unary(MethodReactivate, CustodyServer.Reactivate),
	},
	Metadata: "custody/v1/custody.json",
}

// RegisterCustodyServer attaches srv to s.
func RegisterCustodyServer(s grpc.ServiceRegistrar, srv CustodyServer) {
	s.RegisterService(&ServiceDesc, srv)
}

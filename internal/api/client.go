package api

import (
	"context"

	"google.golang.org/grpc"
)

// CustodyClient is the client side of CustodyServer. Every call is sent
// with the JSON content-subtype.
type CustodyClient interface {
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	CreateWallet(ctx context.Context, in *CreateWalletRequest, opts ...grpc.CallOption) (*CreateWalletResponse, error)
	Authenticate(ctx context.Context, in *AuthenticateRequest, opts ...grpc.CallOption) (*AuthenticateResponse, error)
	Logout(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error)
	WhoAmI(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SessionResponse, error)
	SignMessage(ctx context.Context, in *SignMessageRequest, opts ...grpc.CallOption) (*SignMessageResponse, error)
	VerifySignature(ctx context.Context, in *VerifySignatureRequest, opts ...grpc.CallOption) (*VerifySignatureResponse, error)
	ChangePassword(ctx context.Context, in *ChangePasswordRequest, opts ...grpc.CallOption) (*Empty, error)
	ExportPrivateKey(ctx context.Context, in *ExportPrivateKeyRequest, opts ...grpc.CallOption) (*ExportPrivateKeyResponse, error)
	InitiateRecovery(ctx context.Context, in *InitiateRecoveryRequest, opts ...grpc.CallOption) (*Empty, error)
	ResetPassword(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*Empty, error)
	GetWallet(ctx context.Context, in *GetWalletRequest, opts ...grpc.CallOption) (*WalletInfo, error)
	Deactivate(ctx context.Context, in *SetActiveRequest, opts ...grpc.CallOption) (*Empty, error)
	Reactivate(ctx context.Context, in *SetActiveRequest, opts ...grpc.CallOption) (*Empty, error)
}

type custodyClient struct {
	cc grpc.ClientConnInterface
}

func NewCustodyClient(cc grpc.ClientConnInterface) CustodyClient {
	return &custodyClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *custodyClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *custodyClient) CreateWallet(ctx context.Context, in *CreateWalletRequest, opts ...grpc.CallOption) (*CreateWalletResponse, error) {
	return invoke[CreateWalletResponse](ctx, c.cc, MethodCreateWallet, in, opts)
}

func (c *custodyClient) Authenticate(ctx context.Context, in *AuthenticateRequest, opts ...grpc.CallOption) (*AuthenticateResponse, error) {
	return invoke[AuthenticateResponse](ctx, c.cc, MethodAuthenticate, in, opts)
}

func (c *custodyClient) Logout(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodLogout, in, opts)
}

func (c *custodyClient) WhoAmI(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, MethodWhoAmI, in, opts)
}

func (c *custodyClient) SignMessage(ctx context.Context, in *SignMessageRequest, opts ...grpc.CallOption) (*SignMessageResponse, error) {
	return invoke[SignMessageResponse](ctx, c.cc, MethodSignMessage, in, opts)
}

func (c *custodyClient) VerifySignature(ctx context.Context, in *VerifySignatureRequest, opts ...grpc.CallOption) (*VerifySignatureResponse, error) {
	return invoke[VerifySignatureResponse](ctx, c.cc, MethodVerifySignature, in, opts)
}

func (c *custodyClient) ChangePassword(ctx context.Context, in *ChangePasswordRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodChangePassword, in, opts)
}

func (c *custodyClient) ExportPrivateKey(ctx context.Context, in *ExportPrivateKeyRequest, opts ...grpc.CallOption) (*ExportPrivateKeyResponse, error) {
	return invoke[ExportPrivateKeyResponse](ctx, c.cc, MethodExportPrivateKey, in, opts)
}

func (c *custodyClient) InitiateRecovery(ctx context.Context, in *InitiateRecoveryRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodInitiateRecovery, in, opts)
}

func (c *custodyClient) ResetPassword(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodResetPassword, in, opts)
}

func (c *custodyClient) GetWallet(ctx context.Context, in *GetWalletRequest, opts ...grpc.CallOption) (*WalletInfo, error) {
	return invoke[WalletInfo](ctx, c.cc, MethodGetWallet, in, opts)
}

func (c *custodyClient) Deactivate(ctx context.Context, in *SetActiveRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodDeactivate, in, opts)
}

func (c *custodyClient) Reactivate(ctx context.Context, in *SetActiveRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodReactivate, in, opts)
}

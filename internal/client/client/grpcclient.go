package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/custodykeeper/internal/api"
	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL   string
	conn          *grpc.ClientConn
	client        api.CustodyClient
	sessionToken  string
	operatorToken string
}

func withToken(ctx context.Context, key, token string) context.Context {
	if token == "" {
		return ctx
	}
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(key, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// tokenInterceptor attaches whichever tokens the client holds.
func (s *GRPCClient) tokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	ctx = withToken(ctx, common.SessionTokenHeaderName, s.sessionToken)
	ctx = withToken(ctx, common.OperatorTokenHeaderName, s.operatorToken)
	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewCustodyClientService(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.tokenInterceptor),
	)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewCustodyClient(conn)
	return nil
}

func (s *GRPCClient) SetSessionToken(token string)  { s.sessionToken = token }
func (s *GRPCClient) SetOperatorToken(token string) { s.operatorToken = token }

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %s", st.Message())
	}
}

func (s *GRPCClient) requireSession() error {
	if s.sessionToken == "" {
		return ErrNoSession
	}
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	_, err := s.client.Ping(ctx, &api.PingRequest{})
	return s.mapError(err)
}

func (s *GRPCClient) CreateWallet(ctx context.Context, email string, password []byte) (*api.CreateWalletResponse, error) {
	resp, err := s.client.CreateWallet(ctx, &api.CreateWalletRequest{Email: email, Password: password})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

// Login authenticates and keeps the returned session token for later calls.
func (s *GRPCClient) Login(ctx context.Context, email string, password []byte) (*api.AuthenticateResponse, error) {
	resp, err := s.client.Authenticate(ctx, &api.AuthenticateRequest{Email: email, Password: password})
	if err != nil {
		return nil, s.mapError(err)
	}
	s.sessionToken = resp.SessionToken
	return resp, nil
}

func (s *GRPCClient) Logout(ctx context.Context) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	if _, err := s.client.Logout(ctx, &api.Empty{}); err != nil {
		return s.mapError(err)
	}
	s.sessionToken = ""
	return nil
}

func (s *GRPCClient) WhoAmI(ctx context.Context) (*api.SessionResponse, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	resp, err := s.client.WhoAmI(ctx, &api.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) SignMessage(ctx context.Context, address string, message []byte) (string, error) {
	if err := s.requireSession(); err != nil {
		return "", err
	}
	resp, err := s.client.SignMessage(ctx, &api.SignMessageRequest{Address: address, Message: message})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.Signature, nil
}

func (s *GRPCClient) VerifySignature(ctx context.Context, address string, message []byte, signature string) (bool, error) {
	resp, err := s.client.VerifySignature(ctx, &api.VerifySignatureRequest{Address: address, Message: message, Signature: signature})
	if err != nil {
		return false, s.mapError(err)
	}
	return resp.Valid, nil
}

func (s *GRPCClient) ChangePassword(ctx context.Context, address string, oldPassword, newPassword []byte) error {
	_, err := s.client.ChangePassword(ctx, &api.ChangePasswordRequest{Address: address, OldPassword: oldPassword, NewPassword: newPassword})
	return s.mapError(err)
}

func (s *GRPCClient) ExportPrivateKey(ctx context.Context, address string, password []byte) (string, error) {
	resp, err := s.client.ExportPrivateKey(ctx, &api.ExportPrivateKeyRequest{Address: address, Password: password})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.PrivateKey, nil
}

func (s *GRPCClient) InitiateRecovery(ctx context.Context, email string) error {
	_, err := s.client.InitiateRecovery(ctx, &api.InitiateRecoveryRequest{Email: email})
	return s.mapError(err)
}

func (s *GRPCClient) ResetPassword(ctx context.Context, token string, newPassword []byte) error {
	_, err := s.client.ResetPassword(ctx, &api.ResetPasswordRequest{Token: token, NewPassword: newPassword})
	return s.mapError(err)
}

func (s *GRPCClient) GetWallet(ctx context.Context, address string) (*api.WalletInfo, error) {
	resp, err := s.client.GetWallet(ctx, &api.GetWalletRequest{Address: address})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) SetActive(ctx context.Context, address string, active bool, reason string) error {
	req := &api.SetActiveRequest{Address: address, Reason: reason}
	var err error
	if active {
		_, err = s.client.Reactivate(ctx, req)
	} else {
		_, err = s.client.Deactivate(ctx, req)
	}
	return s.mapError(err)
}

package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/custodykeeper/internal/api"
	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {

	if s.health != nil {
		if err := s.health(ctx); err != nil {
			s.logger.Error(ctx, "health check failed", "error", err)
			return nil, status.Error(codes.Unavailable, common.PublicMessage(common.ErrStoreUnavailable))
		}
	}

	return &api.PingResponse{Status: "OK"}, nil

}

func (s *GRPCServer) CreateWallet(ctx context.Context, req *api.CreateWalletRequest) (*api.CreateWalletResponse, error) {
	defer common.WipeByteArray(req.Password)

	sum, err := s.wallets.CreateWallet(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodCreateWallet, err)
	}

	return &api.CreateWalletResponse{WalletID: sum.ID, Address: sum.Address, CreatedAt: sum.CreatedAt}, nil
}

func (s *GRPCServer) Authenticate(ctx context.Context, req *api.AuthenticateRequest) (*api.AuthenticateResponse, error) {
	defer common.WipeByteArray(req.Password)

	ticket, err := s.wallets.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodAuthenticate, err)
	}

	return &api.AuthenticateResponse{
		SessionToken: ticket.Token,
		WalletID:     ticket.WalletID,
		Address:      ticket.Address,
		ExpiresAt:    ticket.ExpiresAt,
	}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *api.Empty) (*api.Empty, error) {
	if err := s.wallets.Logout(ctx, sessionTokenFrom(ctx)); err != nil {
		return nil, s.toStatus(ctx, api.MethodLogout, err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) WhoAmI(ctx context.Context, req *api.Empty) (*api.SessionResponse, error) {
	info, err := s.wallets.VerifySession(ctx, sessionTokenFrom(ctx))
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodWhoAmI, err)
	}
	return &api.SessionResponse{WalletID: info.WalletID, Address: info.Address, ExpiresAt: info.ExpiresAt}, nil
}

func (s *GRPCServer) SignMessage(ctx context.Context, req *api.SignMessageRequest) (*api.SignMessageResponse, error) {
	sig, err := s.wallets.SignMessage(ctx, req.Address, req.Message, sessionTokenFrom(ctx))
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodSignMessage, err)
	}
	return &api.SignMessageResponse{Signature: sig}, nil
}

func (s *GRPCServer) VerifySignature(ctx context.Context, req *api.VerifySignatureRequest) (*api.VerifySignatureResponse, error) {
	ok, err := s.wallets.VerifySignature(ctx, req.Address, req.Message, req.Signature)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodVerifySignature, err)
	}
	return &api.VerifySignatureResponse{Valid: ok}, nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *api.ChangePasswordRequest) (*api.Empty, error) {
	defer common.WipeByteArray(req.OldPassword)
	defer common.WipeByteArray(req.NewPassword)

	if err := s.wallets.ChangePassword(ctx, req.Address, req.OldPassword, req.NewPassword); err != nil {
		return nil, s.toStatus(ctx, api.MethodChangePassword, err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) ExportPrivateKey(ctx context.Context, req *api.ExportPrivateKeyRequest) (*api.ExportPrivateKeyResponse, error) {
	defer common.WipeByteArray(req.Password)

	priv, err := s.wallets.ExportPrivateKey(ctx, req.Address, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodExportPrivateKey, err)
	}
	defer common.WipeByteArray(priv)

	return &api.ExportPrivateKeyResponse{PrivateKey: hexutil.Encode(priv)}, nil
}

// InitiateRecovery answers OK whether or not the email is registered. The
// token only ever reaches the owner through the notifier.
func (s *GRPCServer) InitiateRecovery(ctx context.Context, req *api.InitiateRecoveryRequest) (*api.Empty, error) {
	_, err := s.recovery.Initiate(ctx, req.Email)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrEmailNotFound), errors.Is(err, common.ErrWalletInactive):
		s.logger.Info(ctx, "recovery requested for unknown or inactive wallet")
	default:
		return nil, s.toStatus(ctx, api.MethodInitiateRecovery, err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) ResetPassword(ctx context.Context, req *api.ResetPasswordRequest) (*api.Empty, error) {
	defer common.WipeByteArray(req.NewPassword)

	if err := s.recovery.ConsumeAndReset(ctx, req.Token, req.NewPassword); err != nil {
		return nil, s.toStatus(ctx, api.MethodResetPassword, err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) GetWallet(ctx context.Context, req *api.GetWalletRequest) (*api.WalletInfo, error) {
	sum, err := s.wallets.GetWallet(ctx, req.Address)
	if err != nil {
		return nil, s.toStatus(ctx, api.MethodGetWallet, err)
	}
	return &api.WalletInfo{
		ID:          sum.ID,
		Address:     sum.Address,
		Email:       sum.Email,
		Active:      sum.Active,
		CreatedAt:   sum.CreatedAt,
		LastLoginAt: sum.LastLoginAt,
	}, nil
}

func (s *GRPCServer) Deactivate(ctx context.Context, req *api.SetActiveRequest) (*api.Empty, error) {
	if err := s.wallets.Deactivate(ctx, req.Address, operatorFrom(ctx), req.Reason); err != nil {
		return nil, s.toStatus(ctx, api.MethodDeactivate, err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) Reactivate(ctx context.Context, req *api.SetActiveRequest) (*api.Empty, error) {
	if err := s.wallets.Reactivate(ctx, req.Address, operatorFrom(ctx), req.Reason); err != nil {
		return nil, s.toStatus(ctx, api.MethodReactivate, err)
	}
	return &api.Empty{}, nil
}

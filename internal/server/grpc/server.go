// Package grpc exposes the custody services over gRPC.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/api"
	"github.com/dmitrijs2005/custodykeeper/internal/logging"
	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
	"github.com/dmitrijs2005/custodykeeper/internal/server/services"
	"google.golang.org/grpc"
)

// walletService is the part of services.WalletService the transport uses.
type walletService interface {
	CreateWallet(ctx context.Context, email string, password []byte) (*models.WalletSummary, error)
	Authenticate(ctx context.Context, email string, password []byte) (*services.SessionTicket, error)
	VerifySession(ctx context.Context, token string) (*services.SessionInfo, error)
	Logout(ctx context.Context, token string) error
	SignMessage(ctx context.Context, address string, message []byte, sessionToken string) (string, error)
	VerifySignature(ctx context.Context, address string, message []byte, signature string) (bool, error)
	ChangePassword(ctx context.Context, address string, oldPassword, newPassword []byte) error
	ExportPrivateKey(ctx context.Context, address string, password []byte) ([]byte, error)
	GetWallet(ctx context.Context, address string) (*models.WalletSummary, error)
	Deactivate(ctx context.Context, address, actor, reason string) error
	Reactivate(ctx context.Context, address, actor, reason string) error
}

type recoveryService interface {
	Initiate(ctx context.Context, email string) (*services.RecoveryTicket, error)
	ConsumeAndReset(ctx context.Context, token string, newPassword []byte) error
}

var (
	_ walletService     = (*services.WalletService)(nil)
	_ recoveryService   = (*services.RecoveryService)(nil)
	_ api.CustodyServer = (*GRPCServer)(nil)
)

// GRPCServer implements api.CustodyServer.
type GRPCServer struct {
	address   string
	wallets   walletService
	recovery  recoveryService
	health    func(ctx context.Context) error
	logger    logging.Logger
	jwtSecret []byte
	// operatorTTL caps the lifetime of accepted operator tokens; zero means
	// only exp is checked.
	operatorTTL time.Duration
}

type Option func(*GRPCServer)

// WithOperatorTokenTTL rejects operator tokens minted for longer than d.
func WithOperatorTokenTTL(d time.Duration) Option {
	return func(s *GRPCServer) { s.operatorTTL = d }
}

// NewGRPCServer wires the transport. health reports store reachability for
// Ping and may be nil.
func NewGRPCServer(a string, l logging.Logger, ws walletService, rs recoveryService, health func(ctx context.Context) error, secretKey string, opts ...Option) *GRPCServer {
	s := &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		wallets:   ws,
		recovery:  rs,
		health:    health,
		jwtSecret: []byte(secretKey),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// newServer builds the grpc.Server with interceptors and the custody
// service registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.authInterceptor))
	api.RegisterCustodyServer(srv, s)
	return srv
}

// Run serves on the configured address until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on l until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, l net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", l.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(l); err != nil {
		return err
	}

	return nil
}

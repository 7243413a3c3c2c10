package cli

import (
	"bufio"
	"context"
	"io"

	"github.com/dmitrijs2005/custodykeeper/internal/api"
	"github.com/dmitrijs2005/custodykeeper/internal/client/client"
	"github.com/dmitrijs2005/custodykeeper/internal/client/config"
)

// custodyAPI is the part of client.GRPCClient the commands use.
type custodyAPI interface {
	Close() error
	SetSessionToken(token string)
	SetOperatorToken(token string)
	Ping(ctx context.Context) error
	CreateWallet(ctx context.Context, email string, password []byte) (*api.CreateWalletResponse, error)
	Login(ctx context.Context, email string, password []byte) (*api.AuthenticateResponse, error)
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) (*api.SessionResponse, error)
	SignMessage(ctx context.Context, address string, message []byte) (string, error)
	VerifySignature(ctx context.Context, address string, message []byte, signature string) (bool, error)
	ChangePassword(ctx context.Context, address string, oldPassword, newPassword []byte) error
	ExportPrivateKey(ctx context.Context, address string, password []byte) (string, error)
	InitiateRecovery(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token string, newPassword []byte) error
	GetWallet(ctx context.Context, address string) (*api.WalletInfo, error)
	SetActive(ctx context.Context, address string, active bool, reason string) error
}

var _ custodyAPI = (*client.GRPCClient)(nil)

type App struct {
	config     *config.Config
	configPath string
	out        io.Writer
	reader     *bufio.Reader
	dial       func(addr string) (custodyAPI, error)
}

func NewApp(in io.Reader, out io.Writer) *App {
	return &App{
		out:    out,
		reader: bufio.NewReader(in),
		dial: func(addr string) (custodyAPI, error) {
			return client.NewCustodyClientService(addr)
		},
	}
}

// withClient dials the server, applies the configured tokens and runs fn
// under the configured timeout.
func (a *App) withClient(ctx context.Context, fn func(ctx context.Context, c custodyAPI) error) error {
	c, err := a.dial(a.config.ServerEndpointAddr)
	if err != nil {
		return err
	}
	defer c.Close()

	c.SetSessionToken(a.config.SessionToken)
	c.SetOperatorToken(a.config.OperatorToken)

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	return fn(ctx, c)
}

// emailArg takes the email from args or asks for it.
func (a *App) emailArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return GetSimpleText(a.reader, "Email", a.out)
}

package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/api"
	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/dmitrijs2005/custodykeeper/internal/logging"
	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
	"github.com/dmitrijs2005/custodykeeper/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ---- fakes ----

type fakeWallets struct {
	summary *models.WalletSummary
	ticket  *services.SessionTicket
	info    *services.SessionInfo
	sig     string
	valid   bool
	priv    []byte
	err     error

	gotToken    string
	gotActor    string
	gotReason   string
	gotPassword []byte
}

func (f *fakeWallets) CreateWallet(ctx context.Context, email string, password []byte) (*models.WalletSummary, error) {
	f.gotPassword = password
	return f.summary, f.err
}
func (f *fakeWallets) Authenticate(ctx context.Context, email string, password []byte) (*services.SessionTicket, error) {
	return f.ticket, f.err
}
func (f *fakeWallets) VerifySession(ctx context.Context, token string) (*services.SessionInfo, error) {
	f.gotToken = token
	return f.info, f.err
}
func (f *fakeWallets) Logout(ctx context.Context, token string) error {
	f.gotToken = token
	return f.err
}
func (f *fakeWallets) SignMessage(ctx context.Context, address string, message []byte, token string) (string, error) {
	f.gotToken = token
	return f.sig, f.err
}
func (f *fakeWallets) VerifySignature(ctx context.Context, address string, message []byte, signature string) (bool, error) {
	return f.valid, f.err
}
func (f *fakeWallets) ChangePassword(ctx context.Context, address string, oldPassword, newPassword []byte) error {
	return f.err
}
func (f *fakeWallets) ExportPrivateKey(ctx context.Context, address string, password []byte) ([]byte, error) {
	return f.priv, f.err
}
func (f *fakeWallets) GetWallet(ctx context.Context, address string) (*models.WalletSummary, error) {
	return f.summary, f.err
}
func (f *fakeWallets) Deactivate(ctx context.Context, address, actor, reason string) error {
	f.gotActor, f.gotReason = actor, reason
	return f.err
}
func (f *fakeWallets) Reactivate(ctx context.Context, address, actor, reason string) error {
	f.gotActor, f.gotReason = actor, reason
	return f.err
}

type fakeRecovery struct {
	initErr  error
	resetErr error
}

func (f *fakeRecovery) Initiate(ctx context.Context, email string) (*services.RecoveryTicket, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &services.RecoveryTicket{Token: "secret-token"}, nil
}
func (f *fakeRecovery) ConsumeAndReset(ctx context.Context, token string, newPassword []byte) error {
	return f.resetErr
}

// ---- helpers ----

func newServer(w walletService, r recoveryService) *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", logging.Nop{}, w, r, nil, "k")
}

func requireCode(t *testing.T, err error, want codes.Code) *status.Status {
	t.Helper()
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	require.Equal(t, want, st.Code(), st.Message())
	return st
}

// ---- tests ----

func TestPing(t *testing.T) {
	s := newServer(&fakeWallets{}, &fakeRecovery{})
	resp, err := s.Ping(context.Background(), &api.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Status)

	s.health = func(context.Context) error { return errors.New("db down") }
	_, err = s.Ping(context.Background(), &api.PingRequest{})
	requireCode(t, err, codes.Unavailable)
}

func TestCreateWallet_OKAndWipesPassword(t *testing.T) {
	created := time.Now()
	w := &fakeWallets{summary: &models.WalletSummary{ID: "w1", Address: "0xabc", CreatedAt: created}}
	s := newServer(w, &fakeRecovery{})

	resp, err := s.CreateWallet(context.Background(), &api.CreateWalletRequest{Email: "a@b", Password: []byte("pw")})
	require.NoError(t, err)
	assert.Equal(t, "w1", resp.WalletID)
	assert.Equal(t, "0xabc", resp.Address)
	assert.Equal(t, []byte{0, 0}, w.gotPassword)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
		msg  string
	}{
		{common.ErrEmailTaken, codes.AlreadyExists, "email already registered"},
		{common.ErrInvalidCredentials, codes.Unauthenticated, "invalid credentials"},
		{common.ErrEmailNotFound, codes.Unauthenticated, "invalid credentials"},
		{common.ErrWalletInactive, codes.Unauthenticated, "invalid credentials"},
		{common.ErrInvalidInput, codes.InvalidArgument, "invalid input"},
		{common.ErrIntegrityFailure, codes.DataLoss, "stored key material could not be verified"},
		{common.ErrBusy, codes.ResourceExhausted, "service busy, retry later"},
		{common.ErrVersionConflict, codes.Aborted, "concurrent update, retry"},
		{common.ErrorNotFound, codes.NotFound, "not found"},
		{errors.Join(common.ErrStoreUnavailable, errors.New("dial tcp 10.0.0.1:5432")), codes.Unavailable, "service temporarily unavailable"},
		{errors.New("boom"), codes.Internal, "internal error"},
		{context.DeadlineExceeded, codes.DeadlineExceeded, context.DeadlineExceeded.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			s := newServer(&fakeWallets{err: tt.err}, &fakeRecovery{})
			_, err := s.CreateWallet(context.Background(), &api.CreateWalletRequest{})
			st := requireCode(t, err, tt.code)
			assert.Equal(t, tt.msg, st.Message())
		})
	}
}

func TestAuthenticate(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	w := &fakeWallets{ticket: &services.SessionTicket{Token: "tok", WalletID: "w1", Address: "0xabc", ExpiresAt: exp}}
	s := newServer(w, &fakeRecovery{})

	resp, err := s.Authenticate(context.Background(), &api.AuthenticateRequest{Email: "a@b", Password: []byte("pw")})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.SessionToken)
	assert.Equal(t, exp, resp.ExpiresAt)
}

func TestSessionHandlersUseTokenFromContext(t *testing.T) {
	w := &fakeWallets{sig: "0xsig", info: &services.SessionInfo{Address: "0xabc"}}
	s := newServer(w, &fakeRecovery{})
	ctx := context.WithValue(context.Background(), sessionTokenKey, "tok-1")

	resp, err := s.SignMessage(ctx, &api.SignMessageRequest{Address: "0xabc", Message: []byte("m")})
	require.NoError(t, err)
	assert.Equal(t, "0xsig", resp.Signature)
	assert.Equal(t, "tok-1", w.gotToken)

	who, err := s.WhoAmI(ctx, &api.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", who.Address)

	w.gotToken = ""
	_, err = s.Logout(ctx, &api.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", w.gotToken)
}

func TestExportPrivateKey_Hex(t *testing.T) {
	w := &fakeWallets{priv: []byte{0xde, 0xad, 0xbe, 0xef}}
	s := newServer(w, &fakeRecovery{})

	resp, err := s.ExportPrivateKey(context.Background(), &api.ExportPrivateKeyRequest{Address: "0xabc", Password: []byte("pw")})
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", resp.PrivateKey)
	assert.Equal(t, []byte{0, 0, 0, 0}, w.priv)
}

func TestInitiateRecovery_DoesNotRevealEmail(t *testing.T) {
	for _, initErr := range []error{nil, common.ErrEmailNotFound, common.ErrWalletInactive} {
		s := newServer(&fakeWallets{}, &fakeRecovery{initErr: initErr})
		resp, err := s.InitiateRecovery(context.Background(), &api.InitiateRecoveryRequest{Email: "x@y"})
		require.NoError(t, err)
		assert.Equal(t, &api.Empty{}, resp)
	}

	s := newServer(&fakeWallets{}, &fakeRecovery{initErr: common.ErrInvalidInput})
	_, err := s.InitiateRecovery(context.Background(), &api.InitiateRecoveryRequest{Email: "bad"})
	requireCode(t, err, codes.InvalidArgument)

	s = newServer(&fakeWallets{}, &fakeRecovery{initErr: common.ErrStoreUnavailable})
	_, err = s.InitiateRecovery(context.Background(), &api.InitiateRecoveryRequest{Email: "x@y"})
	requireCode(t, err, codes.Unavailable)
}

func TestResetPassword(t *testing.T) {
	s := newServer(&fakeWallets{}, &fakeRecovery{resetErr: common.ErrInvalidOrExpiredToken})
	_, err := s.ResetPassword(context.Background(), &api.ResetPasswordRequest{Token: "t", NewPassword: []byte("pw")})
	st := requireCode(t, err, codes.Unauthenticated)
	assert.Equal(t, "invalid credentials", st.Message())
}

func TestOperatorHandlersPassActor(t *testing.T) {
	w := &fakeWallets{summary: &models.WalletSummary{ID: "w1", Address: "0xabc", Active: true}}
	s := newServer(w, &fakeRecovery{})
	ctx := context.WithValue(context.Background(), operatorKey, "ops-1")

	_, err := s.Deactivate(ctx, &api.SetActiveRequest{Address: "0xabc", Reason: "fraud"})
	require.NoError(t, err)
	assert.Equal(t, "ops-1", w.gotActor)
	assert.Equal(t, "fraud", w.gotReason)

	_, err = s.Reactivate(ctx, &api.SetActiveRequest{Address: "0xabc"})
	require.NoError(t, err)

	info, err := s.GetWallet(ctx, &api.GetWalletRequest{Address: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, "w1", info.ID)
	assert.True(t, info.Active)
}

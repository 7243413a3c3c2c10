package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/cryptox"
	"github.com/dmitrijs2005/custodykeeper/internal/logging"
	"github.com/dmitrijs2005/custodykeeper/internal/server/escrow"
	"github.com/dmitrijs2005/custodykeeper/internal/server/locks"
	"github.com/dmitrijs2005/custodykeeper/internal/server/models"
	"github.com/dmitrijs2005/custodykeeper/internal/server/notify"
	"github.com/dmitrijs2005/custodykeeper/internal/server/store"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.AuditEvent
	err    error
}

func (r *recordingSink) Record(ctx context.Context, ev *models.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *ev)
	return r.err
}

func (r *recordingSink) byAction(action string) []models.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AuditEvent
	for _, ev := range r.events {
		if ev.Action == action {
			out = append(out, ev)
		}
	}
	return out
}

type captureNotifier struct {
	mu      sync.Mutex
	tickets []notify.Ticket
	err     error
}

func (c *captureNotifier) SendRecovery(ctx context.Context, t *notify.Ticket) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.tickets = append(c.tickets, *t)
	return nil
}

func (c *captureNotifier) last() notify.Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickets[len(c.tickets)-1]
}

type testEnv struct {
	store    *store.MemoryStore
	deriver  *cryptox.Deriver
	escrow   escrow.Escrow
	wallets  *WalletService
	sessions *SessionService
	recovery *RecoveryService
	audit    *recordingSink
	notifier *captureNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	d, err := cryptox.NewDeriver(cryptox.Params{
		Iterations:   1000,
		Workers:      4,
		QueueTimeout: 5 * time.Second,
		BcryptCost:   bcrypt.MinCost,
	})
	require.NoError(t, err)

	esc, err := escrow.NewLocal(strings.Repeat("ab", 32))
	require.NoError(t, err)

	st := store.NewMemoryStore()
	sink := &recordingSink{}
	notifier := &captureNotifier{}
	lk := locks.NewLocal()
	log := logging.Nop{}

	ss := NewSessionService(st, time.Hour, log)
	return &testEnv{
		store:    st,
		deriver:  d,
		escrow:   esc,
		sessions: ss,
		wallets:  NewWalletService(st, d, esc, ss, lk, sink, log),
		recovery: NewRecoveryService(st, d, esc, lk, sink, notifier, time.Hour, log),
		audit:    sink,
		notifier: notifier,
	}
}

// createWallet registers email with password and returns its address.
func (e *testEnv) createWallet(t *testing.T, email, password string) string {
	t.Helper()
	sum, err := e.wallets.CreateWallet(context.Background(), email, []byte(password))
	require.NoError(t, err)
	return sum.Address
}

func (e *testEnv) login(t *testing.T, email, password string) *SessionTicket {
	t.Helper()
	ticket, err := e.wallets.Authenticate(context.Background(), email, []byte(password))
	require.NoError(t, err)
	return ticket
}

func (e *testEnv) stored(t *testing.T, address string) *models.Wallet {
	t.Helper()
	w, err := e.store.Wallets().GetByAddress(context.Background(), address)
	require.NoError(t, err)
	return w
}

// gatedStore holds the first InTx call until release is closed.
type gatedStore struct {
	*store.MemoryStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(st *store.MemoryStore) *gatedStore {
	return &gatedStore{MemoryStore: st, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedStore) InTx(ctx context.Context, fn func(ctx context.Context, r store.Repos) error) error {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.MemoryStore.InTx(ctx, fn)
}

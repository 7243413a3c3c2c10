package cryptox

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"golang.org/x/sync/semaphore"
)

// Params configures a Deriver.
type Params struct {
	Iterations   int
	Workers      int
	QueueTimeout time.Duration
	BcryptCost   int
}

// DefaultParams returns production settings sized to the host.
func DefaultParams() Params {
	return Params{
		Iterations:   DefaultIterations,
		Workers:      runtime.NumCPU(),
		QueueTimeout: 5 * time.Second,
		BcryptCost:   12,
	}
}

// Material is a derived key plus the IV for the next Seal.
type Material struct {
	Key []byte
	IV  []byte
}

// Wipe zeroes the key. The IV is not secret.
func (m *Material) Wipe() {
	if m == nil {
		return
	}
	common.WipeByteArray(m.Key)
}

// Deriver bounds the number of concurrent slow hash computations (PBKDF2
// and bcrypt). Once all workers are busy, callers wait at most QueueTimeout
// and then fail with common.ErrBusy.
type Deriver struct {
	params Params
	sem    *semaphore.Weighted
}

func NewDeriver(p Params) (*Deriver, error) {
	if p.Iterations <= 0 {
		return nil, fmt.Errorf("iterations must be positive, got %d", p.Iterations)
	}
	if p.Workers <= 0 {
		p.Workers = runtime.NumCPU()
	}
	if p.QueueTimeout <= 0 {
		p.QueueTimeout = 5 * time.Second
	}
	if p.BcryptCost == 0 {
		p.BcryptCost = 12
	}
	return &Deriver{params: p, sem: semaphore.NewWeighted(int64(p.Workers))}, nil
}

// BcryptCost is the cost HashPassword uses.
func (d *Deriver) BcryptCost() int {
	return d.params.BcryptCost
}

func (d *Deriver) do(ctx context.Context, fn func() error) error {
	wctx, cancel := context.WithTimeout(ctx, d.params.QueueTimeout)
	defer cancel()

	if err := d.sem.Acquire(wctx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return common.ErrBusy
	}
	defer d.sem.Release(1)

	return fn()
}

// Derive produces the key for (password, salt) together with a fresh IV.
// Use it on every encryption event.
func (d *Deriver) Derive(ctx context.Context, password []byte, salt string) (*Material, error) {
	key, err := d.DeriveKey(ctx, password, salt)
	if err != nil {
		return nil, err
	}
	iv, err := NewIV()
	if err != nil {
		common.WipeByteArray(key)
		return nil, err
	}
	return &Material{Key: key, IV: iv}, nil
}

// DeriveKey recomputes the key only, for opening an existing envelope.
func (d *Deriver) DeriveKey(ctx context.Context, password []byte, salt string) ([]byte, error) {
	var key []byte
	err := d.do(ctx, func() error {
		var derr error
		key, derr = DeriveKey(password, []byte(salt), d.params.Iterations)
		return derr
	})
	return key, err
}

// HashPassword runs bcrypt under the same concurrency bound.
func (d *Deriver) HashPassword(ctx context.Context, password []byte) (string, error) {
	var h string
	err := d.do(ctx, func() error {
		var herr error
		h, herr = HashPassword(password, d.params.BcryptCost)
		return herr
	})
	return h, err
}

// CheckPassword runs the bcrypt comparison under the concurrency bound.
func (d *Deriver) CheckPassword(ctx context.Context, hash string, password []byte) (bool, error) {
	var ok bool
	err := d.do(ctx, func() error {
		ok = CheckPassword(hash, password)
		return nil
	})
	return ok, err
}

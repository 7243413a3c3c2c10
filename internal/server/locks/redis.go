package locks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/dmitrijs2005/custodykeeper/internal/logging"
	"github.com/redis/go-redis/v9"
)

// redisAPI is the subset of *redis.Client used here.
type redisAPI interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// extendScript resets the TTL only if the key still holds our token.
const extendScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`

// Redis is a Locker shared by every server instance. Locks expire after TTL
// so a crashed holder cannot wedge a wallet; a live holder renews its lock
// every TTL/3 until it unlocks.
type Redis struct {
	client redisAPI
	ttl    time.Duration
	retry  time.Duration
	logger logging.Logger
}

func NewRedis(client redisAPI, ttl time.Duration, logger logging.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, retry: 25 * time.Millisecond, logger: logger.With("module", "locks")}
}

func lockKey(key string) string {
	return "custody:lock:" + key
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	token, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	k := lockKey(key)

	for {
		ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: redis lock: %v", common.ErrStoreUnavailable, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retry):
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.renew(k, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// Release even if the caller's ctx is already canceled.
			rctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := r.client.Eval(rctx, releaseScript, []string{k}, token).Err(); err != nil {
				r.logger.Warn(rctx, "redis unlock failed", "key", k, "error", err)
			}
		})
	}, nil
}

// renew extends the lock at k until stop is closed or the lock is lost.
func (r *Redis) renew(k, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := r.ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := r.client.Eval(ctx, extendScript, []string{k}, token, r.ttl.Milliseconds()).Int64()
		cancel()
		if err != nil {
			r.logger.Warn(ctx, "redis lock renewal failed", "key", k, "error", err)
			continue
		}
		if n == 0 {
			r.logger.Error(ctx, "redis lock lost before unlock", "key", k)
			return
		}
	}
}

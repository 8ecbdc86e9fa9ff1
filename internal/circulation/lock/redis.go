package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"circulation/internal/circulation/metrics"
	"circulation/pkg/platform/circuit"
	"circulation/pkg/platform/sentinel"
)

const (
	defaultTTL          = 10 * time.Second
	defaultPollInterval = 10 * time.Millisecond
	maxPollInterval     = 100 * time.Millisecond
	releaseTimeout      = time.Second
	keyPrefix           = "circulation:item-lock:"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lease re-acquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis is a distributed Locker built on SET NX PX leases.
//
// Redis failures feed a circuit breaker. While the lock cannot be taken in
// Redis, or the breaker is open, the lock is taken in-process through the
// fallback instead. Database row locks stay authoritative either way.
type Redis struct {
	client       redis.UniversalClient
	fallback     Locker
	breaker      *circuit.Breaker
	ttl          time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type RedisOption func(*Redis)

// WithTTL sets the lease; a crashed holder blocks the item at most this long.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithPollInterval(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) RedisOption {
	return func(r *Redis) {
		r.breaker = b
	}
}

func WithLogger(logger *slog.Logger) RedisOption {
	return func(r *Redis) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) RedisOption {
	return func(r *Redis) {
		r.metrics = m
	}
}

// NewRedis builds a Redis locker that falls back to fallback when Redis
// misbehaves.
func NewRedis(client redis.UniversalClient, fallback Locker, opts ...RedisOption) *Redis {
	r := &Redis{
		client:       client,
		fallback:     fallback,
		breaker:      circuit.New("redis-item-lock"),
		ttl:          defaultTTL,
		pollInterval: defaultPollInterval,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	if r.breaker.IsOpen() {
		r.probe(ctx)
		if r.breaker.IsOpen() {
			return r.lockFallback(ctx, key)
		}
	}

	unlock, err := r.acquire(ctx, key)
	if err == nil {
		r.recordSuccess()
		return unlock, nil
	}
	if errors.Is(err, sentinel.ErrContention) {
		return nil, err
	}

	useFallback, change := r.breaker.RecordFailure()
	if change.Opened {
		r.logger.WarnContext(ctx, "item lock circuit opened, using in-process locks", "error", err)
	}
	if !useFallback {
		r.logger.DebugContext(ctx, "redis item lock failed", "key", key, "error", err)
	}
	return r.lockFallback(ctx, key)
}

func (r *Redis) acquire(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()
	interval := r.pollInterval

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: item %s: %w", sentinel.ErrContention, key, ctxErr)
			}
			return nil, fmt.Errorf("redis set lock: %w", err)
		}
		if ok {
			return r.releaser(redisKey, token), nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: item %s: %w", sentinel.ErrContention, key, ctx.Err())
		case <-timer.C:
		}
		if interval < maxPollInterval {
			interval *= 2
			if interval > maxPollInterval {
				interval = maxPollInterval
			}
		}
	}
}

func (r *Redis) releaser(redisKey, token string) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := releaseScript.Run(ctx, r.client, []string{redisKey}, token).Err(); err != nil {
			// The lease expires on its own after the TTL.
			r.logger.Warn("failed to release redis item lock", "key", redisKey, "error", err)
		}
	}
}

// probe pings Redis while the breaker is open so it can close again.
func (r *Redis) probe(ctx context.Context) {
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.breaker.RecordFailure()
		return
	}
	r.recordSuccess()
}

func (r *Redis) recordSuccess() {
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.Info("item lock circuit closed, using redis locks")
	}
}

func (r *Redis) lockFallback(ctx context.Context, key string) (func(), error) {
	if r.metrics != nil {
		r.metrics.IncrementLockFallbacks()
	}
	return r.fallback.Lock(ctx, key)
}

/* lock.go
 * Makes sure only one grading batch runs per stage at a time. A second batch for a busy stage fails fast.
 * LocalLocker serves a single process; RedisLocker serves several processes sharing one Redis.
 */

package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bootcamp-grader/api/shared"
)

// Release gives a held lock back
type Release func(ctx context.Context) error

// Locker hands out exclusive locks by key. Acquire returns shared.ErrStageBusy when the key is held.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// LocalLocker is an in-process Locker
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return nil, fmt.Errorf("%w: %s", shared.ErrStageBusy, key)
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
		return nil
	}, nil
}

// Held reports whether key is currently locked
func (l *LocalLocker) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

const (
	DefaultTTL    = 2 * time.Hour
	defaultPrefix = "bootcamp-grader:lock:"
)

// compare-and-delete: only the holder's token releases the lock
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// redisClient is the part of the go-redis client the lock uses
type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	redis.Scripter
}

// RedisLocker is a Locker backed by SET NX with a TTL, released by a compare-and-delete script.
// The TTL bounds how long a crashed process can keep a stage locked.
type RedisLocker struct {
	rdb    redisClient
	ttl    time.Duration
	prefix string
	log    *zap.Logger
}

// NewRedisLocker creates a RedisLocker. ttl <= 0 uses DefaultTTL.
func NewRedisLocker(rdb redisClient, ttl time.Duration, log *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, prefix: defaultPrefix, log: log}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrStageBusy, key)
	}
	l.log.Debug("lock acquired", zap.String("key", redisKey))

	return func(ctx context.Context) error {
		deleted, err := releaseScript.Run(ctx, l.rdb, []string{redisKey}, token).Int64()
		if err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		if deleted == 0 {
			l.log.Warn("lock expired or taken over before release", zap.String("key", redisKey))
		}
		return nil
	}, nil
}

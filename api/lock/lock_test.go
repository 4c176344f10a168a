/* lock_test.go
 * Contains unit tests for lock.go
 */

package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootcamp-grader/api/shared"
)

// region LocalLocker

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()

	release, err := l.Acquire(context.Background(), "stage1")
	require.NoError(t, err)
	assert.True(t, l.Held("stage1"))

	_, err = l.Acquire(context.Background(), "stage1")
	assert.ErrorIs(t, err, shared.ErrStageBusy)

	other, err := l.Acquire(context.Background(), "stage2")
	require.NoError(t, err)
	require.NoError(t, other(context.Background()))

	require.NoError(t, release(context.Background()))
	require.NoError(t, release(context.Background()))
	assert.False(t, l.Held("stage1"))

	_, err = l.Acquire(context.Background(), "stage1")
	assert.NoError(t, err)
}

func TestLocalLocker_OneWinner(t *testing.T) {
	l := NewLocalLocker()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Acquire(context.Background(), "stage1"); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestLocalLocker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalLocker().Acquire(ctx, "stage1")
	assert.ErrorIs(t, err, context.Canceled)
}

// endregion

// region RedisLocker

type fakeRedis struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	setErr  error
	evalErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return redis.NewBoolResult(false, f.setErr)
	}
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) compareAndDelete(keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.evalErr != nil {
		return redis.NewCmdResult(nil, f.evalErr)
	}
	if f.values[keys[0]] == args[0].(string) {
		delete(f.values, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.compareAndDelete(keys, args...)
}

func (f *fakeRedis) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return f.compareAndDelete(keys, args...)
}

func (f *fakeRedis) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.compareAndDelete(keys, args...)
}

func (f *fakeRedis) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return f.compareAndDelete(keys, args...)
}

func (f *fakeRedis) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (f *fakeRedis) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringResult("sha", nil)
}

func TestRedisLocker(t *testing.T) {
	rdb := newFakeRedis()
	l := NewRedisLocker(rdb, 0, nil)

	release, err := l.Acquire(context.Background(), "stage2")
	require.NoError(t, err)
	assert.Contains(t, rdb.values, "bootcamp-grader:lock:stage2")
	assert.Equal(t, DefaultTTL, rdb.ttls["bootcamp-grader:lock:stage2"])

	_, err = l.Acquire(context.Background(), "stage2")
	assert.ErrorIs(t, err, shared.ErrStageBusy)

	require.NoError(t, release(context.Background()))
	assert.NotContains(t, rdb.values, "bootcamp-grader:lock:stage2")

	_, err = l.Acquire(context.Background(), "stage2")
	assert.NoError(t, err)
}

func TestRedisLocker_ReleaseDoesNotStealForeignLock(t *testing.T) {
	rdb := newFakeRedis()
	l := NewRedisLocker(rdb, time.Minute, nil)

	release, err := l.Acquire(context.Background(), "stage1")
	require.NoError(t, err)

	// the lock expired and another process took it
	rdb.values["bootcamp-grader:lock:stage1"] = "someone-else"

	require.NoError(t, release(context.Background()))
	assert.Equal(t, "someone-else", rdb.values["bootcamp-grader:lock:stage1"])
}

func TestRedisLocker_Errors(t *testing.T) {
	rdb := newFakeRedis()
	rdb.setErr = errors.New("connection refused")
	l := NewRedisLocker(rdb, time.Minute, nil)

	_, err := l.Acquire(context.Background(), "stage1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrStageBusy)

	rdb.setErr = nil
	release, err := l.Acquire(context.Background(), "stage1")
	require.NoError(t, err)

	rdb.evalErr = errors.New("connection reset")
	assert.Error(t, release(context.Background()))
}

// endregion

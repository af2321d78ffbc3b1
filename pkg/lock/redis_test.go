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
)

// fakeRedis keeps a single key in memory and evaluates the locker's scripts by hash.
type fakeRedis struct {
	redis.Scripter

	mu       sync.Mutex
	owner    string
	renewals int
	releases int
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.owner != "" {
		return redis.NewBoolResult(false, nil)
	}
	f.owner = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if args[0].(string) != f.owner {
		return redis.NewCmdResult(int64(0), nil)
	}
	switch sha1 {
	case renewScript.Hash():
		f.renewals++
	case releaseScript.Hash():
		f.releases++
		f.owner = ""
	default:
		return redis.NewCmdResult(nil, errors.New("unknown script"))
	}
	return redis.NewCmdResult(int64(1), nil)
}

func (f *fakeRedis) counts() (renewals, releases int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renewals, f.releases
}

// expire simulates another instance taking the key after expiry.
func (f *fakeRedis) expire(newOwner string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owner = newOwner
}

func TestRedisLockerRenewsWhileHeld(t *testing.T) {
	client := &fakeRedis{}
	locker := NewRedisLocker(client, 30*time.Millisecond, time.Millisecond, nil)

	release, err := locker.Acquire(context.Background(), "course:c1")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		renewals, _ := client.counts()
		return renewals >= 2
	}, time.Second, 5*time.Millisecond)

	release()
	release()
	renewals, releases := client.counts()
	assert.Equal(t, 1, releases)

	time.Sleep(50 * time.Millisecond)
	after, _ := client.counts()
	assert.Equal(t, renewals, after)
}

func TestRedisLockerWaitsForHolder(t *testing.T) {
	client := &fakeRedis{}
	locker := NewRedisLocker(client, time.Minute, time.Millisecond, nil)

	release, err := locker.Acquire(context.Background(), "course:c1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "course:c1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	second, err := locker.Acquire(context.Background(), "course:c1")
	require.NoError(t, err)
	second()
}

func TestRedisLockerStopsRenewingAfterOwnershipLoss(t *testing.T) {
	client := &fakeRedis{}
	locker := NewRedisLocker(client, 30*time.Millisecond, time.Millisecond, nil)

	release, err := locker.Acquire(context.Background(), "course:c1")
	require.NoError(t, err)
	client.expire("other-instance")

	time.Sleep(60 * time.Millisecond)
	renewals, _ := client.counts()
	assert.Equal(t, 0, renewals)

	release()
	_, releases := client.counts()
	assert.Equal(t, 0, releases)
	client.mu.Lock()
	assert.Equal(t, "other-instance", client.owner)
	client.mu.Unlock()
}

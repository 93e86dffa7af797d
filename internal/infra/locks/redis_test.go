package locks

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBookingService/pkg/logger"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLocker(client, logger.NewNop()), mr
}

func TestRedisLocker_AllOrNothing(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	unlock, err := l.Acquire(ctx, []string{"slotlock:{1:10:2025-06-14}:a", "slotlock:{1:10:2025-06-14}:b"}, time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, []string{"slotlock:{1:10:2025-06-14}:b", "slotlock:{1:10:2025-06-14}:c"}, time.Minute)
	var locked *LockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, []string{"slotlock:{1:10:2025-06-14}:b"}, locked.Keys)
	assert.ErrorIs(t, err, ErrLocked)

	// свободный ключ из неудачного набора не захвачен
	assert.False(t, mr.Exists("slotlock:{1:10:2025-06-14}:c"))

	unlock()
	assert.False(t, mr.Exists("slotlock:{1:10:2025-06-14}:a"))
	assert.False(t, mr.Exists("slotlock:{1:10:2025-06-14}:b"))

	unlockB, err := l.Acquire(ctx, []string{"slotlock:{1:10:2025-06-14}:b"}, time.Minute)
	require.NoError(t, err)
	unlockB()
}

func TestRedisLocker_ReportsEveryTakenKey(t *testing.T) {
	l, _ := newRedisLocker(t)
	ctx := context.Background()

	_, err := l.Acquire(ctx, []string{"k1", "k3"}, time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, []string{"k1", "k2", "k3"}, time.Minute)
	var locked *LockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, []string{"k1", "k3"}, locked.Keys)
}

func TestRedisLocker_KeysExpireWithTTL(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	_, err := l.Acquire(ctx, []string{"k1"}, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, mr.TTL("k1"))

	mr.FastForward(11 * time.Second)

	unlock, err := l.Acquire(ctx, []string{"k1"}, 10*time.Second)
	require.NoError(t, err)
	unlock()
}

func TestRedisLocker_StaleUnlockKeepsNewOwner(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	staleUnlock, err := l.Acquire(ctx, []string{"k1", "k2"}, time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	unlock, err := l.Acquire(ctx, []string{"k1"}, time.Minute)
	require.NoError(t, err)
	owner, err := mr.Get("k1")
	require.NoError(t, err)

	// первый владелец снимает свои ключи уже после истечения TTL
	staleUnlock()

	current, err := mr.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, owner, current)

	_, err = l.Acquire(ctx, []string{"k1"}, time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	unlock()
	assert.False(t, mr.Exists("k1"))
}

func TestRedisLocker_Preload(t *testing.T) {
	l, _ := newRedisLocker(t)
	ctx := context.Background()

	require.NoError(t, l.Preload(ctx))

	unlock, err := l.Acquire(ctx, []string{"k1"}, time.Minute)
	require.NoError(t, err)
	unlock()
}

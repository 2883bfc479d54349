package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-reservation-backend/internal/domain"
)

func TestNormalize(t *testing.T) {
	got := Normalize([]string{"vehicle:b", "driver:a", "", "vehicle:b"})
	assert.Equal(t, []string{"driver:a", "vehicle:b"}, got)
}

func newRedisLocker(t *testing.T, wait time.Duration) (*Redis, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, RedisOptions{Wait: wait, TTL: time.Minute, Retry: 5 * time.Millisecond}), mr
}

func lockers(t *testing.T, wait time.Duration) map[string]Locker {
	r, _ := newRedisLocker(t, wait)
	return map[string]Locker{
		"local": NewLocal(wait),
		"redis": r,
	}
}

func TestLocker_Contended(t *testing.T) {
	for name, l := range lockers(t, 50*time.Millisecond) {
		t.Run(name, func(t *testing.T) {
			unlock, err := l.Lock(context.Background(), ItemKey("i1"))
			require.NoError(t, err)

			_, err = l.Lock(context.Background(), ItemKey("i1"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrContended))
			assert.True(t, domain.Retryable(err))

			// Different keys proceed in parallel.
			other, err := l.Lock(context.Background(), ItemKey("i2"))
			require.NoError(t, err)
			other()

			unlock()
			unlock()

			again, err := l.Lock(context.Background(), ItemKey("i1"))
			require.NoError(t, err)
			again()
		})
	}
}

func TestLocker_PartialAcquireIsRolledBack(t *testing.T) {
	for name, l := range lockers(t, 50*time.Millisecond) {
		t.Run(name, func(t *testing.T) {
			busy, err := l.Lock(context.Background(), VehicleKey("v1"))
			require.NoError(t, err)
			defer busy()

			// driver:d1 sorts first and is taken, then vehicle:v1 times out.
			_, err = l.Lock(context.Background(), VehicleKey("v1"), DriverKey("d1"))
			require.Error(t, err)

			unlock, err := l.Lock(context.Background(), DriverKey("d1"))
			require.NoError(t, err, "driver key must have been released")
			unlock()
		})
	}
}

func TestLocker_CancelledContext(t *testing.T) {
	l := NewLocal(time.Second)
	unlock, err := l.Lock(context.Background(), ItemKey("i1"))
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Lock(ctx, ItemKey("i1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, domain.ErrContended))
}

func TestLocker_MutualExclusion(t *testing.T) {
	for name, l := range lockers(t, 5*time.Second) {
		t.Run(name, func(t *testing.T) {
			var inside, maxInside int32
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					unlock, err := l.Lock(context.Background(), VehicleKey("v1"), DriverKey("d1"))
					if !assert.NoError(t, err) {
						return
					}
					n := atomic.AddInt32(&inside, 1)
					for {
						m := atomic.LoadInt32(&maxInside)
						if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
							break
						}
					}
					time.Sleep(time.Millisecond)
					atomic.AddInt32(&inside, -1)
					unlock()
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), maxInside)
		})
	}
}

func TestLocal_DropsIdleKeys(t *testing.T) {
	l := NewLocal(time.Second)
	unlock, err := l.Lock(context.Background(), ItemKey("a"), ItemKey("b"))
	require.NoError(t, err)
	assert.Equal(t, 2, l.size())
	unlock()
	assert.Equal(t, 0, l.size())
}

func TestRedis_ReleaseKeepsForeignToken(t *testing.T) {
	l, mr := newRedisLocker(t, 50*time.Millisecond)

	unlock, err := l.Lock(context.Background(), ItemKey("i1"))
	require.NoError(t, err)

	// The lock expired and someone else took it.
	mr.FastForward(2 * time.Minute)
	require.NoError(t, mr.Set("reservation:lock:item:i1", "someone-else"))

	unlock()
	got, err := mr.Get("reservation:lock:item:i1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedis_BackendDown(t *testing.T) {
	l, mr := newRedisLocker(t, 200*time.Millisecond)
	mr.Close()

	_, err := l.Lock(context.Background(), ItemKey("i1"))
	require.Error(t, err)
	assert.True(t, domain.Retryable(err))
}

package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, "shop:", time.Minute), mr
}

func TestRedisCache_Services(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	got, err := c.GetServices(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	services := []domain.Service{{ID: "haircut", Name: "Corte de Cabelo", DurationMinutes: 30, Price: domain.IntPtr(40)}}
	require.NoError(t, c.SetServices(ctx, services))
	assert.Equal(t, time.Minute, mr.TTL("shop:cache:services"))

	got, err = c.GetServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, services, got)

	require.NoError(t, c.InvalidateServices(ctx))
	got, err = c.GetServices(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCache_SlotLock(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	day := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)

	token, ok, err := c.AcquireSlotLock(ctx, day, 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("shop:lock:day:2024-06-04"))

	_, ok, err = c.AcquireSlotLock(ctx, day, 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must wait")

	other, ok, err := c.AcquireSlotLock(ctx, day.AddDate(0, 0, 1), 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "other days are independent")
	assert.NotEqual(t, token, other)

	require.NoError(t, c.ReleaseSlotLock(ctx, day, "someone-else"))
	assert.True(t, mr.Exists("shop:lock:day:2024-06-04"))

	require.NoError(t, c.ReleaseSlotLock(ctx, day, token))
	assert.False(t, mr.Exists("shop:lock:day:2024-06-04"))

	_, ok, err = c.AcquireSlotLock(ctx, day, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisCache_SlotLockExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	day := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)

	_, ok, err := c.AcquireSlotLock(ctx, day, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = c.AcquireSlotLock(ctx, day, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisCache_Sessions(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	type session struct {
		State    string   `json:"state"`
		Services []string `json:"services"`
	}

	var dst session
	assert.ErrorIs(t, c.LoadSession(ctx, "s1", &dst), ErrSessionNotFound)

	require.NoError(t, c.SaveSession(ctx, "s1", session{State: "selecting_date", Services: []string{"haircut"}}, 10*time.Minute))
	assert.Equal(t, 10*time.Minute, mr.TTL("shop:session:s1"))

	require.NoError(t, c.LoadSession(ctx, "s1", &dst))
	assert.Equal(t, "selecting_date", dst.State)
	assert.Equal(t, []string{"haircut"}, dst.Services)

	require.NoError(t, c.DeleteSession(ctx, "s1"))
	assert.ErrorIs(t, c.LoadSession(ctx, "s1", &dst), ErrSessionNotFound)

	assert.NoError(t, c.Ping(ctx))
}

package docstore

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test:"), mr
}

func TestRedisStore_SetGetListRemove(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "services/haircut", []byte(`{"name":"Corte de Cabelo"}`)))
	require.NoError(t, store.Set(ctx, "services/beard", []byte(`{"name":"Barba"}`)))

	got, err := store.Get(ctx, "services/haircut")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Corte de Cabelo"}`, string(got))
	assert.True(t, mr.Exists("test:doc:services"))

	docs, err := store.List(ctx, "services")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.JSONEq(t, `{"name":"Barba"}`, string(docs["beard"]))

	require.NoError(t, store.Remove(ctx, "services/beard"))
	_, err = store.Get(ctx, "services/beard")
	assert.ErrorIs(t, err, ErrNotFound)

	empty, err := store.List(ctx, "cancelados")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRedisStore_ListWhere(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "agendamentobarbeiro/a1", []byte(`{"dia":"04/06/2024","horario":"10:00"}`)))
	require.NoError(t, store.Set(ctx, "agendamentobarbeiro/a2", []byte(`{"dia":"05/06/2024","horario":"10:00"}`)))
	require.NoError(t, store.Set(ctx, "agendamentobarbeiro/a3", []byte(`{"dia":4}`)))
	require.NoError(t, store.Set(ctx, "agendamentobarbeiro/a4", []byte(`["04/06/2024"]`)))

	docs, err := store.ListWhere(ctx, "agendamentobarbeiro", "dia", "04/06/2024")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Contains(t, docs, "a1")

	none, err := store.ListWhere(ctx, "agendamentobarbeiro", "horario", "11:00")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = store.ListWhere(ctx, "agendamentobarbeiro", "", "x")
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestRedisStore_RejectsInvalidInput(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Set(ctx, "services", []byte(`{}`)), ErrInvalidPath)
	assert.Error(t, store.Set(ctx, "services/x", []byte(`not json`)))
	_, err := store.Subscribe(ctx)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestRedisStore_Subscribe(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := store.Subscribe(ctx, "agendamentobarbeiro")
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "services/ignored", []byte(`{}`)))
	require.NoError(t, store.Set(ctx, "agendamentobarbeiro/1", []byte(`{"dia":"01/06/2024"}`)))
	require.NoError(t, store.Remove(ctx, "agendamentobarbeiro/1"))

	var received []Change
	timeout := time.After(2 * time.Second)
	for len(received) < 2 {
		select {
		case c := <-changes:
			received = append(received, c)
		case <-timeout:
			t.Fatalf("timed out waiting for changes, got %v", received)
		}
	}
	assert.Equal(t, Change{Collection: "agendamentobarbeiro", Key: "1", Op: OpSet}, received[0])
	assert.Equal(t, Change{Collection: "agendamentobarbeiro", Key: "1", Op: OpRemove}, received[1])

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-changes:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRedisStore_Ping(t *testing.T) {
	store, _ := newTestRedisStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

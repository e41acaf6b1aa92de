package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valoron/valoron/internal/domain/player"
	"github.com/valoron/valoron/internal/domain/shared"
	"github.com/valoron/valoron/internal/infrastructure/persistence/memory"
)

type fakeKV struct {
	data   map[string][]byte
	getErr error
	setErr error
	gets   int
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string][]byte{}} }

func (f *fakeKV) Get(ctx context.Context, key string, dest interface{}) error {
	f.gets++
	if f.getErr != nil {
		return f.getErr
	}
	b, ok := f.data[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(b, dest)
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = b
	return nil
}

func (f *fakeKV) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

var now = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func TestCachedPlayerRepository_WriteThrough(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store := memory.NewPlayerStore()
	repo := NewCachedPlayerRepository(store, kv, time.Minute, nil)

	id := shared.NewID()
	p := player.New(id)
	require.NoError(t, p.AddXP(300, now))
	require.NoError(t, repo.Save(ctx, p))

	assert.Contains(t, kv.data, PlayerKey(id.String()))

	loaded, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, p.XP(), loaded.XP())
	assert.Equal(t, p.Level(), loaded.Level())
	assert.Equal(t, p.Stats(), loaded.Stats())
}

func TestCachedPlayerRepository_MissFallsBackAndFills(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store := memory.NewPlayerStore()
	id := shared.NewID()
	require.NoError(t, store.Save(ctx, player.New(id)))

	repo := NewCachedPlayerRepository(store, kv, 0, nil)
	p, err := repo.Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 1, p.Level())
	assert.Contains(t, kv.data, PlayerKey(id.String()))
}

func TestCachedPlayerRepository_CacheErrorIsNotFatal(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	store := memory.NewPlayerStore()
	id := shared.NewID()
	require.NoError(t, store.Save(ctx, player.New(id)))

	repo := NewCachedPlayerRepository(store, kv, 0, nil)
	p, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestCachedPlayerRepository_MissingPlayer(t *testing.T) {
	repo := NewCachedPlayerRepository(memory.NewPlayerStore(), newFakeKV(), 0, nil)
	p, err := repo.Load(context.Background(), shared.NewID())
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = time.Second
	opts := cfg.options()

	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 10, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)
	assert.Equal(t, time.Second, opts.ReadTimeout)
	assert.Equal(t, time.Second, opts.WriteTimeout)
}

func TestCachedPlayerRepository_BreakerOpensOnRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	kv.setErr = kv.getErr
	store := memory.NewPlayerStore()
	id := shared.NewID()
	require.NoError(t, store.Save(ctx, player.New(id)))

	repo := NewCachedPlayerRepository(store, kv, 0, nil)
	for i := 0; i < 5; i++ {
		p, err := repo.Load(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, p)
	}

	assert.True(t, repo.Breaker().IsOpen())
	assert.Equal(t, 2, kv.gets, "open breaker must skip the cache")
}

func TestCachedPlayerRepository_MissDoesNotTripBreaker(t *testing.T) {
	ctx := context.Background()
	repo := NewCachedPlayerRepository(memory.NewPlayerStore(), newFakeKV(), 0, nil)
	for i := 0; i < 5; i++ {
		_, err := repo.Load(ctx, shared.NewID())
		require.NoError(t, err)
	}
	assert.True(t, repo.Breaker().IsClosed())
}

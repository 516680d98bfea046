package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure-sidekick/server/internal/agent/model"
	errx "github.com/azure-sidekick/server/internal/core/error"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisHistoryStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisHistoryStore(rdb, ttl), mr
}

func sampleTurn(q, a string) model.ChatTurn {
	turn := model.NewChatTurn(q, model.IntentStorage)
	turn.OriginalQuestion = q
	turn.Answer = a
	turn.Function = model.IntentStorageAccounts
	turn.PromptTokens = 12
	turn.CompletionTokens = 34
	turn.Persist = true
	return turn
}

func TestRedisHistoryStoreRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	first := sampleTurn("list my accounts", "acct1, acct2")
	second := sampleTurn("which is in westeurope", "acct1")
	require.NoError(t, store.Add(ctx, "s1", first))
	require.NoError(t, store.Add(ctx, "s1", second))

	got, err := store.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.Answer, got[1].Answer)
	assert.Equal(t, model.IntentStorageAccounts, got[0].Function)
	assert.True(t, first.CreatedAt.Equal(got[0].CreatedAt))

	assert.Equal(t, time.Hour, mr.TTL("sidekick:session:s1:turns"))

	other, err := store.List(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRedisHistoryStoreClear(t *testing.T) {
	store, mr := newRedisStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "s1", sampleTurn("q", "a")))
	assert.Zero(t, mr.TTL("sidekick:session:s1:turns"))
	require.NoError(t, store.Clear(ctx, "s1"))

	got, err := store.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisHistoryStoreSkipsCorruptEntries(t *testing.T) {
	store, mr := newRedisStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "s1", sampleTurn("q1", "a1")))
	_, err := mr.Push("sidekick:session:s1:turns", "{not json")
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, "s1", sampleTurn("q2", "a2")))

	got, err := store.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a2", got[1].Answer)
}

func TestRedisHistoryStoreWrapsErrors(t *testing.T) {
	store, mr := newRedisStore(t, 0)
	mr.Close()

	err := store.Add(context.Background(), "s1", sampleTurn("q", "a"))
	require.Error(t, err)
	assert.Equal(t, 502, errx.StatusOf(err))

	_, err = store.List(context.Background(), "s1")
	assert.Equal(t, 502, errx.StatusOf(err))
}

func TestMemoryHistoryStore(t *testing.T) {
	store := NewMemoryHistoryStore()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "s1", sampleTurn("q1", "a1")))
	require.NoError(t, store.Add(ctx, "s1", sampleTurn("q2", "a2")))

	got, err := store.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	got[0].Answer = "mutated"
	again, _ := store.List(ctx, "s1")
	assert.Equal(t, "a1", again[0].Answer)

	require.NoError(t, store.Clear(ctx, "s1"))
	again, _ = store.List(ctx, "s1")
	assert.Empty(t, again)
}

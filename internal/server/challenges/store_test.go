package challenges

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, "test:", 5*time.Minute, opts...), mr
}

func TestStore_CreateAndVerify(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	token, err := s.Create(ctx)
	require.NoError(t, err)
	assert.Len(t, token, 2*common.ChallengeByteLength)

	key := "test:challenge:" + token
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 5*time.Minute, mr.TTL(key))

	ok, err := s.Verify(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)

	// verify does not consume
	ok, err = s.Verify(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_TokensAreUnique(t *testing.T) {
	s, _ := newTestStore(t)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		token, err := s.Create(context.Background())
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestStore_VerifyUnknown(t *testing.T) {
	s, _ := newTestStore(t)

	for _, token := range []string{"", "deadbeef", "never-issued"} {
		ok, err := s.Verify(context.Background(), token)
		require.NoError(t, err)
		assert.False(t, ok, token)
	}
}

func TestStore_VerifyEvicted(t *testing.T) {
	s, mr := newTestStore(t)

	token, err := s.Create(context.Background())
	require.NoError(t, err)

	mr.FastForward(5*time.Minute + time.Second)

	ok, err := s.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_VerifyExpiryValueInPast(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s, _ := newTestStore(t, WithClock(func() time.Time { return now }))

	token, err := s.Create(context.Background())
	require.NoError(t, err)

	// key still present, but the stored deadline has passed
	now = now.Add(6 * time.Minute)

	ok, err := s.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_VerifyGarbageValue(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set("test:challenge:abc", "not-a-number"))

	ok, err := s.Verify(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Consume(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	t1, err := s.Create(ctx)
	require.NoError(t, err)
	t2, err := s.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Consume(ctx, t1, t2))
	assert.False(t, mr.Exists("test:challenge:"+t1))
	assert.False(t, mr.Exists("test:challenge:"+t2))

	ok, err := s.Verify(ctx, t1)
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.Consume(ctx, t1)
	assert.ErrorIs(t, err, common.ErrChallengeInvalid)
}

func TestStore_ConsumePartial(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	token, err := s.Create(ctx)
	require.NoError(t, err)

	err = s.Consume(ctx, "gone", token)
	assert.ErrorIs(t, err, common.ErrChallengeInvalid)
	assert.False(t, mr.Exists("test:challenge:"+token))
}

func TestStore_FailsClosed(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	token, err := s.Create(ctx)
	require.NoError(t, err)

	mr.SetError("ERR simulated outage")

	ok, err := s.Verify(ctx, token)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, common.ErrUnavailable))

	_, err = s.Create(ctx)
	assert.ErrorIs(t, err, common.ErrUnavailable)

	err = s.Consume(ctx, token)
	assert.ErrorIs(t, err, common.ErrUnavailable)

	assert.ErrorIs(t, s.Ping(ctx), common.ErrUnavailable)

	mr.SetError("")
	assert.NoError(t, s.Ping(ctx))
}

func TestNewStore_DefaultTTL(t *testing.T) {
	s := NewStore(nil, "", 0)
	assert.Equal(t, common.DefaultChallengeTTL, s.ttl)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	client, err := Connect(context.Background(), "redis://"+addr+"/0")
	require.NoError(t, err)
	_ = client.Close()

	_, err = Connect(context.Background(), "://bad")
	assert.Error(t, err)

	mr.Close()
	_, err = Connect(context.Background(), "redis://"+addr+"/0")
	assert.ErrorIs(t, err, common.ErrUnavailable)
}

// Package challenges issues and checks the one-time challenges a wallet must
// sign. State lives only in Redis so every server process sees the same set
// of outstanding challenges.
package challenges

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/redis/go-redis/v9"
)

// Store is the Redis-backed challenge store.
//
// Each challenge is kept under "<namespace>challenge:<token>" with its
// absolute expiry (unix milliseconds) as the value and a matching key TTL.
type Store struct {
	rdb       redis.Cmdable
	namespace string
	ttl       time.Duration
	now       func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a Store writing to rdb. A non-positive ttl falls back to
// common.DefaultChallengeTTL.
func NewStore(rdb redis.Cmdable, namespace string, ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = common.DefaultChallengeTTL
	}
	s := &Store{rdb: rdb, namespace: namespace, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) key(token string) string {
	return s.namespace + "challenge:" + token
}

// Create generates a new random token and records it until now+ttl.
func (s *Store) Create(ctx context.Context) (string, error) {
	token, err := common.MakeRandHexString(common.ChallengeByteLength)
	if err != nil {
		return "", fmt.Errorf("generate challenge: %w", err)
	}

	expiresAt := s.now().Add(s.ttl).UnixMilli()
	if err := s.rdb.Set(ctx, s.key(token), strconv.FormatInt(expiresAt, 10), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: store challenge: %v", common.ErrUnavailable, err)
	}

	return token, nil
}

// Verify reports whether token was issued and has not expired. It never
// removes the entry. A cache failure is returned as an error and must be
// treated as a rejection.
func (s *Store) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	val, err := s.rdb.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: read challenge: %v", common.ErrUnavailable, err)
	}

	expiresAt, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, nil
	}

	return expiresAt > s.now().UnixMilli(), nil
}

// Consume deletes every given token. If any token was already gone, the
// result is common.ErrChallengeInvalid: another request used it first.
// All tokens are deleted even when an earlier one was missing.
func (s *Store) Consume(ctx context.Context, tokens ...string) error {
	var missing bool
	for _, t := range tokens {
		n, err := s.rdb.Del(ctx, s.key(t)).Result()
		if err != nil {
			return fmt.Errorf("%w: delete challenge: %v", common.ErrUnavailable, err)
		}
		if n == 0 {
			missing = true
		}
	}
	if missing {
		return common.ErrChallengeInvalid
	}
	return nil
}

// Ping checks the cache connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis: %v", common.ErrUnavailable, err)
	}
	return nil
}

// Connect parses a redis:// URL and returns a client. The connection is
// verified with a ping bounded by ctx.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis: %v", common.ErrUnavailable, err)
	}
	return client, nil
}

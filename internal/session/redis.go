package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "paperdigest:session:"
	// maxUpdateAttempts bounds optimistic retries when WATCH sees a
	// concurrent write.
	maxUpdateAttempts = 16
)

// RedisOptions configure NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisStore keeps State as JSON under paperdigest:session:{user} with a TTL
// refreshed on every write.
type RedisStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisStore connects and pings; it fails when the server is unreachable.
func NewRedisStore(ctx context.Context, o RedisOptions) (*RedisStore, error) {
	if strings.TrimSpace(o.Addr) == "" {
		return nil, fmt.Errorf("session: missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        o.Addr,
		Password:    o.Password,
		DB:          o.DB,
		DialTimeout: 5 * time.Second,
	})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := o.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

func key(userID string) string { return keyPrefix + userID }

func (s *RedisStore) Get(ctx context.Context, userID string) (State, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return State{}, false, ErrEmptyUser
	}
	return decode(userID, s.rdb.Get(ctx, key(userID)))
}

func decode(userID string, cmd *goredis.StringCmd) (State, bool, error) {
	raw, err := cmd.Bytes()
	if errors.Is(err, goredis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, false, fmt.Errorf("decode session %s: %w", userID, err)
	}
	return st, true, nil
}

func (s *RedisStore) Put(ctx context.Context, userID string, st State) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrEmptyUser
	}
	st.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key(userID), raw, s.ttl).Err()
}

// Update is optimistic: the key is WATCHed, fn runs on the value read, and
// the write is committed in MULTI/EXEC. A concurrent write aborts the
// transaction and the whole read-modify-write is retried.
func (s *RedisStore) Update(ctx context.Context, userID string, fn UpdateFunc) (State, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return State{}, ErrEmptyUser
	}
	k := key(userID)

	var out State
	txf := func(tx *goredis.Tx) error {
		cur, ok, err := decode(userID, tx.Get(ctx, k))
		if err != nil {
			return err
		}
		if !ok {
			cur = Default()
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		next.UpdatedAt = time.Now().UTC()
		raw, err := json.Marshal(next)
		if err != nil {
			return err
		}
		if _, err := tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, k, raw, s.ttl)
			return nil
		}); err != nil {
			return err
		}
		out = next
		return nil
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := s.rdb.Watch(ctx, txf, k)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil {
			return State{}, err
		}
		return out, nil
	}
	return State{}, ErrConflict
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, key(strings.TrimSpace(userID))).Err()
}

// Close releases the connection pool.
func (s *RedisStore) Close() error { return s.rdb.Close() }

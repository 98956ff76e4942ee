package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/otpgate/pkg/clockx"
	"github.com/aussiebroadwan/otpgate/pkg/cryptox"
	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr      string        `koanf:"addr"`
	Username  string        `koanf:"username"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	Timeout   time.Duration `koanf:"timeout"`
	KeyPrefix string        `koanf:"key_prefix"`
}

// RedisStore keeps sessions in Redis. Keys hold a fingerprint of the token,
// never the token itself.
type RedisStore struct {
	client *redis.Client
	prefix string
	clock  clockx.Clock
	ttl    time.Duration
}

type redisEntry struct {
	Identity
	ExpiresAt int64 `json:"expires_at"` // unix nanos
}

func NewRedisStore(cfg RedisConfig, clock clockx.Clock, ttl time.Duration) *RedisStore {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "otpgate"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})
	return newRedisStore(client, cfg.KeyPrefix, clock, ttl)
}

func newRedisStore(client *redis.Client, prefix string, clock clockx.Clock, ttl time.Duration) *RedisStore {
	if clock == nil {
		clock = clockx.System{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, prefix: prefix, clock: clock, ttl: ttl}
}

func (r *RedisStore) key(token string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, cryptox.FingerprintToken(token))
}

func (r *RedisStore) Issue(ctx context.Context, id Identity) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	b, err := json.Marshal(redisEntry{Identity: id, ExpiresAt: r.clock.Now().Add(r.ttl).UnixNano()})
	if err != nil {
		return "", err
	}
	if err := r.client.Set(ctx, r.key(token), b, r.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (r *RedisStore) Resolve(ctx context.Context, token string) (Identity, bool, error) {
	key := r.key(token)
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Identity{}, false, nil
	}
	if err != nil {
		return Identity{}, false, err
	}

	var e redisEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return Identity{}, false, fmt.Errorf("session: corrupt entry: %w", err)
	}

	// Redis TTLs and our clock can disagree; the stored instant wins.
	if r.clock.Now().After(time.Unix(0, e.ExpiresAt)) {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return Identity{}, false, err
		}
		return Identity{}, false, nil
	}
	return e.Identity, true, nil
}

func (r *RedisStore) Revoke(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.key(token)).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

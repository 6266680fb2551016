package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "quotebot:state:"
	defaultRedisTTL    = 24 * time.Hour
)

// RedisOptions configures the Redis-backed manager.
type RedisOptions struct {
	Prefix string
	TTL    time.Duration
}

type redisManager struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisManager stores sessions as JSON under <prefix><chatID>, expiring after TTL.
func NewRedisManager(client *redis.Client, opts RedisOptions) Manager {
	if opts.Prefix == "" {
		opts.Prefix = defaultRedisPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultRedisTTL
	}
	return &redisManager{client: client, prefix: opts.Prefix, ttl: opts.TTL}
}

func (r *redisManager) key(chatID int64) string {
	return r.prefix + strconv.FormatInt(chatID, 10)
}

func (r *redisManager) Get(ctx context.Context, chatID int64) (Session, error) {
	data, err := r.client.Get(ctx, r.key(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Idle(), nil
	}
	if err != nil {
		return Idle(), fmt.Errorf("state: get %d: %w", chatID, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Idle(), fmt.Errorf("state: decode %d: %w", chatID, err)
	}
	if sess.State == "" {
		sess.State = StateIdle
	}
	return sess, nil
}

func (r *redisManager) Put(ctx context.Context, chatID int64, sess Session) error {
	if !sess.Active() {
		return r.Clear(ctx, chatID)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("state: encode %d: %w", chatID, err)
	}
	if err := r.client.Set(ctx, r.key(chatID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("state: put %d: %w", chatID, err)
	}
	return nil
}

func (r *redisManager) Clear(ctx context.Context, chatID int64) error {
	if err := r.client.Del(ctx, r.key(chatID)).Err(); err != nil {
		return fmt.Errorf("state: clear %d: %w", chatID, err)
	}
	return nil
}

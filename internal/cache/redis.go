package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"PredictionLeague/internal/standings"

	"github.com/redis/go-redis/v9"
)

const genKey = "league:standings:gen"

// Redis 以 league:standings:<gen>:<scope> 存储快照，Invalidate 对 gen 自增
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis 连接 Redis 并 Ping 校验
func NewRedis(addr, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func entryKey(gen int64, scope string) string {
	return fmt.Sprintf("league:standings:%d:%s", gen, scope)
}

func (r *Redis) Generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *Redis) Get(ctx context.Context, scope string) ([]standings.Standing, bool, error) {
	gen, err := r.Generation(ctx)
	if err != nil {
		return nil, false, err
	}
	data, err := r.client.Get(ctx, entryKey(gen, scope)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var list []standings.Standing
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal standings: %w", err)
	}
	return list, true, nil
}

// Set 写入 gen 对应的 key；gen 已过期时该 key 不会再被读取，随 TTL 过期
func (r *Redis) Set(ctx context.Context, scope string, gen int64, list []standings.Standing) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal standings: %w", err)
	}
	return r.client.Set(ctx, entryKey(gen, scope), data, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context) error {
	return r.client.Incr(ctx, genKey).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

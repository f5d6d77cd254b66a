package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStorage struct {
	client    *redis.Client
	namespace string
}

func NewRedis(redisURL string, namespace string) (Storage, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisFromClient(client, namespace), nil
}

func NewRedisFromClient(client *redis.Client, namespace string) Storage {
	return &redisStorage{client: client, namespace: namespace}
}

func (r *redisStorage) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *redisStorage) Set(ctx context.Context, key string, value string) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *redisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	pipe := r.client.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, r.key(key))
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisStorage) Close() error {
	return r.client.Close()
}

func (r *redisStorage) key(key string) string {
	if r.namespace == "" {
		return "scp:" + key
	}
	return "scp:" + r.namespace + ":" + key
}

// Package storage is the durable key/value capability the client keeps its
// session and cached profile values in. Backends: process memory, a local
// file, Redis and PostgreSQL.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/iurnickita/scpclient/internal/storage/config"
)

type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

var (
	ErrNotFound    = errors.New("key not found")
	ErrUnknownKind = errors.New("unknown storage kind")
	ErrCorrupt     = errors.New("storage content is corrupt")
)

func NewStorage(cfg config.Config) (Storage, error) {
	switch cfg.Kind {
	case "", config.KindMemory:
		return NewMemory(), nil
	case config.KindFile:
		return NewFile(cfg.Path)
	case config.KindRedis:
		return NewRedis(cfg.RedisURL, cfg.Namespace)
	case config.KindPostgres:
		return NewPostgres(cfg.DBDsn, cfg.Namespace)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}

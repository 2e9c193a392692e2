package redis

import (
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/mintgate/goapi/base/ctx"
)

const (
	// Forever means the key has no associated expire
	Forever = time.Duration(-1)
)

var (
	// ErrNotFound is returned when the key does not exist
	ErrNotFound = redis.ErrNil

	// ErrNoTTL is returned by TTL for keys without associated expire
	ErrNoTTL = errors.New("ttl: no ttl on key")

	// ErrGapTime is returned when no pool is available to serve the command
	ErrGapTime = errors.New("in gap time, no pool available")

	// ErrExpireNotExistOrTimeout occurs when EXPIRE hits a missing key
	ErrExpireNotExistOrTimeout = errors.New("expire: key not exist or timeout not set")
)

// Service wraps the redigo pool with metrics and logging
type Service interface {
	Get(context ctx.Ctx, key string) ([]byte, error)
	Set(context ctx.Ctx, key string, val []byte, expire time.Duration) error
	SetNX(context ctx.Ctx, key string, val []byte, expire time.Duration) error
	Del(context ctx.Ctx, ks ...string) (int, error)
	Exists(context ctx.Ctx, key string) (bool, error)
	TTL(context ctx.Ctx, key string) (int, error)
	Expire(context ctx.Ctx, key string, ttl time.Duration) error
	Incr(context ctx.Ctx, key string) (int64, error)
	Incrby(context ctx.Ctx, key string, val int) (int64, error)
	Name() string
}

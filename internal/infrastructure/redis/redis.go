package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/chemimartinez77/clubdn-sub002/internal/domain"
)

type Cache struct {
	Client *redis.Client
}

func New(addr, pass string, db int) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr, Password: pass, DB: db,
	})
	return &Cache{Client: rdb}
}

// EventOpen reports whether the event is still taking registrations. The
// flag is only a fast-fail hint; the database remains authoritative.
func (c *Cache) EventOpen(ctx context.Context, eventID uuid.UUID) (bool, error) {
	val, err := c.Client.Get(ctx, "event:open:"+eventID.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, domain.ErrCacheMiss
		}
		return false, err
	}
	return strconv.ParseBool(val)
}

func (c *Cache) SetEventOpen(ctx context.Context, eventID uuid.UUID, open bool) error {
	return c.Client.Set(ctx, "event:open:"+eventID.String(), strconv.FormatBool(open), 24*time.Hour).Err()
}

// AllowRequest: Simple Fixed Window Rate Limit
func (c *Cache) AllowRequest(ctx context.Context, ip string, limit int, window time.Duration) (bool, error) {
	key := "ratelimit:" + ip
	count, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return true, nil // fail open
	}
	if count == 1 {
		_ = c.Client.Expire(ctx, key, window).Err()
	}
	return count <= int64(limit), nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
)

// ErrSessionNotFound is returned when a booking session expired or never existed.
var ErrSessionNotFound = errors.New("session not found")

// releaseScript deletes the lock only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisCache struct {
	client      *redis.Client
	prefix      string
	servicesTTL time.Duration
}

func NewRedisCache(client *redis.Client, prefix string, servicesTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, servicesTTL: servicesTTL}
}

// GetServices returns nil without error on a cache miss.
func (c *RedisCache) GetServices(ctx context.Context) ([]domain.Service, error) {
	data, err := c.client.Get(ctx, c.servicesKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var services []domain.Service
	if err := json.Unmarshal(data, &services); err != nil {
		return nil, err
	}
	return services, nil
}

func (c *RedisCache) SetServices(ctx context.Context, services []domain.Service) error {
	payload, err := json.Marshal(services)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.servicesKey(), payload, c.servicesTTL).Err()
}

func (c *RedisCache) InvalidateServices(ctx context.Context) error {
	return c.client.Del(ctx, c.servicesKey()).Err()
}

// AcquireSlotLock serialises bookings of one calendar day. The returned token
// must be handed back to ReleaseSlotLock.
func (c *RedisCache) AcquireSlotLock(ctx context.Context, day time.Time, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, c.slotLockKey(day), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (c *RedisCache) ReleaseSlotLock(ctx context.Context, day time.Time, token string) error {
	return releaseScript.Run(ctx, c.client, []string{c.slotLockKey(day)}, token).Err()
}

// LoadSession decodes the stored session into dst.
func (c *RedisCache) LoadSession(ctx context.Context, id string, dst any) error {
	data, err := c.client.Get(ctx, c.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		return err
	}
	return json.Unmarshal(data, dst)
}

func (c *RedisCache) SaveSession(ctx context.Context, id string, session any, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.sessionKey(id), payload, ttl).Err()
}

func (c *RedisCache) DeleteSession(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.sessionKey(id)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) servicesKey() string {
	return c.prefix + "cache:services"
}

func (c *RedisCache) slotLockKey(day time.Time) string {
	return fmt.Sprintf("%slock:day:%s", c.prefix, day.Format(domain.ISODateLayout))
}

func (c *RedisCache) sessionKey(id string) string {
	return c.prefix + "session:" + id
}

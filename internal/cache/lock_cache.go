package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const releaseTimeout = 2 * time.Second

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock held by another run")

// SessionLocker hands out per-session advisory locks
type SessionLocker interface {
	// Acquire takes the lock for name or fails with ErrLockHeld. The returned
	// func releases it and is safe to call once the TTL has already expired
	// or ctx is done.
	Acquire(ctx context.Context, name string) (release func(context.Context) error, err error)
}

type lockCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionLocker creates a Redis backed locker. Locks auto-expire after ttl.
func NewSessionLocker(client *redis.Client, ttl time.Duration) SessionLocker {
	return &lockCache{
		client: client,
		ttl:    ttl,
	}
}

// Deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (c *lockCache) key(name string) string {
	return fmt.Sprintf("session:%s:lock", name)
}

func (c *lockCache) Acquire(ctx context.Context, name string) (func(context.Context) error, error) {
	key := c.key(name)
	token := uuid.NewString()

	ok, err := c.client.SetNX(ctx, key, token, c.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func(ctx context.Context) error {
		// A run that hit its deadline must still free the lock.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		return releaseScript.Run(ctx, c.client, []string{key}, token).Err()
	}
	return release, nil
}

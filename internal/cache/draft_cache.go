package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"practicecoach/internal/model"
)

// DraftCache holds the resume snapshot of in-progress sessions
type DraftCache interface {
	Save(ctx context.Context, sessionID string, draft *model.DraftSnapshot) error
	Load(ctx context.Context, sessionID string) (*model.DraftSnapshot, error)
	Clear(ctx context.Context, sessionID string) error
}

type draftCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftCache creates a draft cache whose entries expire after ttl
func NewDraftCache(client *redis.Client, ttl time.Duration) DraftCache {
	return &draftCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *draftCache) key(sessionID string) string {
	return fmt.Sprintf("session:%s:draft", sessionID)
}

func (c *draftCache) Save(ctx context.Context, sessionID string, draft *model.DraftSnapshot) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(sessionID), data, c.ttl).Err()
}

func (c *draftCache) Load(ctx context.Context, sessionID string) (*model.DraftSnapshot, error) {
	data, err := c.client.Get(ctx, c.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var draft model.DraftSnapshot
	if err := json.Unmarshal([]byte(data), &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (c *draftCache) Clear(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/scorebug/scorebug-server/internal/config"
	redisclient "github.com/scorebug/scorebug-server/internal/redis"
)

const scheduleKeyPrefix = "schedule-"

// ScheduleCache holds the day's schedule payload so every display poll
// does not hit the upstream stats API.
type ScheduleCache interface {
	// Schedule returns the cached payload for date, or nil when absent.
	Schedule(ctx context.Context, date string) (json.RawMessage, error)
	SaveSchedule(ctx context.Context, date string, payload json.RawMessage) error
}

type redisScheduleCache struct {
	client *redisclient.Client
}

func NewScheduleCache(client *redisclient.Client) ScheduleCache {
	return &redisScheduleCache{client: client}
}

func (c *redisScheduleCache) Schedule(ctx context.Context, date string) (json.RawMessage, error) {
	data, err := c.client.Get(ctx, scheduleKeyPrefix+date).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule cache: %w", err)
	}
	return json.RawMessage(data), nil
}

func (c *redisScheduleCache) SaveSchedule(ctx context.Context, date string, payload json.RawMessage) error {
	if err := c.client.Set(ctx, scheduleKeyPrefix+date, []byte(payload), config.ScheduleCacheTTL).Err(); err != nil {
		return fmt.Errorf("save schedule cache: %w", err)
	}
	return nil
}

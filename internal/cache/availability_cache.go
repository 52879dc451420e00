// Package cache fronts availability reads with Redis. Entries are JSON
// payloads keyed by venue, date or month, and every query parameter that
// changes the result, so differing query shapes never collide.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/1221221212/reservation-for-justin-sub000/internal/clock"
)

const (
	dayKeyFormat    = "avail:day:v1:%d:%s:g%d:b%d"
	dayKeyPattern   = "avail:day:v1:%d:%s:*"
	monthKeyFormat  = "avail:month:v1:%d:%04d-%02d:g%d:s%d:b%d"
	monthKeyPattern = "avail:month:v1:%d:%04d-%02d:*"

	dateKeyLayout = "2006-01-02"
)

// AvailabilityCache is a read-through/write-through cache bounded to a
// rolling window of near-future dates. Callers bypass it entirely outside
// the window.
type AvailabilityCache struct {
	client     *redis.Client
	ttl        time.Duration
	windowDays int
	clock      clock.Clock
}

func New(client *redis.Client, ttl time.Duration, windowDays int, clk clock.Clock) *AvailabilityCache {
	return &AvailabilityCache{
		client:     client,
		ttl:        ttl,
		windowDays: windowDays,
		clock:      clk,
	}
}

// CacheableDate reports whether date falls within [today, today+window].
func (c *AvailabilityCache) CacheableDate(date time.Time) bool {
	today := truncateDay(c.clock.Now())
	d := truncateDay(date)
	return !d.Before(today) && !d.After(today.AddDate(0, 0, c.windowDays))
}

// CacheableMonth reports whether any day of the month falls in the window.
func (c *AvailabilityCache) CacheableMonth(year int, month time.Month) bool {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	today := truncateDay(c.clock.Now())
	return !last.Before(today) && !first.After(today.AddDate(0, 0, c.windowDays))
}

func (c *AvailabilityCache) GetDay(ctx context.Context, venueID int64, date time.Time, gridUnit, bufferSlots int) (string, bool, error) {
	key := fmt.Sprintf(dayKeyFormat, venueID, date.Format(dateKeyLayout), gridUnit, bufferSlots)
	return c.get(ctx, key)
}

func (c *AvailabilityCache) SetDay(ctx context.Context, venueID int64, date time.Time, gridUnit, bufferSlots int, payload string) error {
	key := fmt.Sprintf(dayKeyFormat, venueID, date.Format(dateKeyLayout), gridUnit, bufferSlots)
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

func (c *AvailabilityCache) GetMonth(ctx context.Context, venueID int64, year int, month time.Month, gridUnit, standardSlotMin, bufferSlots int) (string, bool, error) {
	key := fmt.Sprintf(monthKeyFormat, venueID, year, month, gridUnit, standardSlotMin, bufferSlots)
	return c.get(ctx, key)
}

func (c *AvailabilityCache) SetMonth(ctx context.Context, venueID int64, year int, month time.Month, gridUnit, standardSlotMin, bufferSlots int, payload string) error {
	key := fmt.Sprintf(monthKeyFormat, venueID, year, month, gridUnit, standardSlotMin, bufferSlots)
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

// InvalidateDate drops every day entry for the date and every month entry for
// its containing month, regardless of query shape.
func (c *AvailabilityCache) InvalidateDate(ctx context.Context, venueID int64, date time.Time) error {
	patterns := []string{
		fmt.Sprintf(dayKeyPattern, venueID, date.Format(dateKeyLayout)),
		fmt.Sprintf(monthKeyPattern, venueID, date.Year(), date.Month()),
	}
	for _, pattern := range patterns {
		keys, err := c.client.Keys(ctx, pattern).Result()
		if err != nil {
			return fmt.Errorf("list cache keys %s: %w", pattern, err)
		}
		if len(keys) == 0 {
			continue
		}
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("delete cache keys %s: %w", pattern, err)
		}
	}
	return nil
}

func (c *AvailabilityCache) get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, true, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

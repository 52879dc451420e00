package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/1221221212/reservation-for-justin-sub000/internal/metrics"
)

// availabilityCache is the slice of the cache the decorator needs.
type availabilityCache interface {
	CacheableDate(date time.Time) bool
	CacheableMonth(year int, month time.Month) bool
	GetDay(ctx context.Context, venueID int64, date time.Time, gridUnit, bufferSlots int) (string, bool, error)
	SetDay(ctx context.Context, venueID int64, date time.Time, gridUnit, bufferSlots int, payload string) error
	GetMonth(ctx context.Context, venueID int64, year int, month time.Month, gridUnit, standardSlotMin, bufferSlots int) (string, bool, error)
	SetMonth(ctx context.Context, venueID int64, year int, month time.Month, gridUnit, standardSlotMin, bufferSlots int, payload string) error
}

// CachedAvailability is the read-through layer in front of AvailabilityService.
// Cache failures fall back to direct computation; admission control never
// consults this layer, so staleness up to the invalidation latency is
// acceptable.
type CachedAvailability struct {
	inner   *AvailabilityService
	cache   availabilityCache
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewCachedAvailability(inner *AvailabilityService, cache availabilityCache, logger zerolog.Logger, m *metrics.Metrics) *CachedAvailability {
	return &CachedAvailability{inner: inner, cache: cache, logger: logger, metrics: m}
}

func (c *CachedAvailability) SeatFirstAvailability(ctx context.Context, venueID int64, date time.Time, gridUnit, bufferSlots int) ([]SeatAvailability, error) {
	if c.cache == nil || !c.cache.CacheableDate(date) {
		return c.inner.SeatFirstAvailability(ctx, venueID, date, gridUnit, bufferSlots)
	}

	payload, hit, err := c.cache.GetDay(ctx, venueID, date, gridUnit, bufferSlots)
	if err != nil {
		c.cacheFailure(err, "day availability cache read failed")
	} else if hit {
		var cached []SeatAvailability
		if uerr := json.Unmarshal([]byte(payload), &cached); uerr != nil {
			c.cacheFailure(uerr, "day availability cache entry corrupt")
		} else {
			c.countHit("day")
			return cached, nil
		}
	}
	c.countMiss("day")

	result, err := c.inner.SeatFirstAvailability(ctx, venueID, date, gridUnit, bufferSlots)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(result); err == nil {
		if err := c.cache.SetDay(ctx, venueID, date, gridUnit, bufferSlots, string(encoded)); err != nil {
			c.cacheFailure(err, "day availability cache write failed")
		}
	}
	return result, nil
}

func (c *CachedAvailability) MonthlyCalendar(ctx context.Context, venueID int64, year int, month time.Month, gridUnit, bufferSlots, standardSlotMin int) ([]CalendarDay, error) {
	if c.cache == nil || !c.cache.CacheableMonth(year, month) {
		return c.inner.MonthlyCalendar(ctx, venueID, year, month, gridUnit, bufferSlots, standardSlotMin)
	}

	payload, hit, err := c.cache.GetMonth(ctx, venueID, year, month, gridUnit, standardSlotMin, bufferSlots)
	if err != nil {
		c.cacheFailure(err, "month calendar cache read failed")
	} else if hit {
		var cached []CalendarDay
		if uerr := json.Unmarshal([]byte(payload), &cached); uerr != nil {
			c.cacheFailure(uerr, "month calendar cache entry corrupt")
		} else {
			c.countHit("month")
			return cached, nil
		}
	}
	c.countMiss("month")

	result, err := c.inner.MonthlyCalendar(ctx, venueID, year, month, gridUnit, bufferSlots, standardSlotMin)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(result); err == nil {
		if err := c.cache.SetMonth(ctx, venueID, year, month, gridUnit, standardSlotMin, bufferSlots, string(encoded)); err != nil {
			c.cacheFailure(err, "month calendar cache write failed")
		}
	}
	return result, nil
}

func (c *CachedAvailability) cacheFailure(err error, msg string) {
	c.logger.Warn().Err(err).Msg(msg)
	if c.metrics != nil {
		c.metrics.CacheErrors.Inc()
	}
}

func (c *CachedAvailability) countHit(scope string) {
	if c.metrics != nil {
		c.metrics.CacheHits.WithLabelValues(scope).Inc()
	}
}

func (c *CachedAvailability) countMiss(scope string) {
	if c.metrics != nil {
		c.metrics.CacheMisses.WithLabelValues(scope).Inc()
	}
}

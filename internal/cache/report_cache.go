package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mockprep/internal/models"
)

const reportKeyPrefix = "report:"

// ReportCache keeps computed session reports in redis.
type ReportCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewReportCache(rdb *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{rdb: rdb, ttl: ttl}
}

func reportKey(sessionID string) string {
	return fmt.Sprintf("%s%s", reportKeyPrefix, sessionID)
}

// Get returns the cached report, or (nil, nil) on a miss.
func (c *ReportCache) Get(ctx context.Context, sessionID string) (*models.Report, error) {
	data, err := c.rdb.Get(ctx, reportKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached report: %w", err)
	}

	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		// drop unreadable entries so the next read recomputes
		c.rdb.Del(ctx, reportKey(sessionID))
		return nil, nil
	}
	return &report, nil
}

func (c *ReportCache) Set(ctx context.Context, report *models.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := c.rdb.Set(ctx, reportKey(report.SessionID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}

func (c *ReportCache) Invalidate(ctx context.Context, sessionID string) error {
	if err := c.rdb.Del(ctx, reportKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate report: %w", err)
	}
	return nil
}

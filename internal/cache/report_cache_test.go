package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockprep/internal/models"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestReportCache_MissThenHit(t *testing.T) {
	_, rdb := setupTestRedis(t)
	c := NewReportCache(rdb, time.Minute)
	ctx := context.Background()

	got, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)

	overall := 4.2
	report := &models.Report{
		SessionID:     "s1",
		Answers:       []models.AnswerRecord{{SessionID: "s1", Rating: 5}},
		OverallRating: &overall,
		RatingStatus:  models.RatingAvailable,
	}
	require.NoError(t, c.Set(ctx, report))

	got, err = c.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4.2, *got.OverallRating)
	assert.Len(t, got.Answers, 1)
}

func TestReportCache_UnavailableRatingStaysNull(t *testing.T) {
	_, rdb := setupTestRedis(t)
	c := NewReportCache(rdb, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &models.Report{SessionID: "empty", Answers: []models.AnswerRecord{}, RatingStatus: models.RatingUnavailable}))

	got, err := c.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Nil(t, got.OverallRating)
	assert.Equal(t, models.RatingUnavailable, got.RatingStatus)
}

func TestReportCache_InvalidateAndExpiry(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	c := NewReportCache(rdb, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &models.Report{SessionID: "s1"}))
	require.NoError(t, c.Invalidate(ctx, "s1"))
	got, _ := c.Get(ctx, "s1")
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, &models.Report{SessionID: "s2"}))
	mr.FastForward(2 * time.Minute)
	got, _ = c.Get(ctx, "s2")
	assert.Nil(t, got)
}

func TestReportCache_CorruptEntryIsDropped(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	c := NewReportCache(rdb, time.Minute)

	require.NoError(t, mr.Set("report:s1", "{not json"))
	got, err := c.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("report:s1"))
}

func TestReportCache_ServerDown(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	c := NewReportCache(rdb, time.Minute)
	mr.Close()

	_, err := c.Get(context.Background(), "s1")
	assert.Error(t, err)
}

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"recognition-service/internal/config"
)

type mapStore struct {
	counts map[string]int
}

func (m *mapStore) IncrementBelow(_ context.Context, actorID, action string, windowStart time.Time, limit int) (int, bool, error) {
	key := actorID + "|" + action + "|" + windowStart.Format("2006-01-02")
	if m.counts[key] >= limit {
		return limit, false, nil
	}
	m.counts[key]++
	return m.counts[key], true, nil
}

// После границы суток счётчик начинается заново: ключ окна меняется,
// старая строка больше не участвует.
func TestCheck_WindowResetsAtDayBoundary(t *testing.T) {
	ctx := context.Background()
	store := &mapStore{counts: map[string]int{}}

	cfg := &config.Config{
		AppTimezone:                "UTC",
		RateLimitRecognitionDaily:  1,
		RateLimitVerificationDaily: 1,
	}
	svc := NewService(store, cfg)

	current := time.Date(2025, 6, 1, 23, 50, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }

	d, err := svc.Check(ctx, "actor-1", ActionRecognitionDaily)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = svc.Check(ctx, "actor-1", ActionRecognitionDaily)
	require.NoError(t, err)
	require.False(t, d.Allowed)

	// Перешагиваем полночь — лимит снова полный
	current = current.Add(20 * time.Minute)

	d, err = svc.Check(ctx, "actor-1", ActionRecognitionDaily)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Zero(t, d.Remaining)
}

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"recognition-service/internal/config"
	"recognition-service/internal/features/ratelimit"
)

// fakeStore повторяет семантику условного инкремента в памяти.
type fakeStore struct {
	counts map[string]int
	err    error
}

func (f *fakeStore) IncrementBelow(_ context.Context, actorID, action string, windowStart time.Time, limit int) (int, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	key := actorID + "|" + action + "|" + windowStart.Format("2006-01-02")
	if f.counts[key] >= limit {
		return limit, false, nil
	}
	f.counts[key]++
	return f.counts[key], true, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AppTimezone:                "UTC",
		RateLimitRecognitionDaily:  3,
		RateLimitVerificationDaily: 2,
	}
}

func TestCheck_AllowsUpToLimitThenBlocks(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{counts: map[string]int{}}
	svc := ratelimit.NewService(store, testConfig())

	// Первые 3 вызова проходят, remaining убывает до нуля
	for i := 0; i < 3; i++ {
		d, err := svc.Check(ctx, "actor-1", ratelimit.ActionRecognitionDaily)
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.Equal(t, 2-i, d.Remaining)
	}

	// Все последующие — отказ с remaining == 0, счётчик не растёт
	for i := 0; i < 5; i++ {
		d, err := svc.Check(ctx, "actor-1", ratelimit.ActionRecognitionDaily)
		require.NoError(t, err)
		require.False(t, d.Allowed)
		require.Zero(t, d.Remaining)
	}
}

func TestCheck_LimitsAreIndependentPerActorAndAction(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{counts: map[string]int{}}
	svc := ratelimit.NewService(store, testConfig())

	d, err := svc.Check(ctx, "actor-1", ratelimit.ActionVerificationDaily)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	// Другой актор стартует со свежим окном
	d, err = svc.Check(ctx, "actor-2", ratelimit.ActionVerificationDaily)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 1, d.Remaining)
}

func TestCheck_UnknownActionFails(t *testing.T) {
	store := &fakeStore{counts: map[string]int{}}
	svc := ratelimit.NewService(store, testConfig())

	_, err := svc.Check(context.Background(), "actor-1", "unknown_action")
	require.Error(t, err)
}

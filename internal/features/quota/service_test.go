package quota_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"recognition-service/internal/config"
	"recognition-service/internal/features/quota"
)

type fakeStore struct {
	used map[string]int
	err  error
}

func (f *fakeStore) ConsumeBelow(_ context.Context, orgID, resource string, periodStart time.Time, max int) (int, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	key := orgID + "|" + resource + "|" + periodStart.Format("2006-01-02")
	if f.used[key] >= max {
		return max, false, nil
	}
	f.used[key]++
	return f.used[key], true, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AppTimezone:              "UTC",
		QuotaRecognitionsPerDay:  2,
		QuotaVerificationsPerDay: 2,
	}
}

func TestCheck_ConsumesUntilExhausted(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{used: map[string]int{}}
	svc := quota.NewService(store, testConfig(), quota.Fail)

	d, err := svc.Check(ctx, "org-1", quota.ResourceVerificationsPerDay)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 1, d.Remaining)

	d, err = svc.Check(ctx, "org-1", quota.ResourceVerificationsPerDay)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Zero(t, d.Remaining)

	d, err = svc.Check(ctx, "org-1", quota.ResourceVerificationsPerDay)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Zero(t, d.Remaining)
}

// Политика Proceed: недоступное хранилище квот не блокирует запрос,
// решение помечается как Degraded.
func TestCheck_StoreFailureProceeds(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	svc := quota.NewService(store, testConfig(), quota.Proceed)

	d, err := svc.Check(context.Background(), "org-1", quota.ResourceVerificationsPerDay)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.True(t, d.Degraded)
}

// Политика Fail: та же ошибка становится терминальной.
func TestCheck_StoreFailureFails(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	svc := quota.NewService(store, testConfig(), quota.Fail)

	_, err := svc.Check(context.Background(), "org-1", quota.ResourceVerificationsPerDay)
	require.Error(t, err)
}

func TestCheck_UnknownResourceFails(t *testing.T) {
	store := &fakeStore{used: map[string]int{}}
	svc := quota.NewService(store, testConfig(), quota.Proceed)

	_, err := svc.Check(context.Background(), "org-1", "unknown_resource")
	require.Error(t, err)
}

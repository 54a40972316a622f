package abuse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"recognition-service/internal/common"
	"recognition-service/internal/features/recognition"
)

type fakeFlagStore struct {
	flags   []AbuseFlag
	history []Event
	failput bool
}

func (f *fakeFlagStore) InsertFlags(_ context.Context, flags []AbuseFlag) error {
	if f.failput {
		return fmt.Errorf("хранилище недоступно")
	}
	f.flags = append(f.flags, flags...)
	return nil
}

func (f *fakeFlagStore) ListByRecognition(_ context.Context, recognitionID string) ([]AbuseFlag, error) {
	var out []AbuseFlag
	for _, fl := range f.flags {
		if fl.RecognitionID == recognitionID {
			out = append(out, fl)
		}
	}
	return out, nil
}

func (f *fakeFlagStore) UpdateStatus(_ context.Context, flagID string, status FlagStatus) error {
	for i := range f.flags {
		if f.flags[i].ID == flagID {
			f.flags[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("флаг %s не найден: %w", flagID, common.ErrNotFound)
}

func (f *fakeFlagStore) PairHistory(_ context.Context, _, _ string, _ time.Time) ([]Event, error) {
	return f.history, nil
}

type fakeLoader struct {
	recs map[string]*recognition.Recognition
}

func (f *fakeLoader) GetByID(_ context.Context, id string) (*recognition.Recognition, error) {
	rec, ok := f.recs[id]
	if !ok {
		return nil, fmt.Errorf("признание %s не найдено: %w", id, common.ErrNotFound)
	}
	return rec, nil
}

func newTestService(store *fakeFlagStore, loader *fakeLoader) *Service {
	svc := NewService(store, loader, NewDetector(Thresholds{
		ReciprocityThreshold: 3,
		ReciprocityWindow:    7 * 24 * time.Hour,
		FrequencyDaily:       10,
		FrequencyWeekly:      30,
		WeightDelta:          2.0,
	}))
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestDetectAndRecordStoresFlags(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store := &fakeFlagStore{}
	for i := 0; i < 3; i++ {
		age := time.Duration(30+i) * time.Hour
		store.history = append(store.history,
			Event{GiverID: "alice", RecipientID: "bob", CreatedAt: now.Add(-age)},
			Event{GiverID: "bob", RecipientID: "alice", CreatedAt: now.Add(-age)},
		)
	}
	svc := newTestService(store, &fakeLoader{})

	rec := &recognition.Recognition{ID: "rec-1", GiverID: "alice", RecipientID: "bob", Status: recognition.StatusPending}
	count, err := svc.DetectAndRecord(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.Len(t, store.flags, 1)
	f := store.flags[0]
	require.NotEmpty(t, f.ID)
	require.Equal(t, "rec-1", f.RecognitionID)
	require.Equal(t, FlagReciprocity, f.FlagType)
	require.Equal(t, MethodAutomatic, f.Method)
}

func TestDetectAndRecordCleanHistory(t *testing.T) {
	store := &fakeFlagStore{}
	svc := newTestService(store, &fakeLoader{})

	rec := &recognition.Recognition{ID: "rec-1", GiverID: "alice", RecipientID: "bob", Status: recognition.StatusPending}
	count, err := svc.DetectAndRecord(context.Background(), rec)
	require.NoError(t, err)
	require.Zero(t, count)
	require.Empty(t, store.flags)
}

func TestAssessAggregates(t *testing.T) {
	store := &fakeFlagStore{flags: []AbuseFlag{
		{ID: "f1", RecognitionID: "rec-1", FlagType: FlagFrequency, Severity: SeverityHigh},
		{ID: "f2", RecognitionID: "rec-1", FlagType: FlagContent, Severity: SeverityLow},
		{ID: "f3", RecognitionID: "rec-2", FlagType: FlagManual, Severity: SeverityLow},
	}}
	loader := &fakeLoader{recs: map[string]*recognition.Recognition{"rec-1": {ID: "rec-1"}}}
	svc := newTestService(store, loader)

	a, err := svc.Assess(context.Background(), "rec-1")
	require.NoError(t, err)
	require.Len(t, a.Flags, 2)
	require.Equal(t, 7+1, a.RiskScore)
	require.Equal(t, ActionEscalate, a.SuggestedAction)
}

func TestAssessUnknownRecognition(t *testing.T) {
	svc := newTestService(&fakeFlagStore{}, &fakeLoader{})
	_, err := svc.Assess(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestReport(t *testing.T) {
	store := &fakeFlagStore{}
	loader := &fakeLoader{recs: map[string]*recognition.Recognition{"rec-1": {ID: "rec-1"}}}
	svc := newTestService(store, loader)

	t.Run("ValidReportStored", func(t *testing.T) {
		flag, err := svc.Report(context.Background(), ReportRequest{
			RecognitionID: "rec-1",
			FlagType:      FlagContent,
			Severity:      SeverityMedium,
			Details:       "текст не про работу",
		})
		require.NoError(t, err)
		require.Equal(t, MethodReported, flag.Method)
		require.Equal(t, FlagPending, flag.Status)
		require.Len(t, store.flags, 1)
	})

	t.Run("AutomaticTypesRejected", func(t *testing.T) {
		_, err := svc.Report(context.Background(), ReportRequest{
			RecognitionID: "rec-1",
			FlagType:      FlagReciprocity,
			Severity:      SeverityMedium,
			Details:       "x",
		})
		require.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("EmptyDetailsRejected", func(t *testing.T) {
		_, err := svc.Report(context.Background(), ReportRequest{
			RecognitionID: "rec-1",
			FlagType:      FlagManual,
			Severity:      SeverityLow,
		})
		require.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestReview(t *testing.T) {
	store := &fakeFlagStore{flags: []AbuseFlag{{ID: "f1", Status: FlagPending}}}
	svc := newTestService(store, &fakeLoader{})

	require.NoError(t, svc.Review(context.Background(), "f1", FlagResolved))
	require.Equal(t, FlagResolved, store.flags[0].Status)

	require.ErrorIs(t, svc.Review(context.Background(), "f1", FlagStatus("BOGUS")), common.ErrValidation)
	require.ErrorIs(t, svc.Review(context.Background(), "missing", FlagDismissed), common.ErrNotFound)
}

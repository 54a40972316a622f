package abuse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"recognition-service/internal/features/abuse"
	"recognition-service/internal/features/recognition"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testThresholds() abuse.Thresholds {
	return abuse.Thresholds{
		ReciprocityThreshold: 3,
		ReciprocityWindow:    7 * 24 * time.Hour,
		FrequencyDaily:       10,
		FrequencyWeekly:      30,
		WeightDelta:          2.0,
	}
}

func pendingRec(giver, recipient string) *recognition.Recognition {
	return &recognition.Recognition{
		ID:          "rec-1",
		GiverID:     giver,
		RecipientID: recipient,
		Weight:      1.0,
		Status:      recognition.StatusPending,
	}
}

// ev строит историческое событие возрастом age назад от testNow.
func ev(giver, recipient string, age time.Duration) abuse.Event {
	return abuse.Event{GiverID: giver, RecipientID: recipient, Weight: 1.0, CreatedAt: testNow.Add(-age)}
}

// exchanges строит n взаимных обменов A↔B возрастом от 30 часов,
// чтобы не задевать суточный частотный порог.
func exchanges(a, b string, n int) []abuse.Event {
	var out []abuse.Event
	for i := 0; i < n; i++ {
		age := 30*time.Hour + time.Duration(i)*time.Hour
		out = append(out, ev(a, b, age), ev(b, a, age))
	}
	return out
}

func flagOfType(t *testing.T, flags []abuse.AbuseFlag, ft abuse.FlagType) abuse.AbuseFlag {
	t.Helper()
	for _, f := range flags {
		if f.FlagType == ft {
			return f
		}
	}
	t.Fatalf("флаг %s не найден среди %v", ft, flags)
	return abuse.AbuseFlag{}
}

func TestDetectReciprocity(t *testing.T) {
	d := abuse.NewDetector(testThresholds())
	rec := pendingRec("alice", "bob")

	t.Run("BelowThresholdNoFlag", func(t *testing.T) {
		flags := d.Detect(rec, exchanges("alice", "bob", 2), testNow)
		require.Empty(t, flags)
	})

	t.Run("AtThresholdMedium", func(t *testing.T) {
		flags := d.Detect(rec, exchanges("alice", "bob", 3), testNow)
		f := flagOfType(t, flags, abuse.FlagReciprocity)
		require.Equal(t, abuse.SeverityMedium, f.Severity)
		require.Equal(t, "rec-1", f.RecognitionID)
		require.Equal(t, abuse.MethodAutomatic, f.Method)
		require.Equal(t, abuse.FlagPending, f.Status)
	})

	t.Run("DoubleThresholdHigh", func(t *testing.T) {
		flags := d.Detect(rec, exchanges("alice", "bob", 6), testNow)
		require.Equal(t, abuse.SeverityHigh, flagOfType(t, flags, abuse.FlagReciprocity).Severity)
	})

	t.Run("QuadrupleThresholdCritical", func(t *testing.T) {
		flags := d.Detect(rec, exchanges("alice", "bob", 12), testNow)
		require.Equal(t, abuse.SeverityCritical, flagOfType(t, flags, abuse.FlagReciprocity).Severity)
	})

	t.Run("MutualCountIsMinOfDirections", func(t *testing.T) {
		// Пять A→B, но лишь один встречный B→A: обмен один, флага нет
		history := []abuse.Event{
			ev("alice", "bob", 30*time.Hour),
			ev("alice", "bob", 31*time.Hour),
			ev("alice", "bob", 32*time.Hour),
			ev("alice", "bob", 33*time.Hour),
			ev("alice", "bob", 34*time.Hour),
			ev("bob", "alice", 35*time.Hour),
		}
		require.Empty(t, d.Detect(rec, history, testNow))
	})

	t.Run("EventsOutsideWindowIgnored", func(t *testing.T) {
		// Два обмена внутри окна, один — за его пределами
		history := exchanges("alice", "bob", 2)
		history = append(history,
			ev("alice", "bob", 8*24*time.Hour),
			ev("bob", "alice", 8*24*time.Hour),
		)
		require.Empty(t, d.Detect(rec, history, testNow))
	})

	t.Run("ThirdPartiesDoNotCount", func(t *testing.T) {
		var history []abuse.Event
		for i := 0; i < 3; i++ {
			age := 30*time.Hour + time.Duration(i)*time.Hour
			history = append(history, ev("alice", "carol", age), ev("carol", "alice", age))
		}
		require.Empty(t, d.Detect(rec, history, testNow))
	})
}

func TestDetectFrequency(t *testing.T) {
	d := abuse.NewDetector(testThresholds())
	rec := pendingRec("alice", "bob")

	t.Run("DailyOverLimitMedium", func(t *testing.T) {
		var history []abuse.Event
		for i := 0; i < 11; i++ {
			history = append(history, ev("alice", "other", time.Duration(i)*time.Hour))
		}
		f := flagOfType(t, d.Detect(rec, history, testNow), abuse.FlagFrequency)
		require.Equal(t, abuse.SeverityMedium, f.Severity)
	})

	t.Run("WeeklyOverLimitHigh", func(t *testing.T) {
		// 31 признание, размазанное по неделе: суточный порог не задет
		var history []abuse.Event
		for i := 0; i < 31; i++ {
			history = append(history, ev("alice", "other", 25*time.Hour+time.Duration(i)*2*time.Hour))
		}
		f := flagOfType(t, d.Detect(rec, history, testNow), abuse.FlagFrequency)
		require.Equal(t, abuse.SeverityHigh, f.Severity)
	})

	t.Run("AtLimitNoFlag", func(t *testing.T) {
		var history []abuse.Event
		for i := 0; i < 10; i++ {
			history = append(history, ev("alice", "other", time.Duration(i)*time.Minute))
		}
		require.Empty(t, d.Detect(rec, history, testNow))
	})

	t.Run("OtherGiversIgnored", func(t *testing.T) {
		var history []abuse.Event
		for i := 0; i < 20; i++ {
			history = append(history, ev("carol", "other", time.Duration(i)*time.Hour))
		}
		require.Empty(t, d.Detect(rec, history, testNow))
	})
}

func TestDetectWeightManipulation(t *testing.T) {
	d := abuse.NewDetector(testThresholds())

	verified := func(weight, verifiedWeight float64) *recognition.Recognition {
		rec := pendingRec("alice", "bob")
		rec.Weight = weight
		rec.VerifiedWeight = &verifiedWeight
		rec.Status = recognition.StatusVerified
		return rec
	}

	t.Run("DeltaOverThresholdHigh", func(t *testing.T) {
		f := flagOfType(t, d.Detect(verified(5.0, 1.0), nil, testNow), abuse.FlagWeightManipulation)
		require.Equal(t, abuse.SeverityHigh, f.Severity)
	})

	t.Run("DeltaAtThresholdNoFlag", func(t *testing.T) {
		require.Empty(t, d.Detect(verified(3.0, 1.0), nil, testNow))
	})

	t.Run("PendingRecordSkipped", func(t *testing.T) {
		require.Empty(t, d.Detect(pendingRec("alice", "bob"), nil, testNow))
	})
}

func TestDetectDeterministic(t *testing.T) {
	d := abuse.NewDetector(testThresholds())
	rec := pendingRec("alice", "bob")
	history := exchanges("alice", "bob", 6)

	first := d.Detect(rec, history, testNow)
	second := d.Detect(rec, history, testNow)
	require.Equal(t, first, second)
}

func TestSuggestAction(t *testing.T) {
	flag := func(ft abuse.FlagType, s abuse.Severity) abuse.AbuseFlag {
		return abuse.AbuseFlag{FlagType: ft, Severity: s}
	}

	tests := []struct {
		name  string
		flags []abuse.AbuseFlag
		want  abuse.SuggestedAction
	}{
		{"NoFlagsApprove", nil, abuse.ActionApprove},
		{"HighSeverityEscalates", []abuse.AbuseFlag{flag(abuse.FlagFrequency, abuse.SeverityHigh)}, abuse.ActionEscalate},
		{"CriticalEscalates", []abuse.AbuseFlag{flag(abuse.FlagReciprocity, abuse.SeverityCritical)}, abuse.ActionEscalate},
		{"MediumWeightManipulationAdjusts", []abuse.AbuseFlag{flag(abuse.FlagWeightManipulation, abuse.SeverityMedium)}, abuse.ActionAdjustWeight},
		{"LowContentDismisses", []abuse.AbuseFlag{flag(abuse.FlagContent, abuse.SeverityLow)}, abuse.ActionDismiss},
		{"MediumReciprocityApproves", []abuse.AbuseFlag{flag(abuse.FlagReciprocity, abuse.SeverityMedium)}, abuse.ActionApprove},
		{
			"EscalateBeatsAdjust",
			[]abuse.AbuseFlag{
				flag(abuse.FlagWeightManipulation, abuse.SeverityMedium),
				flag(abuse.FlagReciprocity, abuse.SeverityCritical),
			},
			abuse.ActionEscalate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, abuse.SuggestAction(tt.flags))
		})
	}
}

func TestRiskScore(t *testing.T) {
	flags := []abuse.AbuseFlag{
		{Severity: abuse.SeverityLow},
		{Severity: abuse.SeverityMedium},
		{Severity: abuse.SeverityCritical},
	}
	require.Equal(t, 1+3+15, abuse.RiskScore(flags))
	require.Equal(t, 0, abuse.RiskScore(nil))
}

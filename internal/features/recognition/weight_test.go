package recognition_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"recognition-service/internal/features/members"
	"recognition-service/internal/features/recognition"
)

func TestComputeVerifiedWeight(t *testing.T) {
	tests := []struct {
		name     string
		original float64
		verified bool
		role     members.Role
		want     float64
	}{
		{"отклонено — ноль для ADMIN", 1.0, false, members.RoleAdmin, 0},
		{"отклонено — ноль для MANAGER", 5.5, false, members.RoleManager, 0},
		{"отклонено — ноль для USER", 2.0, false, members.RoleUser, 0},
		{"ADMIN +30%", 1.0, true, members.RoleAdmin, 1.30},
		{"MANAGER +20%", 2.5, true, members.RoleManager, 3.00},
		{"USER без бонуса", 1.0, true, members.RoleUser, 1.0},
		{"округление до цента", 1.01, true, members.RoleManager, 1.21}, // 1.212 → 1.21
		{"малый вес ADMIN", 0.1, true, members.RoleAdmin, 0.13},
		{"round-half-up", 0.5, true, members.RoleAdmin, 0.65},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recognition.ComputeVerifiedWeight(tt.original, tt.verified, tt.role)
			require.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

// Детерминизм: повторный вызов с тем же входом даёт тот же результат.
func TestComputeVerifiedWeight_Deterministic(t *testing.T) {
	first := recognition.ComputeVerifiedWeight(3.33, true, members.RoleAdmin)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, recognition.ComputeVerifiedWeight(3.33, true, members.RoleAdmin))
	}
}

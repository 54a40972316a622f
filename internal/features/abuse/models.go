// Package abuse реализует анализ паттернов злоупотребления признаниями.
// models.go описывает флаги нарушений и связанные перечисления.
package abuse

import "time"

// FlagType — тип подозреваемого нарушения.
type FlagType string

const (
	FlagReciprocity        FlagType = "RECIPROCITY"
	FlagFrequency          FlagType = "FREQUENCY"
	FlagContent            FlagType = "CONTENT"
	FlagEvidence           FlagType = "EVIDENCE"
	FlagWeightManipulation FlagType = "WEIGHT_MANIPULATION"
	FlagManual             FlagType = "MANUAL"
)

// Severity — серьёзность нарушения, упорядоченная.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Weight возвращает числовой вес серьёзности для агрегатного риска.
func (s Severity) Weight() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 3
	case SeverityHigh:
		return 7
	case SeverityCritical:
		return 15
	default:
		return 0
	}
}

// rank задаёт порядок серьёзностей для сравнений.
func (s Severity) rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// AtLeast сообщает, не ниже ли серьёзность порога other.
func (s Severity) AtLeast(other Severity) bool {
	return s.rank() >= other.rank()
}

// DetectionMethod — как флаг появился.
type DetectionMethod string

const (
	MethodAutomatic    DetectionMethod = "AUTOMATIC"
	MethodReported     DetectionMethod = "REPORTED"
	MethodManualReview DetectionMethod = "MANUAL_REVIEW"
)

// FlagStatus — статус рассмотрения флага.
type FlagStatus string

const (
	FlagPending     FlagStatus = "PENDING"
	FlagUnderReview FlagStatus = "UNDER_REVIEW"
	FlagResolved    FlagStatus = "RESOLVED"
	FlagDismissed   FlagStatus = "DISMISSED"
)

// ValidFlagStatus проверяет статус из запроса ревью.
func ValidFlagStatus(s FlagStatus) bool {
	switch s {
	case FlagPending, FlagUnderReview, FlagResolved, FlagDismissed:
		return true
	default:
		return false
	}
}

// SuggestedAction — рекомендация для ревью-инструментов.
// Ничего не применяется автоматически.
type SuggestedAction string

const (
	ActionEscalate     SuggestedAction = "ESCALATE"
	ActionAdjustWeight SuggestedAction = "ADJUST_WEIGHT"
	ActionDismiss      SuggestedAction = "DISMISS"
	ActionApprove      SuggestedAction = "APPROVE"
)

// AbuseFlag — свидетельство подозреваемого нарушения, привязанное к признанию.
// На одно признание может быть несколько флагов.
type AbuseFlag struct {
	ID            string          `db:"id" json:"id"`
	RecognitionID string          `db:"recognition_id" json:"recognitionId"`
	FlagType      FlagType        `db:"flag_type" json:"flagType"`
	Severity      Severity        `db:"severity" json:"severity"`
	Method        DetectionMethod `db:"detection_method" json:"detectionMethod"`
	Status        FlagStatus      `db:"status" json:"status"`
	Details       string          `db:"details" json:"details"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// Event — одно историческое признание в форме, достаточной для детекции.
// Детектор работает только с этими полями: вход минимален и воспроизводим.
type Event struct {
	GiverID     string
	RecipientID string
	Weight      float64
	CreatedAt   time.Time
}

// RiskScore — агрегатный риск признания: сумма весов серьёзности его флагов.
func RiskScore(flags []AbuseFlag) int {
	score := 0
	for _, f := range flags {
		score += f.Severity.Weight()
	}
	return score
}

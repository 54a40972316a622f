// Package recognition реализует ядро сервиса: признания коллег и машину
// состояний их верификации. models.go описывает структуры для хранения
// признаний и контракты запросов/ответов.
package recognition

import "time"

// Status — статус жизненного цикла признания.
// Единственные законные переходы: PENDING→VERIFIED и PENDING→REJECTED,
// ровно один раз. Не-PENDING запись неизменяема по статусу и весу.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusVerified Status = "VERIFIED"
	StatusRejected Status = "REJECTED"
)

// Visibility — кому видно признание.
type Visibility string

const (
	VisibilityPrivate Visibility = "PRIVATE"
	VisibilityTeam    Visibility = "TEAM"
	VisibilityPublic  Visibility = "PUBLIC"
)

// ValidVisibility проверяет значение видимости из запроса.
func ValidVisibility(v Visibility) bool {
	switch v {
	case VisibilityPrivate, VisibilityTeam, VisibilityPublic:
		return true
	default:
		return false
	}
}

// Recognition — признание заслуг коллеги.
type Recognition struct {
	ID             string     `db:"id" json:"id"`
	GiverID        string     `db:"giver_id" json:"giverId"`
	RecipientID    string     `db:"recipient_id" json:"recipientId"`
	OrganizationID string     `db:"organization_id" json:"organizationId"`
	Reason         string     `db:"reason" json:"reason"`
	Tags           []string   `db:"tags" json:"tags,omitempty"`
	EvidenceRefs   []string   `db:"evidence_refs" json:"evidenceRefs,omitempty"`
	Weight         float64    `db:"weight" json:"weight"`                    // Исходный вес, неизменяем после создания
	VerifiedWeight *float64   `db:"verified_weight" json:"verifiedWeight"`   // Заполняется только при верификации
	Status         Status     `db:"status" json:"status"`
	Visibility     Visibility `db:"visibility" json:"visibility"`
	VerifierID     *string    `db:"verifier_id" json:"verifierId,omitempty"`
	VerifierRole   *string    `db:"verifier_role" json:"verifierRole,omitempty"`
	VerifyNote     *string    `db:"verify_note" json:"verifyNote,omitempty"`
	VerifiedAt     *time.Time `db:"verified_at" json:"verifiedAt,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

// CreateRequest — запрос на создание признания.
type CreateRequest struct {
	GiverID        string     `json:"-"` // Из заголовка X-Actor-ID, не из тела
	RecipientID    string     `json:"recipientId"`
	Reason         string     `json:"reason"`
	Tags           []string   `json:"tags,omitempty"`
	EvidenceRefs   []string   `json:"evidenceRefs,omitempty"`
	Weight         float64    `json:"weight,omitempty"` // 0 → вес по умолчанию из конфига
	Visibility     Visibility `json:"visibility,omitempty"`
	IdempotencyKey string     `json:"-"` // Из заголовка Idempotency-Key
}

// VerifyRequest — запрос на верификацию признания.
type VerifyRequest struct {
	RecognitionID  string `json:"-"` // Из пути запроса
	VerifierID     string `json:"-"` // Из заголовка X-Actor-ID
	Verified       bool   `json:"verified"`
	Note           string `json:"note,omitempty"`
	IdempotencyKey string `json:"-"`
}

// VerifyResult — результат верификации. При идемпотентном повторе клиент
// получает ровно этот же ответ, а не «уже обработано».
type VerifyResult struct {
	Status         Status    `json:"status"`
	VerifiedWeight float64   `json:"verifiedWeight"`
	WeightChange   float64   `json:"weightChange"`
	VerifiedAt     time.Time `json:"verifiedAt"`
}

// Package quota реализует квоты потребления ресурсов на уровне организации.
// models.go описывает счётчик квоты и результат проверки.
package quota

import "time"

// Имена ресурсов, на которые заведены квоты.
const (
	ResourceRecognitionsPerDay  = "recognitions_per_day"
	ResourceVerificationsPerDay = "verifications_per_day"
)

// Limit — статическое описание квоты ресурса: предел и длина периода.
type Limit struct {
	Max    int
	Period time.Duration
}

// Counter — строка счётчика в таблице quotas.
// Ключ: (organization_id, resource, period_start). Сброс ленивый:
// новый период даёт новый ключ, старая строка просто перестаёт совпадать.
type Counter struct {
	ID             int64     `db:"id"`
	OrganizationID string    `db:"organization_id"`
	Resource       string    `db:"resource"`
	PeriodStart    time.Time `db:"period_start"`
	Used           int       `db:"used"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Decision — результат проверки квоты.
// Degraded == true означает, что хранилище квот было недоступно и проверка
// пропущена по политике Proceed: это видимое состояние, а не тихий catch.
type Decision struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Degraded  bool `json:"degraded,omitempty"`
}

// FailurePolicy задаёт поведение при недоступности хранилища квот.
type FailurePolicy int

const (
	// Proceed — залогировать и пропустить запрос (доступность важнее строгости).
	Proceed FailurePolicy = iota
	// Fail — вернуть ошибку вызывающему.
	Fail
)

// Package ratelimit реализует персистентные суточные лимиты действий
// на пару (актор, действие). models.go описывает структуру счётчика
// и результат проверки.
package ratelimit

import "time"

// Имена действий, для которых ведутся счётчики.
const (
	ActionRecognitionDaily  = "recognition_daily"
	ActionVerificationDaily = "verification_daily"
)

// Counter — строка счётчика в таблице rate_limits.
// Ключ: (actor_id, action, window_start). Создаётся лениво при первом
// действии в окне; по границе окна начинается новая строка.
type Counter struct {
	ID          int64     `db:"id"`
	ActorID     string    `db:"actor_id"`
	Action      string    `db:"action"`
	WindowStart time.Time `db:"window_start"`
	Count       int       `db:"count"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Decision — результат проверки лимита.
type Decision struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
}

// Package recognition — interfaces.go описывает зависимости машины состояний.
// Сервис зависит от интерфейсов, а не от конкретных репозиториев:
// guard-последовательность проверяется тестами на фейках, без БД.
package recognition

import (
	"context"

	"recognition-service/internal/features/members"
	"recognition-service/internal/features/quota"
	"recognition-service/internal/features/ratelimit"
)

// Store — персистентность признаний.
type Store interface {
	Create(ctx context.Context, rec *Recognition) error
	GetByID(ctx context.Context, id string) (*Recognition, error)
	// ApplyVerification выполняет условный переход PENDING→status одним
	// запросом. Возвращает false, если запись уже не PENDING (проигрыш гонки).
	ApplyVerification(ctx context.Context, id string, status Status, verifiedWeight float64, verifierID string, verifierRole members.Role, note string) (*Recognition, bool, error)
	ListByActor(ctx context.Context, actorID string, limit int) ([]*Recognition, error)
}

// RoleResolver возвращает участника с его ролью.
type RoleResolver interface {
	Resolve(ctx context.Context, actorID string) (*members.Member, error)
}

// RateLimiter — суточные лимиты действий актора.
type RateLimiter interface {
	Check(ctx context.Context, actorID, action string) (ratelimit.Decision, error)
}

// QuotaChecker — квоты организации.
type QuotaChecker interface {
	Check(ctx context.Context, orgID, resource string) (quota.Decision, error)
}

// IdempotencyGuard — кэш ответов по клиентскому ключу. Запись, сохранённая
// под другой операцией, при Lookup не засчитывается как попадание.
type IdempotencyGuard interface {
	Lookup(ctx context.Context, key, actorID, action string) ([]byte, bool, error)
	Remember(ctx context.Context, key, actorID, action string, response []byte) error
}

// Auditor — best-effort журнал: ошибки логируются вызывающим и отбрасываются.
type Auditor interface {
	Audit(ctx context.Context, eventCode, actorID, targetID string, metadata map[string]any) error
	Telemetry(ctx context.Context, eventCode, actorID, targetID string, metadata map[string]any) error
}

// FlagRecorder — инлайновая проверка на абьюз. Реализуется пакетом abuse;
// для машины состояний это best-effort шаг, не блокирующий операцию.
type FlagRecorder interface {
	DetectAndRecord(ctx context.Context, rec *Recognition) (int, error)
}

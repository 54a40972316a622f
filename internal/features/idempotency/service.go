// Package idempotency — service.go содержит логику дедупликации.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"recognition-service/internal/config"
)

// Store — персистентный кэш ответов.
type Store interface {
	Get(ctx context.Context, key, actorID string) (*Record, error)
	Put(ctx context.Context, rec *Record) error
}

// Service дедуплицирует запросы по клиентскому ключу.
type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewService создаёт сервис идемпотентности.
func NewService(store Store, cfg *config.Config) *Service {
	return &Service{store: store, ttl: cfg.IdempotencyTTL, now: time.Now}
}

// Lookup ищет кэшированный ответ для (ключ, актор) в рамках операции action.
//
// Возвращает:
//   - response: сохранённый ответ байт-в-байт
//   - hit: true, если дубликат найден и не протух
//
// Пустой ключ означает «идемпотентность не запрошена» — всегда промах.
// Протухшая запись (старше TTL) не засчитывается: повтор после истечения
// срока обрабатывается как новый запрос. Запись под другой операцией —
// тоже промах: ключ, использованный для создания, не отдаёт свой ответ
// верификации (формы ответов разные, тихая подмена хуже повтора).
func (s *Service) Lookup(ctx context.Context, key, actorID, action string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, nil
	}

	rec, err := s.store.Get(ctx, key, actorID)
	if err != nil {
		return nil, false, fmt.Errorf("поиск дубликата: %w", err)
	}
	if rec == nil {
		return nil, false, nil
	}
	if rec.Action != action {
		return nil, false, nil
	}
	if s.now().Sub(rec.CreatedAt) > s.ttl {
		return nil, false, nil
	}
	return rec.Response, true, nil
}

// Remember сохраняет ответ под ключом. Пустой ключ — no-op.
func (s *Service) Remember(ctx context.Context, key, actorID, action string, response []byte) error {
	if key == "" {
		return nil
	}
	return s.store.Put(ctx, &Record{
		Key:      key,
		ActorID:  actorID,
		Action:   action,
		Response: response,
	})
}

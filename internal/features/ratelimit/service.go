// Package ratelimit — service.go содержит бизнес-логику проверки лимитов.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"recognition-service/internal/common"
	"recognition-service/internal/config"
)

// Store — персистентный счётчик с условным инкрементом.
type Store interface {
	IncrementBelow(ctx context.Context, actorID, action string, windowStart time.Time, limit int) (int, bool, error)
}

// Service проверяет суточные лимиты действий.
type Service struct {
	store  Store
	limits map[string]int
	loc    *time.Location
	now    func() time.Time
}

// NewService создаёт сервис лимитов. Таблица лимитов — статическая,
// из конфигурации: действие без лимита считается ошибкой программиста.
func NewService(store Store, cfg *config.Config) *Service {
	return &Service{
		store: store,
		limits: map[string]int{
			ActionRecognitionDaily:  cfg.RateLimitRecognitionDaily,
			ActionVerificationDaily: cfg.RateLimitVerificationDaily,
		},
		loc: cfg.Location(),
		now: time.Now,
	}
}

// Check атомарно занимает одну единицу лимита для (актор, действие).
//
// Возвращает:
//   - Decision{Allowed, Remaining}: Remaining — сколько действий осталось в окне
//   - error: только инфраструктурные ошибки; исчерпанный лимит — не ошибка
func (s *Service) Check(ctx context.Context, actorID, action string) (Decision, error) {
	limit, ok := s.limits[action]
	if !ok {
		return Decision{}, fmt.Errorf("нет лимита для действия %q: %w", action, common.ErrInternal)
	}

	windowStart := common.DayStart(s.now(), s.loc)
	count, allowed, err := s.store.IncrementBelow(ctx, actorID, action, windowStart, limit)
	if err != nil {
		return Decision{}, fmt.Errorf("проверка лимита недоступна: %w", err)
	}

	if !allowed {
		return Decision{Allowed: false, Remaining: 0}, nil
	}
	return Decision{Allowed: true, Remaining: limit - count}, nil
}

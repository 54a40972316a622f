// Package quota — service.go содержит бизнес-логику проверки квот.
//
// Осознанный компромисс (не недосмотр): при недоступности хранилища квот
// с политикой Proceed запрос пропускается с предупреждением в логе.
// Квота — второстепенный предохранитель; падение мониторинговой
// инфраструктуры не должно останавливать легитимные верификации.
package quota

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"recognition-service/internal/common"
	"recognition-service/internal/config"
)

// Store — персистентный счётчик квоты с условным инкрементом.
type Store interface {
	ConsumeBelow(ctx context.Context, orgID, resource string, periodStart time.Time, max int) (int, bool, error)
}

// Service проверяет квоты организаций.
type Service struct {
	store  Store
	limits map[string]Limit
	policy FailurePolicy
	loc    *time.Location
	now    func() time.Time
}

// NewService создаёт сервис квот со статической таблицей лимитов из конфига.
// Политика поведения при сбое хранилища — явный параметр, чтобы компромисс
// был виден в точке сборки и переопределялся в тестах.
func NewService(store Store, cfg *config.Config, policy FailurePolicy) *Service {
	return &Service{
		store: store,
		limits: map[string]Limit{
			ResourceRecognitionsPerDay:  {Max: cfg.QuotaRecognitionsPerDay, Period: 24 * time.Hour},
			ResourceVerificationsPerDay: {Max: cfg.QuotaVerificationsPerDay, Period: 24 * time.Hour},
		},
		policy: policy,
		loc:    cfg.Location(),
		now:    time.Now,
	}
}

// Check атомарно занимает одну единицу квоты ресурса для организации.
func (s *Service) Check(ctx context.Context, orgID, resource string) (Decision, error) {
	limit, ok := s.limits[resource]
	if !ok {
		return Decision{}, fmt.Errorf("нет квоты для ресурса %q: %w", resource, common.ErrInternal)
	}

	used, allowed, err := s.store.ConsumeBelow(ctx, orgID, resource, s.periodStart(limit.Period), limit.Max)
	if err != nil {
		if s.policy == Proceed {
			log.WithError(err).WithFields(log.Fields{
				"org_id":   orgID,
				"resource": resource,
			}).Warn("Хранилище квот недоступно — пропускаем по политике Proceed")
			return Decision{Allowed: true, Remaining: 0, Degraded: true}, nil
		}
		return Decision{}, fmt.Errorf("проверка квоты недоступна: %w", err)
	}

	if !allowed {
		return Decision{Allowed: false, Remaining: 0}, nil
	}
	return Decision{Allowed: true, Remaining: limit.Max - used}, nil
}

// periodStart возвращает начало текущего периода квоты.
// Суточные периоды привязаны к границе суток в настроенном поясе,
// остальные — к усечению по длине периода.
func (s *Service) periodStart(period time.Duration) time.Time {
	if period == 24*time.Hour {
		return common.DayStart(s.now(), s.loc)
	}
	return s.now().UTC().Truncate(period)
}

// RetentionCutoff возвращает границу, раньше которой строки квот
// можно удалять. Используется крон-свипом.
func (s *Service) RetentionCutoff(retentionDays int) time.Time {
	return common.DayStart(s.now(), s.loc).AddDate(0, 0, -retentionDays)
}

// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание чисток: отработанные окна лимитов,
// старые строки квот и протухшие ключи идемпотентности.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"recognition-service/internal/config"
	"recognition-service/internal/features/idempotency"
	"recognition-service/internal/features/quota"
	"recognition-service/internal/features/ratelimit"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron        *cron.Cron
	cfg         *config.Config
	rateLimits  *ratelimit.Repository
	quotas      *quota.Repository
	quotaSvc    *quota.Service
	idempotency *idempotency.Repository
}

// NewScheduler создаёт планировщик задач в часовом поясе суточных окон.
func NewScheduler(cfg *config.Config, rateLimits *ratelimit.Repository, quotas *quota.Repository, quotaSvc *quota.Service, idem *idempotency.Repository) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(cfg.Location())),
		cfg:         cfg,
		rateLimits:  rateLimits,
		quotas:      quotas,
		quotaSvc:    quotaSvc,
		idempotency: idem,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Ежедневная чистка в 00:30 — полчаса после границы суток,
	// чтобы не гоняться с открытием новых окон
	s.cron.AddFunc("30 0 * * *", func() {
		log.Info("[CRON] Чистка отработанных окон лимитов")

		// Окна старше двух суток уже никому не нужны
		cutoff := time.Now().In(s.cfg.Location()).AddDate(0, 0, -2)
		if n, err := s.rateLimits.DeleteExpired(ctx, cutoff); err != nil {
			log.WithError(err).Error("[CRON] Ошибка чистки лимитов")
		} else {
			log.Infof("[CRON] Удалено окон лимитов: %d", n)
		}

		if n, err := s.quotas.DeleteExpired(ctx, s.quotaSvc.RetentionCutoff(s.cfg.QuotaRetentionDays)); err != nil {
			log.WithError(err).Error("[CRON] Ошибка чистки квот")
		} else {
			log.Infof("[CRON] Удалено строк квот: %d", n)
		}
	})

	// Ключи идемпотентности чистим каждый час: TTL короткий, таблица горячая
	s.cron.AddFunc("0 * * * *", func() {
		log.Debug("[CRON] Чистка ключей идемпотентности")
		cutoff := time.Now().Add(-s.cfg.IdempotencyTTL)
		if n, err := s.idempotency.DeleteExpired(ctx, cutoff); err != nil {
			log.WithError(err).Error("[CRON] Ошибка чистки ключей идемпотентности")
		} else if n > 0 {
			log.Infof("[CRON] Удалено ключей идемпотентности: %d", n)
		}
	})

	s.cron.Start()
	log.Infof("Планировщик задач запущен (%s)", s.cfg.AppTimezone)
}

// Stop останавливает планировщик, дождавшись текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

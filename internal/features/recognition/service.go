// Package recognition — service.go содержит машину состояний верификации
// и логику создания признаний.
//
// Каждый входящий запрос проходит guard-последовательность; каждый guard
// либо пропускает дальше, либо завершает запрос своим кодом ошибки и
// своим событием аудита. Некритичные шаги (журнал, инлайн-детекция абьюза)
// деградируют в предупреждение в логе и не блокируют основной поток.
package recognition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"recognition-service/internal/audit"
	"recognition-service/internal/common"
	"recognition-service/internal/config"
	"recognition-service/internal/features/quota"
	"recognition-service/internal/features/ratelimit"
)

// Имена действий для идемпотентности.
const (
	actionCreate = "create_recognition"
	actionVerify = "verify_recognition"
)

// Service — машина состояний признаний.
type Service struct {
	store   Store
	members RoleResolver
	limiter RateLimiter
	quotas  QuotaChecker
	idem    IdempotencyGuard
	auditor Auditor
	flags   FlagRecorder
	cfg     *config.Config
}

// NewService создаёт сервис признаний. Все зависимости — явные параметры:
// жизненным циклом клиентов владеет точка сборки, не глобальное состояние.
func NewService(store Store, members RoleResolver, limiter RateLimiter, quotas QuotaChecker, idem IdempotencyGuard, auditor Auditor, flags FlagRecorder, cfg *config.Config) *Service {
	return &Service{
		store:   store,
		members: members,
		limiter: limiter,
		quotas:  quotas,
		idem:    idem,
		auditor: auditor,
		flags:   flags,
		cfg:     cfg,
	}
}

// Create создаёт признание в статусе PENDING.
//
// Порядок guard'ов: валидация → идемпотентность → rate limit → квота
// организации → вставка. Детекция абьюза и журнал — best-effort после
// вставки.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Recognition, error) {
	if err := s.validateCreate(&req); err != nil {
		return nil, err
	}

	// Идемпотентность: повтор с тем же ключом возвращает исходный ответ
	if cached, hit := s.lookupReplay(ctx, req.IdempotencyKey, req.GiverID, actionCreate); hit {
		var rec Recognition
		if err := json.Unmarshal(cached, &rec); err == nil {
			log.WithField("key", req.IdempotencyKey).Debug("Идемпотентный повтор создания")
			return &rec, nil
		}
	}

	giver, err := s.members.Resolve(ctx, req.GiverID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("неизвестный актор %s: %w", req.GiverID, common.ErrForbidden)
		}
		return nil, err
	}

	d, err := s.limiter.Check(ctx, giver.UserID, ratelimit.ActionRecognitionDaily)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", common.ErrUnavailable)
	}
	if !d.Allowed {
		s.auditLog(ctx, audit.EventCreateRateLimited, giver.UserID, "", nil)
		return nil, fmt.Errorf("суточный лимит признаний исчерпан: %w", common.ErrRateLimited)
	}

	q, err := s.quotas.Check(ctx, giver.OrganizationID, quota.ResourceRecognitionsPerDay)
	if err != nil {
		return nil, fmt.Errorf("проверка квоты: %w", err)
	}
	if !q.Allowed {
		s.auditLog(ctx, audit.EventCreateQuotaExceeded, giver.UserID, "", map[string]any{"org_id": giver.OrganizationID})
		return nil, fmt.Errorf("квота признаний организации исчерпана: %w", common.ErrQuotaExceeded)
	}

	rec := &Recognition{
		ID:             uuid.NewString(),
		GiverID:        giver.UserID,
		RecipientID:    req.RecipientID,
		OrganizationID: giver.OrganizationID,
		Reason:         req.Reason,
		Tags:           req.Tags,
		EvidenceRefs:   req.EvidenceRefs,
		Weight:         req.Weight,
		Status:         StatusPending,
		Visibility:     req.Visibility,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}

	// Инлайн-детекция абьюза — best-effort: сбой детектора не отменяет создание
	if n, err := s.flags.DetectAndRecord(ctx, rec); err != nil {
		log.WithError(err).Warn("Детекция абьюза при создании не удалась")
	} else if n > 0 {
		s.auditLog(ctx, audit.EventAbuseFlagged, giver.UserID, rec.ID, map[string]any{"flags": n})
	}

	s.auditLog(ctx, audit.EventRecognitionCreated, giver.UserID, rec.ID, map[string]any{"weight": rec.Weight})
	s.telemetryLog(ctx, audit.EventRecognitionCreated, giver.UserID, rec.ID, nil)
	s.remember(ctx, req.IdempotencyKey, giver.UserID, actionCreate, rec)

	return rec, nil
}

// Verify выполняет верификацию признания: PENDING → VERIFIED/REJECTED.
//
// Guard-последовательность (каждый шаг завершает запрос при отказе):
// идемпотентность → авторизация → rate limit → квота → загрузка записи →
// статус PENDING → запрет самоверификации → вычисление веса →
// условный переход → журнал → кэш идемпотентности.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	// 1. Идемпотентность: повтор отдаёт исходный результат без side effects
	if cached, hit := s.lookupReplay(ctx, req.IdempotencyKey, req.VerifierID, actionVerify); hit {
		var res VerifyResult
		if err := json.Unmarshal(cached, &res); err == nil {
			log.WithField("key", req.IdempotencyKey).Debug("Идемпотентный повтор верификации")
			return &res, nil
		}
	}

	// 2. Авторизация: только MANAGER/ADMIN
	verifier, err := s.members.Resolve(ctx, req.VerifierID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrForbidden) {
			s.auditLog(ctx, audit.EventVerifyUnauthorized, req.VerifierID, req.RecognitionID, nil)
			return nil, fmt.Errorf("актор %s не может верифицировать: %w", req.VerifierID, common.ErrForbidden)
		}
		return nil, err
	}
	if !verifier.Role.CanVerify() {
		s.auditLog(ctx, audit.EventVerifyUnauthorized, verifier.UserID, req.RecognitionID, map[string]any{"role": string(verifier.Role)})
		return nil, fmt.Errorf("роль %s не может верифицировать: %w", verifier.Role, common.ErrForbidden)
	}

	// 3. Rate limit верификатора
	d, err := s.limiter.Check(ctx, verifier.UserID, ratelimit.ActionVerificationDaily)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", common.ErrUnavailable)
	}
	if !d.Allowed {
		s.auditLog(ctx, audit.EventVerifyRateLimited, verifier.UserID, req.RecognitionID, nil)
		return nil, fmt.Errorf("суточный лимит верификаций исчерпан: %w", common.ErrRateLimited)
	}

	// 4. Квота организации (при сбое хранилища — Proceed, см. пакет quota)
	q, err := s.quotas.Check(ctx, verifier.OrganizationID, quota.ResourceVerificationsPerDay)
	if err != nil {
		return nil, fmt.Errorf("проверка квоты: %w", err)
	}
	if !q.Allowed {
		s.auditLog(ctx, audit.EventVerifyQuotaExceeded, verifier.UserID, req.RecognitionID, map[string]any{"org_id": verifier.OrganizationID})
		return nil, fmt.Errorf("квота верификаций организации исчерпана: %w", common.ErrQuotaExceeded)
	}

	// 5. Загрузка целевой записи
	rec, err := s.store.GetByID(ctx, req.RecognitionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.auditLog(ctx, audit.EventVerifyNotFound, verifier.UserID, req.RecognitionID, nil)
		}
		return nil, err
	}

	// 6. Guard статуса: не-PENDING запись неизменяема
	if rec.Status != StatusPending {
		s.auditLog(ctx, audit.EventVerifyConflict, verifier.UserID, rec.ID, map[string]any{"status": string(rec.Status)})
		return nil, fmt.Errorf("признание %s уже обработано (%s): %w", rec.ID, rec.Status, common.ErrConflict)
	}

	// 7. Запрет самоверификации — для любой роли
	if verifier.UserID == rec.GiverID {
		s.auditLog(ctx, audit.EventVerifySelfAttempt, verifier.UserID, rec.ID, nil)
		return nil, common.ErrSelfVerification
	}

	// 8. Вычисление подтверждённого веса и нового статуса
	newWeight := ComputeVerifiedWeight(rec.Weight, req.Verified, verifier.Role)
	newStatus := StatusRejected
	if req.Verified {
		newStatus = StatusVerified
	}

	// 9. Условный переход: проигравший гонку получает Conflict
	updated, ok, err := s.store.ApplyVerification(ctx, rec.ID, newStatus, newWeight, verifier.UserID, verifier.Role, req.Note)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.auditLog(ctx, audit.EventVerifyConflict, verifier.UserID, rec.ID, map[string]any{"race": true})
		return nil, fmt.Errorf("признание %s уже обработано конкурентным запросом: %w", rec.ID, common.ErrConflict)
	}

	result := &VerifyResult{
		Status:         updated.Status,
		VerifiedWeight: newWeight,
		WeightChange:   common.Round2(newWeight - rec.Weight),
		VerifiedAt:     *updated.VerifiedAt,
	}

	// 10. Журнал и инлайн-детекция — best-effort
	eventCode := audit.EventRecognitionRejected
	if req.Verified {
		eventCode = audit.EventRecognitionVerified
	}
	meta := map[string]any{
		"verified_weight": result.VerifiedWeight,
		"weight_change":   result.WeightChange,
	}
	s.auditLog(ctx, eventCode, verifier.UserID, rec.ID, meta)
	s.telemetryLog(ctx, eventCode, verifier.UserID, rec.ID, meta)

	if n, err := s.flags.DetectAndRecord(ctx, updated); err != nil {
		log.WithError(err).Warn("Детекция абьюза при верификации не удалась")
	} else if n > 0 {
		s.auditLog(ctx, audit.EventAbuseFlagged, verifier.UserID, rec.ID, map[string]any{"flags": n})
	}

	// 11. Кэш идемпотентного ответа
	s.remember(ctx, req.IdempotencyKey, verifier.UserID, actionVerify, result)

	return result, nil
}

// Get возвращает признание по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (*Recognition, error) {
	return s.store.GetByID(ctx, id)
}

// ListByActor возвращает ленту признаний актора (данные и полученные).
func (s *Service) ListByActor(ctx context.Context, actorID string, limit int) ([]*Recognition, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListByActor(ctx, actorID, limit)
}

// validateCreate нормализует и проверяет запрос на создание.
func (s *Service) validateCreate(req *CreateRequest) error {
	if req.GiverID == "" || req.RecipientID == "" {
		return fmt.Errorf("требуются даритель и получатель: %w", common.ErrValidation)
	}
	if req.GiverID == req.RecipientID {
		return common.ErrSelfRecognition
	}
	if utf8.RuneCountInString(req.Reason) < s.cfg.RecognitionMinReasonLen {
		return fmt.Errorf("причина короче %d символов: %w", s.cfg.RecognitionMinReasonLen, common.ErrValidation)
	}
	if len(req.Tags) > s.cfg.RecognitionMaxTags {
		return fmt.Errorf("не больше %d тегов: %w", s.cfg.RecognitionMaxTags, common.ErrValidation)
	}
	if req.Weight == 0 {
		req.Weight = s.cfg.RecognitionWeightDef
	}
	if req.Weight < s.cfg.RecognitionWeightMin || req.Weight > s.cfg.RecognitionWeightMax {
		return fmt.Errorf("вес вне диапазона [%g, %g]: %w",
			s.cfg.RecognitionWeightMin, s.cfg.RecognitionWeightMax, common.ErrValidation)
	}
	if req.Visibility == "" {
		req.Visibility = VisibilityTeam
	}
	if !ValidVisibility(req.Visibility) {
		return fmt.Errorf("неизвестная видимость %q: %w", req.Visibility, common.ErrValidation)
	}
	return nil
}

// lookupReplay ищет кэшированный ответ. Сбой кэша — не повод отклонять
// запрос: деградируем в промах с предупреждением (повторная обработка
// безопасна — условный переход статуса вернёт Conflict).
func (s *Service) lookupReplay(ctx context.Context, key, actorID, action string) ([]byte, bool) {
	cached, hit, err := s.idem.Lookup(ctx, key, actorID, action)
	if err != nil {
		log.WithError(err).Warn("Кэш идемпотентности недоступен — считаем промахом")
		return nil, false
	}
	return cached, hit
}

// remember сериализует и кэширует ответ под ключом. Best-effort.
func (s *Service) remember(ctx context.Context, key, actorID, action string, response any) {
	if key == "" {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		log.WithError(err).Error("Не удалось сериализовать ответ для кэша идемпотентности")
		return
	}
	if err := s.idem.Remember(ctx, key, actorID, action, payload); err != nil {
		log.WithError(err).Warn("Не удалось сохранить ключ идемпотентности")
	}
}

// auditLog пишет запись аудита; ошибка журнала логируется и отбрасывается.
func (s *Service) auditLog(ctx context.Context, code, actorID, targetID string, meta map[string]any) {
	if err := s.auditor.Audit(ctx, code, actorID, targetID, meta); err != nil {
		log.WithError(err).WithField("event", code).Warn("Запись аудита не удалась")
	}
}

// telemetryLog пишет запись телеметрии; тот же best-effort контракт.
func (s *Service) telemetryLog(ctx context.Context, code, actorID, targetID string, meta map[string]any) {
	if err := s.auditor.Telemetry(ctx, code, actorID, targetID, meta); err != nil {
		log.WithError(err).WithField("event", code).Warn("Запись телеметрии не удалась")
	}
}

// Package audit реализует append-only журнал аудита и телеметрии.
//
// Контракт best-effort виден в сигнатуре: Append возвращает ошибку,
// которую вызывающий логирует и отбрасывает. Падение журнала никогда
// не блокирует основную операцию — но и не прячется в молчаливом catch.
package audit

import (
	"context"
	"time"

	"recognition-service/internal/common"
)

// Каналы журнала.
const (
	ChannelAudit     = "audit"
	ChannelTelemetry = "telemetry"
)

// Коды событий. У каждого исхода guard-последовательности — свой код,
// чтобы дашборды отличали попытки абьюза от обычных ошибок.
const (
	EventRecognitionCreated  = "RECOGNITION_CREATED"
	EventRecognitionVerified = "RECOGNITION_VERIFIED"
	EventRecognitionRejected = "RECOGNITION_REJECTED"
	EventCreateRateLimited   = "CREATE_RATE_LIMITED"
	EventCreateQuotaExceeded = "CREATE_QUOTA_EXCEEDED"
	EventVerifyUnauthorized  = "UNAUTHORIZED"
	EventVerifySelfAttempt   = "SELF_ATTEMPT"
	EventVerifyRateLimited   = "VERIFY_RATE_LIMITED"
	EventVerifyQuotaExceeded = "VERIFY_QUOTA_EXCEEDED"
	EventVerifyConflict      = "VERIFY_CONFLICT"
	EventVerifyNotFound      = "VERIFY_NOT_FOUND"
	EventAbuseFlagged        = "ABUSE_FLAGGED"
	EventRoleAssigned        = "ROLE_ASSIGNED"
)

// Entry — одна запись журнала.
// Идентификаторы акторов хранятся только в псевдонимизированном виде.
type Entry struct {
	ID        int64          `db:"id"`
	Channel   string         `db:"channel"`
	EventCode string         `db:"event_code"`
	ActorHash string         `db:"actor_hash"`
	TargetID  string         `db:"target_id"` // ID признания — не персональные данные
	Metadata  map[string]any `db:"metadata"`
	CreatedAt time.Time      `db:"created_at"`
}

// Sink — приёмник журнальных записей.
type Sink interface {
	Append(ctx context.Context, e Entry) error
}

// Service пишет записи аудита и телеметрии через общий приёмник.
type Service struct {
	sink Sink
}

func NewService(sink Sink) *Service {
	return &Service{sink: sink}
}

// Audit добавляет запись в канал аудита. Сырые идентификаторы акторов
// хэшируются здесь — дальше этой точки они не проходят.
func (s *Service) Audit(ctx context.Context, eventCode, actorID, targetID string, metadata map[string]any) error {
	return s.sink.Append(ctx, Entry{
		Channel:   ChannelAudit,
		EventCode: eventCode,
		ActorHash: common.HashID(actorID),
		TargetID:  targetID,
		Metadata:  metadata,
	})
}

// Telemetry добавляет запись в аналитический канал. Та же форма, что аудит.
func (s *Service) Telemetry(ctx context.Context, eventCode, actorID, targetID string, metadata map[string]any) error {
	return s.sink.Append(ctx, Entry{
		Channel:   ChannelTelemetry,
		EventCode: eventCode,
		ActorHash: common.HashID(actorID),
		TargetID:  targetID,
		Metadata:  metadata,
	})
}

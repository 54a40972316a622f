// Package abuse — service.go связывает детекторы с хранилищем.
// Инлайновая детекция при создании/верификации — best-effort: ошибка
// анализа логируется и не блокирует основную операцию.
package abuse

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"recognition-service/internal/common"
	"recognition-service/internal/features/recognition"
)

// FlagStore — персистентность флагов и доступ к истории признаний.
type FlagStore interface {
	InsertFlags(ctx context.Context, flags []AbuseFlag) error
	ListByRecognition(ctx context.Context, recognitionID string) ([]AbuseFlag, error)
	UpdateStatus(ctx context.Context, flagID string, status FlagStatus) error
	PairHistory(ctx context.Context, giverID, recipientID string, since time.Time) ([]Event, error)
}

// RecognitionLoader загружает признание для отложенного анализа и репортов.
type RecognitionLoader interface {
	GetByID(ctx context.Context, id string) (*recognition.Recognition, error)
}

type Service struct {
	store        FlagStore
	recognitions RecognitionLoader
	detector     *Detector

	now func() time.Time
}

func NewService(store FlagStore, recognitions RecognitionLoader, detector *Detector) *Service {
	return &Service{
		store:        store,
		recognitions: recognitions,
		detector:     detector,
		now:          time.Now,
	}
}

// DetectAndRecord прогоняет детекторы по признанию и сохраняет найденные
// флаги. Возвращает количество новых флагов. Вызывается инлайн из машины
// состояний признаний.
func (s *Service) DetectAndRecord(ctx context.Context, rec *recognition.Recognition) (int, error) {
	now := s.now()
	history, err := s.store.PairHistory(ctx, rec.GiverID, rec.RecipientID, s.historyCutoff(now))
	if err != nil {
		return 0, fmt.Errorf("ошибка загрузки истории для детекции: %w", err)
	}

	flags := s.detector.Detect(rec, history, now)
	for i := range flags {
		flags[i].ID = uuid.NewString()
	}
	if err := s.store.InsertFlags(ctx, flags); err != nil {
		return 0, err
	}
	if len(flags) > 0 {
		log.WithFields(log.Fields{
			"recognition_id": rec.ID,
			"flags":          len(flags),
		}).Warn("Признание помечено детекторами")
	}
	return len(flags), nil
}

// historyCutoff — нижняя граница истории, покрывающая самое длинное окно
// среди детекторов (реципрокность либо недельная частота).
func (s *Service) historyCutoff(now time.Time) time.Time {
	window := 7 * 24 * time.Hour
	if s.detector.t.ReciprocityWindow > window {
		window = s.detector.t.ReciprocityWindow
	}
	return now.Add(-window)
}

// Assessment — флаги признания вместе с агрегатной оценкой.
type Assessment struct {
	RecognitionID   string          `json:"recognitionId"`
	Flags           []AbuseFlag     `json:"flags"`
	RiskScore       int             `json:"riskScore"`
	SuggestedAction SuggestedAction `json:"suggestedAction"`
}

// Assess возвращает флаги признания с риском и рекомендацией.
func (s *Service) Assess(ctx context.Context, recognitionID string) (*Assessment, error) {
	if _, err := s.recognitions.GetByID(ctx, recognitionID); err != nil {
		return nil, err
	}
	flags, err := s.store.ListByRecognition(ctx, recognitionID)
	if err != nil {
		return nil, err
	}
	return &Assessment{
		RecognitionID:   recognitionID,
		Flags:           flags,
		RiskScore:       RiskScore(flags),
		SuggestedAction: SuggestAction(flags),
	}, nil
}

// ReportRequest — ручной репорт о нарушении.
type ReportRequest struct {
	RecognitionID string   `json:"-"`
	FlagType      FlagType `json:"flagType"`
	Severity      Severity `json:"severity"`
	Details       string   `json:"details"`
}

// Report регистрирует флаг, поданный человеком, а не детектором.
func (s *Service) Report(ctx context.Context, req ReportRequest) (*AbuseFlag, error) {
	if _, err := s.recognitions.GetByID(ctx, req.RecognitionID); err != nil {
		return nil, err
	}
	switch req.FlagType {
	case FlagContent, FlagEvidence, FlagManual:
	default:
		return nil, fmt.Errorf("тип флага %q недоступен для репорта: %w", req.FlagType, common.ErrValidation)
	}
	if req.Severity.rank() == 0 {
		return nil, fmt.Errorf("неизвестная серьёзность %q: %w", req.Severity, common.ErrValidation)
	}
	if req.Details == "" {
		return nil, fmt.Errorf("репорт без описания: %w", common.ErrValidation)
	}

	flag := AbuseFlag{
		ID:            uuid.NewString(),
		RecognitionID: req.RecognitionID,
		FlagType:      req.FlagType,
		Severity:      req.Severity,
		Method:        MethodReported,
		Status:        FlagPending,
		Details:       req.Details,
	}
	if err := s.store.InsertFlags(ctx, []AbuseFlag{flag}); err != nil {
		return nil, err
	}
	return &flag, nil
}

// Review меняет статус рассмотрения флага.
func (s *Service) Review(ctx context.Context, flagID string, status FlagStatus) error {
	if !ValidFlagStatus(status) {
		return fmt.Errorf("неизвестный статус флага %q: %w", status, common.ErrValidation)
	}
	return s.store.UpdateStatus(ctx, flagID, status)
}

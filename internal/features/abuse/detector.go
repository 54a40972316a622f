// Package abuse — detector.go содержит детерминированные детекторы паттернов.
//
// Никакой случайности и никаких моделей: одинаковая история и одинаковая
// конфигурация всегда дают одинаковый набор флагов. Это требование аудита,
// а не оптимизация. Все пороги — входные параметры из конфигурации.
package abuse

import (
	"fmt"
	"math"
	"time"

	"recognition-service/internal/config"
	"recognition-service/internal/features/recognition"
)

// Thresholds — пороги политики детекции. Значения приходят из конфигурации;
// в коде нет «производственных» констант.
type Thresholds struct {
	ReciprocityThreshold int           // Взаимных обменов за окно до флага
	ReciprocityWindow    time.Duration // Длина скользящего окна реципрокности
	FrequencyDaily       int           // Признаний от одного актора за сутки
	FrequencyWeekly      int           // Признаний от одного актора за неделю
	WeightDelta          float64       // Допустимая дельта заявленного и подтверждённого веса
}

// ThresholdsFromConfig собирает пороги из конфигурации приложения.
func ThresholdsFromConfig(cfg *config.Config) Thresholds {
	return Thresholds{
		ReciprocityThreshold: cfg.AbuseReciprocityThreshold,
		ReciprocityWindow:    cfg.AbuseReciprocityWindow,
		FrequencyDaily:       cfg.AbuseFrequencyDaily,
		FrequencyWeekly:      cfg.AbuseFrequencyWeekly,
		WeightDelta:          cfg.AbuseWeightDelta,
	}
}

// Detector анализирует признание на фоне истории пары/актора.
type Detector struct {
	t Thresholds
}

func NewDetector(t Thresholds) *Detector {
	return &Detector{t: t}
}

// Detect возвращает флаги для признания rec на фоне истории history.
// history должна содержать признания, выданные дарителем rec, и встречные
// признания получателя дарителю (включая само rec, если оно уже сохранено).
// now передаётся явно — детектор не читает часы сам.
func (d *Detector) Detect(rec *recognition.Recognition, history []Event, now time.Time) []AbuseFlag {
	var flags []AbuseFlag

	if f := d.detectReciprocity(rec, history, now); f != nil {
		flags = append(flags, *f)
	}
	if f := d.detectFrequency(rec, history, now); f != nil {
		flags = append(flags, *f)
	}
	if f := d.detectWeightManipulation(rec); f != nil {
		flags = append(flags, *f)
	}

	for i := range flags {
		flags[i].RecognitionID = rec.ID
		flags[i].Method = MethodAutomatic
		flags[i].Status = FlagPending
	}
	return flags
}

// detectReciprocity ищет взаимный обмен A↔B в скользящем окне.
// Количество взаимных обменов — минимум из встречных направлений:
// три A→B при одном B→A — это один обмен, а не три.
func (d *Detector) detectReciprocity(rec *recognition.Recognition, history []Event, now time.Time) *AbuseFlag {
	cutoff := now.Add(-d.t.ReciprocityWindow)

	var ab, ba int
	for _, e := range history {
		if e.CreatedAt.Before(cutoff) {
			continue
		}
		switch {
		case e.GiverID == rec.GiverID && e.RecipientID == rec.RecipientID:
			ab++
		case e.GiverID == rec.RecipientID && e.RecipientID == rec.GiverID:
			ba++
		}
	}

	mutual := ab
	if ba < ab {
		mutual = ba
	}
	if mutual < d.t.ReciprocityThreshold {
		return nil
	}

	// Эскалация по кратности порога: база настраивается, кратности фиксированы
	severity := SeverityMedium
	switch {
	case mutual >= 4*d.t.ReciprocityThreshold:
		severity = SeverityCritical
	case mutual >= 2*d.t.ReciprocityThreshold:
		severity = SeverityHigh
	}

	return &AbuseFlag{
		FlagType: FlagReciprocity,
		Severity: severity,
		Details:  fmt.Sprintf("взаимных обменов за окно: %d (порог %d)", mutual, d.t.ReciprocityThreshold),
	}
}

// detectFrequency считает признания, выданные дарителем, в скользящих
// суточном и недельном окнах.
func (d *Detector) detectFrequency(rec *recognition.Recognition, history []Event, now time.Time) *AbuseFlag {
	dayCutoff := now.Add(-24 * time.Hour)
	weekCutoff := now.Add(-7 * 24 * time.Hour)

	var daily, weekly int
	for _, e := range history {
		if e.GiverID != rec.GiverID {
			continue
		}
		if !e.CreatedAt.Before(weekCutoff) {
			weekly++
		}
		if !e.CreatedAt.Before(dayCutoff) {
			daily++
		}
	}

	switch {
	case weekly > d.t.FrequencyWeekly:
		return &AbuseFlag{
			FlagType: FlagFrequency,
			Severity: SeverityHigh,
			Details:  fmt.Sprintf("признаний за неделю: %d (порог %d)", weekly, d.t.FrequencyWeekly),
		}
	case daily > d.t.FrequencyDaily:
		return &AbuseFlag{
			FlagType: FlagFrequency,
			Severity: SeverityMedium,
			Details:  fmt.Sprintf("признаний за сутки: %d (порог %d)", daily, d.t.FrequencyDaily),
		}
	}
	return nil
}

// detectWeightManipulation сравнивает заявленный и подтверждённый вес.
// Работает только для уже верифицированных записей.
func (d *Detector) detectWeightManipulation(rec *recognition.Recognition) *AbuseFlag {
	if rec.VerifiedWeight == nil || rec.Status != recognition.StatusVerified {
		return nil
	}
	delta := math.Abs(rec.Weight - *rec.VerifiedWeight)
	if delta <= d.t.WeightDelta {
		return nil
	}
	return &AbuseFlag{
		FlagType: FlagWeightManipulation,
		Severity: SeverityHigh,
		Details:  fmt.Sprintf("дельта веса %.2f превышает порог %.2f", delta, d.t.WeightDelta),
	}
}

// SuggestAction выводит рекомендацию для ревью-инструментов.
// Фиксированный список приоритетов, сверху вниз, первое совпадение:
//  1. любой HIGH/CRITICAL флаг → ESCALATE
//  2. любой WEIGHT_MANIPULATION → ADJUST_WEIGHT
//  3. CONTENT-флаг низкой серьёзности → DISMISS
//  4. иначе → APPROVE
func SuggestAction(flags []AbuseFlag) SuggestedAction {
	for _, f := range flags {
		if f.Severity.AtLeast(SeverityHigh) {
			return ActionEscalate
		}
	}
	for _, f := range flags {
		if f.FlagType == FlagWeightManipulation {
			return ActionAdjustWeight
		}
	}
	for _, f := range flags {
		if f.FlagType == FlagContent && f.Severity == SeverityLow {
			return ActionDismiss
		}
	}
	return ActionApprove
}

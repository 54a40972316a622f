// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: работа с суточными окнами, округление весов,
// псевдонимизация идентификаторов для аудита.
package common

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"time"
)

// DayStart возвращает начало суток для момента t в часовом поясе loc.
// Все суточные окна (rate limit, квоты, частотный анализ) привязаны
// к границе суток, а не к моменту первого действия.
func DayStart(t time.Time, loc *time.Location) time.Time {
	tl := t.In(loc)
	return time.Date(tl.Year(), tl.Month(), tl.Day(), 0, 0, 0, 0, loc)
}

// NextDayStart возвращает начало следующих суток — границу сброса окна.
func NextDayStart(t time.Time, loc *time.Location) time.Time {
	return DayStart(t, loc).AddDate(0, 0, 1)
}

// Round2 округляет до 2 знаков после запятой (round-half-up по центам).
//
// Примеры:
//
//	Round2(1.299999) → 1.30
//	Round2(2.005)    → 2.01
//	Round2(3.0)      → 3.00
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// HashID псевдонимизирует идентификатор актора для аудита.
// В журнал никогда не пишутся сырые идентификаторы — только
// первые 16 hex-символов SHA-256. Это не криптографическая защита,
// а защита от случайного раскрытия при выгрузке журналов.
func HashID(id string) string {
	if id == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])[:16]
}

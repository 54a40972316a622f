// Package common — errors.go определяет таксономию ошибок движка,
// которая используется во всех модулях сервиса.
// Каждая терминальная ошибка несёт стабильный машинный код (для клиентов
// и дашбордов) и человекочитаемое сообщение. HTTP-слой маппит коды
// на статусы через HTTPStatus.
package common

import (
	"errors"
	"net/http"
)

// Базовые категории ошибок. Доменные ошибки оборачивают одну из них,
// чтобы обработчики различали тип проблемы через errors.Is.
var (
	// ErrValidation — некорректные входные данные
	ErrValidation = errors.New("некорректные входные данные")
	// ErrForbidden — недостаточно прав для операции
	ErrForbidden = errors.New("недостаточно прав")
	// ErrNotFound — запись не найдена
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — запись уже обработана (статус не PENDING)
	ErrConflict = errors.New("запись уже обработана")
	// ErrInvalidRequest — нарушение бизнес-правила
	ErrInvalidRequest = errors.New("запрос нарушает бизнес-правило")
	// ErrRateLimited — суточный лимит действий исчерпан
	ErrRateLimited = errors.New("лимит действий исчерпан")
	// ErrQuotaExceeded — квота организации исчерпана
	ErrQuotaExceeded = errors.New("квота организации исчерпана")
	// ErrUnavailable — зависимость недоступна
	ErrUnavailable = errors.New("зависимость недоступна")
	// ErrInternal — неожиданная внутренняя ошибка
	ErrInternal = errors.New("внутренняя ошибка")
)

// Доменные ошибки верификации
var (
	// ErrSelfVerification — попытка подтвердить собственное признание
	ErrSelfVerification = wrap("нельзя подтверждать собственное признание", ErrInvalidRequest)
	// ErrSelfRecognition — попытка дать признание самому себе
	ErrSelfRecognition = wrap("нельзя давать признание самому себе", ErrInvalidRequest)
)

// wrap создаёт ошибку с собственным текстом, но принадлежащую базовой категории.
func wrap(msg string, category error) error {
	return &categorized{msg: msg, category: category}
}

type categorized struct {
	msg      string
	category error
}

func (e *categorized) Error() string { return e.msg }
func (e *categorized) Unwrap() error { return e.category }

// CodeOf возвращает стабильный машинный код ошибки.
// Неизвестные ошибки схлопываются в INTERNAL — наружу не утекают детали.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrInvalidRequest):
		return "INVALID_REQUEST"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, ErrQuotaExceeded):
		return "QUOTA_EXCEEDED"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus маппит ошибку на HTTP-статус.
// Контракт: 400 — валидация/бизнес-правила, 403 — права, 404 — нет записи,
// 409 — уже обработано, 429 — лимиты и квоты, 500 — всё остальное.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrQuotaExceeded):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

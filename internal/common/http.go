// Package common — http.go содержит общие помощники HTTP-ответов.
// Все фичи отвечают одной формой: {"error":{"code","message"}} для ошибок,
// обычный JSON для успеха.
package common

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Заголовки, через которые шлюз передаёт контекст запроса.
// Аутентификация — забота шлюза, сервис доверяет заголовку.
const (
	HeaderActorID        = "X-Actor-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// errorBody — стабильная форма ошибки для клиентов: машинный код + сообщение.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteJSON пишет JSON-ответ с заданным статусом.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Ошибка записи ответа")
	}
}

// WriteError маппит ошибку на HTTP-статус и стабильный машинный код.
// category, если задана, оборачивает ошибку в базовую категорию таксономии.
// Детали внутренних ошибок клиенту не утекают.
func WriteError(w http.ResponseWriter, err error, category error) {
	if category != nil {
		err = &wrappedError{msg: err.Error(), category: category}
	}

	var body errorBody
	body.Error.Code = CodeOf(err)
	body.Error.Message = err.Error()

	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Внутренняя ошибка запроса")
		body.Error.Message = "внутренняя ошибка"
	}
	WriteJSON(w, status, body)
}

type wrappedError struct {
	msg      string
	category error
}

func (e *wrappedError) Error() string { return e.msg }
func (e *wrappedError) Unwrap() error { return e.category }

// Package recognition — handlers.go обрабатывает HTTP-запросы признаний.
// Транспортный слой тонкий: достать идентичность и ключ идемпотентности
// из заголовков, распарсить тело, вызвать сервис, отдать JSON.
package recognition

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"recognition-service/internal/common"
)

// Handler обрабатывает HTTP-запросы признаний.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик признаний.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleCreate — POST /api/recognitions.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actorID := r.Header.Get(common.HeaderActorID)
	if actorID == "" {
		common.WriteError(w, errors.New("нет заголовка X-Actor-ID"), common.ErrValidation)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, err, common.ErrValidation)
		return
	}
	req.GiverID = actorID
	req.IdempotencyKey = r.Header.Get(common.HeaderIdempotencyKey)

	rec, err := h.service.Create(r.Context(), req)
	if err != nil {
		common.WriteError(w, err, nil)
		return
	}
	common.WriteJSON(w, http.StatusOK, rec)
}

// HandleVerify — POST /api/recognitions/{id}/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	actorID := r.Header.Get(common.HeaderActorID)
	if actorID == "" {
		common.WriteError(w, errors.New("нет заголовка X-Actor-ID"), common.ErrValidation)
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, err, common.ErrValidation)
		return
	}
	req.RecognitionID = chi.URLParam(r, "id")
	req.VerifierID = actorID
	req.IdempotencyKey = r.Header.Get(common.HeaderIdempotencyKey)

	result, err := h.service.Verify(r.Context(), req)
	if err != nil {
		common.WriteError(w, err, nil)
		return
	}
	common.WriteJSON(w, http.StatusOK, result)
}

// HandleGet — GET /api/recognitions/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err, nil)
		return
	}
	common.WriteJSON(w, http.StatusOK, rec)
}

// HandleList — GET /api/recognitions (лента актора из X-Actor-ID).
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	actorID := r.Header.Get(common.HeaderActorID)
	if actorID == "" {
		common.WriteError(w, errors.New("нет заголовка X-Actor-ID"), common.ErrValidation)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	recs, err := h.service.ListByActor(r.Context(), actorID, limit)
	if err != nil {
		common.WriteError(w, err, nil)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]any{"items": recs})
}

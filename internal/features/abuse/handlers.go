// Package abuse — handlers.go обрабатывает HTTP-запросы флагов нарушений.
package abuse

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"recognition-service/internal/common"
)

// Handler обрабатывает HTTP-запросы флагов.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleList — GET /api/recognitions/{id}/flags.
// Отдаёт флаги вместе с агрегатным риском и рекомендацией.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	assessment, err := h.service.Assess(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err, nil)
		return
	}
	common.WriteJSON(w, http.StatusOK, assessment)
}

// HandleReport — POST /api/recognitions/{id}/flags.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, err, common.ErrValidation)
		return
	}
	req.RecognitionID = chi.URLParam(r, "id")

	flag, err := h.service.Report(r.Context(), req)
	if err != nil {
		common.WriteError(w, err, nil)
		return
	}
	common.WriteJSON(w, http.StatusOK, flag)
}

// HandleReview — POST /api/flags/{flagId}/status.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status FlagStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, err, common.ErrValidation)
		return
	}

	flagID := chi.URLParam(r, "flagId")
	if err := h.service.Review(r.Context(), flagID, req.Status); err != nil {
		common.WriteError(w, err, nil)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]any{"id": flagID, "status": req.Status})
}

// Package members — handlers.go обрабатывает HTTP-запросы участников.
package members

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"recognition-service/internal/common"
)

// Handler обрабатывает HTTP-запросы участников.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleRegister — POST /api/members.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID         string `json:"userId"`
		Email          string `json:"email"`
		DisplayName    string `json:"displayName"`
		OrganizationID string `json:"organizationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, err, common.ErrValidation)
		return
	}

	if err := h.service.Register(r.Context(), req.UserID, req.Email, req.DisplayName, req.OrganizationID); err != nil {
		common.WriteError(w, err, nil)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]any{"userId": req.UserID})
}

// HandleGet — GET /api/members/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Resolve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err, nil)
		return
	}
	common.WriteJSON(w, http.StatusOK, m)
}

// HandleAssignRole — POST /api/members/{id}/role. Актор — из X-Actor-ID.
func (h *Handler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	adminID := r.Header.Get(common.HeaderActorID)
	if adminID == "" {
		common.WriteError(w, errors.New("нет заголовка X-Actor-ID"), common.ErrValidation)
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, err, common.ErrValidation)
		return
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		common.WriteError(w, err, common.ErrValidation)
		return
	}

	userID := chi.URLParam(r, "id")
	if err := h.service.AssignRole(r.Context(), adminID, userID, role); err != nil {
		common.WriteError(w, err, nil)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]any{"userId": userID, "role": role})
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
)

const (
	RedirectLogin   = "/auth/login"
	RedirectStep1   = "/allocations/step1"
	RedirectStep2   = "/allocations/step2"
	RedirectSummary = "/allocations/summary"
	RedirectExports = "/exports"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("服务器内部错误", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// Redirect 告诉前端下一步应该跳转到哪个页面
type Response struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Data     any    `json:"data"`
	Redirect string `json:"redirect,omitempty"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) redirectResponse(w http.ResponseWriter, r *http.Request, msg string, redirect string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success:  false,
		Message:  msg,
		Data:     nil,
		Redirect: redirect,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		h.errorResponse(w, r, err.Error())
		return
	}

	h.errorResponse(w, r, validationErrors[0].Translate(h.translator))
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "internal server error",
		Data:    nil,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func (h *Handler) successRedirect(w http.ResponseWriter, r *http.Request, msg string, data any, redirect string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success:  true,
		Message:  msg,
		Data:     data,
		Redirect: redirect,
	})
}

// workflowError 将分配流程中的错误转换为带跳转目标的响应，其余错误视为服务器内部错误
func (h *Handler) workflowError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		h.redirectResponse(w, r, err.Error(), RedirectLogin)
	case errors.Is(err, domain.ErrStepOutOfOrder), errors.Is(err, domain.ErrMissingDraft):
		h.redirectResponse(w, r, err.Error(), RedirectStep1)
	case errors.Is(err, domain.ErrMalformedOperatorToken),
		errors.Is(err, domain.ErrEmptyCatalogSelection),
		errors.Is(err, domain.ErrStationNotInCatalog),
		errors.Is(err, domain.ErrOperatorNotInCatalog):
		h.redirectResponse(w, r, err.Error(), RedirectStep2)
	case errors.Is(err, domain.ErrPersistenceFailure):
		h.logInternalServerError(r, err)
		h.redirectResponse(w, r, domain.ErrPersistenceFailure.Error(), RedirectSummary)
	default:
		h.internalServerError(w, r, err)
	}
}

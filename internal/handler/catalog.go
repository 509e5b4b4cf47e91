package handler

import "net/http"

func (h *Handler) GetRoles(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "ok", h.catalog.Roles())
}

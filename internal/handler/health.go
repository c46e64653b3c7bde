package handler

import "net/http"

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.repository.Ping(r.Context()); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.successResponse(w, r, "ok", nil)
}

package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/timesheet/backend/internal/analytics"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	h.successResponse(w, r, "user info fetched", myInfo)
}

func (h *Handler) GetMySettings(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	settings, err := h.effectiveSettings(r.Context(), myInfo)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "settings fetched", settings)
}

// GetMyCompletion 个人完成度卡片，请假日不从应完成时长中扣除
func (h *Handler) GetMyCompletion(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	period, err := periodFromQuery(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	settings, err := h.effectiveSettings(r.Context(), myInfo)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	entries, err := h.repository.GetEntriesByUser(r.Context(), myInfo.ID, period.From, period.To)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "completion computed", struct {
		Period      analytics.Period     `json:"period"`
		WorkingDays int                  `json:"workingDays"`
		Completion  analytics.Completion `json:"completion"`
	}{period, analytics.WorkingDays(period), analytics.PersonalCompletion(entries, period, settings)})
}

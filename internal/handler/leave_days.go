package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/timesheet"
)

func (h *Handler) GetMyLeaveDays(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	period, err := periodFromQuery(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	leaveDays, err := h.repository.GetLeaveDaysByUser(r.Context(), myInfo.ID, period.From, period.To)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "leave days fetched", leaveDays)
}

func (h *Handler) CreateLeaveDay(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		LeaveDate string  `json:"leaveDate" validate:"required"`
		LeaveType string  `json:"leaveType" validate:"required,oneof=casual sick earned half_day comp_off other"`
		Notes     *string `json:"notes" validate:"omitempty,max=1000"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, err := timesheet.ParseDate(req.LeaveDate)
	if err != nil {
		h.errorResponse(w, r, "leaveDate must be in YYYY-MM-DD format")
		return
	}

	// 当天已经有未被驳回的记录时不能再请假
	n, err := h.repository.CountActiveEntriesOnDate(r.Context(), myInfo.ID, date)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if n > 0 {
		h.conflictResponse(w, r, string(timesheet.KindLeaveDay), "you already logged time on this date; remove those entries first")
		return
	}

	leave := &domain.LeaveDay{
		UserID:    myInfo.ID,
		LeaveDate: date,
		LeaveType: domain.LeaveType(req.LeaveType),
		Notes:     req.Notes,
	}
	if err := h.repository.CreateLeaveDay(r.Context(), leave); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "leave_days_user_id_leave_date_key":
				h.errorResponse(w, r, "this date is already marked as a leave day")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "leave day created", leave)
}

func (h *Handler) DeleteLeaveDay(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	id, ok := h.urlID(r)
	if !ok {
		h.errorResponse(w, r, "invalid leave day id")
		return
	}

	if err := h.repository.DeleteLeaveDay(r.Context(), id, myInfo.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "leave day does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "leave day deleted", nil)
}

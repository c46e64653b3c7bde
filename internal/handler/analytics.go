package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/analytics"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

// GetDepartmentCalendar 部门日历：经理和组织管理员可以查看任意部门，成员只能查看自己的部门
func (h *Handler) GetDepartmentCalendar(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	department := r.Context().Value(DepartmentCtx).(*domain.Department)

	ownDepartment := myInfo.DepartmentID != nil && *myInfo.DepartmentID == department.ID
	if myInfo.Role.Rank() < domain.RoleManager.Rank() && !ownDepartment {
		h.errorResponse(w, r, "permission denied")
		return
	}

	period, err := periodFromQuery(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	org, err := h.repository.GetOrganizationByID(r.Context(), department.OrganizationID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	users, err := h.repository.GetActiveUsersByDepartment(r.Context(), department.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	overrides, err := h.repository.GetSettingsOverridesByDepartment(r.Context(), department.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ids := make([]uuid.UUID, 0, len(users))
	members := make([]analytics.CalendarMember, 0, len(users))
	for _, u := range users {
		eff := analytics.ResolveSettings(org.Settings, &department.Settings, overrides[u.ID])
		ids = append(ids, u.ID)
		members = append(members, analytics.CalendarMember{UserID: u.ID, DailyTargetMinutes: eff.DailyTargetMinutes})
	}

	entries, err := h.repository.GetEntriesByUsers(r.Context(), ids, period.From, period.To)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	leaveDays, err := h.repository.GetLeaveDaysByUsers(r.Context(), ids, period.From, period.To)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "department calendar computed", analytics.DepartmentCalendar(members, entries, leaveDays, period))
}

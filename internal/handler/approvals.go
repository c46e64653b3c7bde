package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sysu-ecnc-dev/timesheet/backend/internal/approval"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

// GetApprovalQueue 只返回审批链路由给当前用户角色的记录，不存在管理员看全部的兜底
func (h *Handler) GetApprovalQueue(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	settings, err := h.approvalSettings(r.Context(), myInfo.OrganizationID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	roles := approval.ApprovableRoles(myInfo.Role, settings)
	entries, err := h.repository.GetApprovalQueue(r.Context(), myInfo.OrganizationID, roles, myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "approval queue fetched", struct {
		Roles   []domain.Role           `json:"roles"`
		Entries []domain.TimesheetEntry `json:"entries"`
	}{roles, entries})
}

func (h *Handler) GetApprovalSettings(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	settings, err := h.approvalSettings(r.Context(), myInfo.OrganizationID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "approval settings fetched", settings)
}

type approvalRuleRequest struct {
	RequiresApproval *bool  `json:"requiresApproval" validate:"required"`
	ApproverRole     string `json:"approverRole" validate:"required,oneof=manager org_admin none"`
}

func (a approvalRuleRequest) rule() domain.ApprovalRule {
	return domain.ApprovalRule{RequiresApproval: *a.RequiresApproval, ApproverRole: domain.ApproverRole(a.ApproverRole)}
}

func (h *Handler) UpdateApprovalSettings(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		Member         approvalRuleRequest `json:"member"`
		ProgramManager approvalRuleRequest `json:"programManager"`
		Manager        approvalRuleRequest `json:"manager"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	settings := &domain.ApprovalSettings{
		OrganizationID: myInfo.OrganizationID,
		Member:         req.Member.rule(),
		ProgramManager: req.ProgramManager.rule(),
		Manager:        req.Manager.rule(),
	}
	if err := approval.Validate(settings); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	// 以数据库中当前的版本号为准，绕过缓存
	version, err := storedVersion(h.repository.GetApprovalSettings(r.Context(), myInfo.OrganizationID))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	settings.Version = version

	if err := h.repository.SaveApprovalSettings(r.Context(), settings); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "approval settings were changed by someone else, please refresh and try again")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 缓存失效失败时旧配置会在 TTL 后过期
	if err := h.cache.InvalidateApprovalSettings(r.Context(), myInfo.OrganizationID); err != nil {
		slog.Warn("清除审批配置缓存失败", "organization", myInfo.OrganizationID, "error", err)
	}

	h.successResponse(w, r, "approval settings updated", settings)
}

// storedVersion 返回已保存配置的版本号，组织还没有保存过配置时返回 0，此时保存为插入
func storedVersion(current *domain.ApprovalSettings, err error) (int32, error) {
	switch {
	case err == nil:
		return current.Version, nil
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	default:
		return 0, err
	}
}

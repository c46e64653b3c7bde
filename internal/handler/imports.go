package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/bulkimport"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/cache"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/events"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/timesheet"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/utils"
)

type importResult struct {
	AdmittedCount int                  `json:"admittedCount"`
	Rejected      []domain.RejectedRow `json:"rejected"`
	Commit        domain.CommitResult  `json:"commit"`
}

// ImportEntries 接收已经解析好的行。文件的解析在客户端完成，这里只做对账和分批写入。
func (h *Handler) ImportEntries(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		Mode     string                 `json:"mode" validate:"required,oneof=admin self"`
		Status   string                 `json:"status" validate:"omitempty,oneof=draft submitted"`
		FileSize int64                  `json:"fileSize" validate:"gte=0"`
		Rows     []domain.BulkImportRow `json:"rows" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	mode := bulkimport.Mode(req.Mode)
	if mode == bulkimport.ModeAdmin && myInfo.Role.Rank() < domain.RoleManager.Rank() {
		h.errorResponse(w, r, "permission denied")
		return
	}

	limits := bulkimport.Limits{MaxRows: h.config.BulkImport.MaxRows, MaxFileSize: h.config.BulkImport.MaxFileSize}
	// 超出限制时不需要加锁也不需要读取参考数据
	if err := limits.Check(len(req.Rows), req.FileSize); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	release, err := h.cache.AcquireImportLock(r.Context(), myInfo.OrganizationID)
	if err != nil {
		switch {
		case errors.Is(err, cache.ErrImportBusy):
			h.errorResponse(w, r, "another import is in progress, please wait for it to finish")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	defer release()

	users, err := h.repository.GetUsersByOrganization(r.Context(), myInfo.OrganizationID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	departments, err := h.repository.GetDepartmentsByOrganization(r.Context(), myInfo.OrganizationID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	programs, err := h.repository.GetProgramsByOrganization(r.Context(), myInfo.OrganizationID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	refs := bulkimport.NewReferences(utils.Values(users), utils.Values(departments), utils.Values(programs))

	// 重叠和请假检测需要的已有数据只读取导入涉及的日期范围
	roles := make(map[uuid.UUID]domain.Role, len(users))
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		roles[u.ID] = u.Role
		if mode == bulkimport.ModeAdmin || u.ID == myInfo.ID {
			ids = append(ids, u.ID)
		}
	}
	if from, to, ok := bulkimport.DateRange(req.Rows); ok {
		if refs.Existing, err = h.repository.GetEntriesByUsers(r.Context(), ids, from, to); err != nil {
			h.internalServerError(w, r, err)
			return
		}
		if refs.LeaveDays, err = h.repository.GetLeaveDaysByUsers(r.Context(), ids, from, to); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	categories, err := h.repository.GetActiveCategoryCodes(r.Context(), myInfo.OrganizationID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	actor := bulkimport.Actor{
		Mode:      mode,
		UserID:    myInfo.ID,
		Status:    domain.EntryStatus(req.Status),
		Validator: timesheet.NewValidator(timesheet.WithCategories(categories)),
	}
	result, err := bulkimport.Reconcile(bulkimport.Batch{Rows: req.Rows, FileSize: req.FileSize}, refs, actor, limits)
	if err != nil {
		switch {
		case errors.Is(err, bulkimport.ErrTooManyRows), errors.Is(err, bulkimport.ErrFileTooLarge), errors.Is(err, timesheet.ErrInvalidTransition):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	metrics.RecordImportRows("admitted", len(result.Admitted))
	metrics.RecordImportRows("rejected", len(result.Rejected))

	settings, err := h.approvalSettings(r.Context(), myInfo.OrganizationID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	for i := range result.Admitted {
		autoApprove(&result.Admitted[i], roles[result.Admitted[i].UserID], settings)
	}

	commit := h.committer.Commit(r.Context(), result.Admitted)
	h.publisher.Publish(r.Context(), events.ImportEvent(myInfo.OrganizationID, myInfo.ID, commit))

	// 部分批次失败时整体仍然返回成功，由客户端根据结果展示
	h.successResponse(w, r, "import finished", importResult{
		AdmittedCount: len(result.Admitted),
		Rejected:      result.Rejected,
		Commit:        commit,
	})
}

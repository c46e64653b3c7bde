package handler

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/events"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/timesheet"
)

// sameDay 读取同一用户当天的记录和请假，作为校验的输入；日期无法解析时交给校验器报告
func (h *Handler) sameDay(ctx context.Context, user *domain.User, entryDate string) ([]domain.TimesheetEntry, []domain.LeaveDay, error) {
	date, err := timesheet.ParseDate(entryDate)
	if err != nil {
		return nil, nil, nil
	}

	existing, err := h.repository.GetEntriesByUser(ctx, user.ID, date, date)
	if err != nil {
		return nil, nil, err
	}
	leaveDays, err := h.repository.GetLeaveDaysByUser(ctx, user.ID, date, date)
	if err != nil {
		return nil, nil, err
	}

	return existing, leaveDays, nil
}

// validateCandidate 执行完整的记录校验。校验失败时已经写好了响应，返回 nil。
func (h *Handler) validateCandidate(w http.ResponseWriter, r *http.Request, user *domain.User, c timesheet.Candidate) *domain.TimesheetEntry {
	settings, err := h.effectiveSettings(r.Context(), user)
	if err != nil {
		h.internalServerError(w, r, err)
		return nil
	}

	v, err := h.entryValidator(r.Context(), user, settings)
	if err != nil {
		h.internalServerError(w, r, err)
		return nil
	}

	existing, leaveDays, err := h.sameDay(r.Context(), user, c.EntryDate)
	if err != nil {
		h.internalServerError(w, r, err)
		return nil
	}

	entry, err := v.Validate(c, existing, leaveDays)
	if err != nil {
		var verr *timesheet.ValidationError
		if errors.As(err, &verr) {
			h.validationFailed(w, r, verr)
			return nil
		}
		h.internalServerError(w, r, err)
		return nil
	}

	return entry
}

// transitionError 把状态机的错误映射为用户可见的信息
func (h *Handler) transitionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, timesheet.ErrInvalidTransition):
		h.conflictResponse(w, r, "invalid_transition", err.Error())
	case errors.Is(err, timesheet.ErrNotOwner):
		h.errorResponse(w, r, "you can only change your own entries")
	case errors.Is(err, timesheet.ErrNotAuthorized):
		h.errorResponse(w, r, "you are not allowed to review this entry")
	case errors.Is(err, timesheet.ErrRejectionReasonRequired):
		h.errorResponse(w, r, "please give a reason for rejecting this entry")
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) publishEntryEvent(r *http.Request, actor *domain.User, entry *domain.TimesheetEntry) {
	var eventType string
	switch entry.Status {
	case domain.EntryStatusSubmitted:
		eventType = domain.EventEntrySubmitted
	case domain.EntryStatusApproved:
		eventType = domain.EventEntryApproved
	case domain.EntryStatusRejected:
		eventType = domain.EventEntryRejected
	default:
		return
	}
	h.publisher.Publish(r.Context(), events.EntryEvent(eventType, actor.OrganizationID, actor.ID, entry))
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		EntryDate       string  `json:"entryDate"`
		StartTime       string  `json:"startTime"`
		EndTime         string  `json:"endTime"`
		ActivityType    string  `json:"activityType"`
		ActivitySubtype *string `json:"activitySubtype" validate:"omitempty,max=100"`
		Notes           *string `json:"notes" validate:"omitempty,max=1000"`
		DepartmentCode  *string `json:"departmentCode" validate:"omitempty,max=50"`
		Status          string  `json:"status" validate:"omitempty,oneof=draft submitted"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	status, err := timesheet.InitialStatus(domain.EntryStatus(req.Status))
	if err != nil {
		h.transitionError(w, r, err)
		return
	}

	entry := h.validateCandidate(w, r, myInfo, timesheet.Candidate{
		UserID:          myInfo.ID,
		EntryDate:       req.EntryDate,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		ActivityType:    req.ActivityType,
		ActivitySubtype: req.ActivitySubtype,
		Notes:           req.Notes,
		DepartmentCode:  req.DepartmentCode,
		Status:          status,
	})
	if entry == nil {
		return
	}

	if status == domain.EntryStatusSubmitted {
		settings, err := h.approvalSettings(r.Context(), myInfo.OrganizationID)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		autoApprove(entry, myInfo.Role, settings)
	}

	if err := h.repository.CreateEntry(r.Context(), entry); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	metrics.RecordTransition("new", string(entry.Status))
	h.publishEntryEvent(r, myInfo, entry)

	h.successResponse(w, r, "entry created", entry)
}

func (h *Handler) GetMyEntries(w http.ResponseWriter, r *http.Request) {
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

	h.successResponse(w, r, "entries fetched", renderEntries(entries, settings.TimeFormat))
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	entry := r.Context().Value(EntryCtx).(*domain.TimesheetEntry)
	owner := r.Context().Value(EntryOwnerCtx).(*domain.User)

	approvalSettings, err := h.approvalSettings(r.Context(), myInfo.OrganizationID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	// 无权查看时与不存在的记录返回相同的信息
	if !canViewEntry(myInfo, owner, approvalSettings) {
		h.errorResponse(w, r, "entry does not exist")
		return
	}

	settings, err := h.effectiveSettings(r.Context(), myInfo)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "entry fetched", renderEntries([]domain.TimesheetEntry{*entry}, settings.TimeFormat)[0])
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	entry := r.Context().Value(EntryCtx).(*domain.TimesheetEntry)

	if err := timesheet.Edit(entry, myInfo.ID); err != nil {
		h.transitionError(w, r, err)
		return
	}

	// 未出现的字段保持原值
	var req struct {
		EntryDate       *string `json:"entryDate"`
		StartTime       *string `json:"startTime"`
		EndTime         *string `json:"endTime"`
		ActivityType    *string `json:"activityType"`
		ActivitySubtype *string `json:"activitySubtype" validate:"omitempty,max=100"`
		Notes           *string `json:"notes" validate:"omitempty,max=1000"`
		DepartmentCode  *string `json:"departmentCode" validate:"omitempty,max=50"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	c := candidateFromEntry(entry)
	if req.EntryDate != nil {
		c.EntryDate = *req.EntryDate
	}
	if req.StartTime != nil {
		c.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		c.EndTime = *req.EndTime
	}
	if req.ActivityType != nil {
		c.ActivityType = *req.ActivityType
	}
	if req.ActivitySubtype != nil {
		c.ActivitySubtype = req.ActivitySubtype
	}
	if req.Notes != nil {
		c.Notes = req.Notes
	}
	if req.DepartmentCode != nil {
		c.DepartmentCode = req.DepartmentCode
	}

	normalized := h.validateCandidate(w, r, myInfo, c)
	if normalized == nil {
		return
	}
	applyEdit(entry, normalized)

	if err := h.repository.UpdateEntry(r.Context(), entry); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "the entry was changed by someone else, please refresh and try again")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "entry updated", entry)
}

func (h *Handler) SubmitEntry(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	entry := r.Context().Value(EntryCtx).(*domain.TimesheetEntry)

	// 先检查状态和所有权，再重新校验，草稿期间可能新增了请假或其他记录
	if _, err := timesheet.Transition(entry.Status, timesheet.ActionSubmit); err != nil {
		h.transitionError(w, r, err)
		return
	}
	if entry.UserID != myInfo.ID {
		h.transitionError(w, r, timesheet.ErrNotOwner)
		return
	}

	normalized := h.validateCandidate(w, r, myInfo, candidateFromEntry(entry))
	if normalized == nil {
		return
	}
	applyEdit(entry, normalized)

	from := entry.Status
	if err := timesheet.Submit(entry, myInfo.ID); err != nil {
		h.transitionError(w, r, err)
		return
	}

	settings, err := h.approvalSettings(r.Context(), myInfo.OrganizationID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	autoApprove(entry, myInfo.Role, settings)

	if err := h.repository.UpdateEntry(r.Context(), entry); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "the entry was changed by someone else, please refresh and try again")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	metrics.RecordTransition(string(from), string(entry.Status))
	h.publishEntryEvent(r, myInfo, entry)

	h.successResponse(w, r, "entry submitted", entry)
}

func (h *Handler) ApproveEntry(w http.ResponseWriter, r *http.Request) {
	h.reviewEntry(w, r, timesheet.ActionApprove)
}

func (h *Handler) RejectEntry(w http.ResponseWriter, r *http.Request) {
	h.reviewEntry(w, r, timesheet.ActionReject)
}

func (h *Handler) reviewEntry(w http.ResponseWriter, r *http.Request, action timesheet.Action) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	entry := r.Context().Value(EntryCtx).(*domain.TimesheetEntry)
	owner := r.Context().Value(EntryOwnerCtx).(*domain.User)

	var req struct {
		Notes string `json:"notes" validate:"max=1000"`
	}

	// 审批时可以不带请求体
	if err := h.readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	settings, err := h.approvalSettings(r.Context(), myInfo.OrganizationID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	from := entry.Status
	reviewer := timesheet.Reviewer{ID: myInfo.ID, Role: myInfo.Role}
	if err := timesheet.Review(entry, owner.Role, reviewer, action, req.Notes, settings); err != nil {
		h.transitionError(w, r, err)
		return
	}

	if err := h.repository.UpdateEntry(r.Context(), entry); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "the entry was changed by someone else, please refresh and try again")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	metrics.RecordTransition(string(from), string(entry.Status))
	h.publishEntryEvent(r, myInfo, entry)

	msg := "entry approved"
	if action == timesheet.ActionReject {
		msg = "entry rejected"
	}
	h.successResponse(w, r, msg, entry)
}

func candidateFromEntry(e *domain.TimesheetEntry) timesheet.Candidate {
	id := e.ID
	return timesheet.Candidate{
		ID:              &id,
		UserID:          e.UserID,
		EntryDate:       e.EntryDate.Format(timesheet.DateLayout),
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		ActivityType:    e.ActivityType,
		ActivitySubtype: e.ActivitySubtype,
		Notes:           e.Notes,
		DepartmentCode:  e.DepartmentCode,
		Status:          e.Status,
	}
}

// applyEdit 只复制用户可以编辑的字段，状态和审批信息保持不变
func applyEdit(dst, src *domain.TimesheetEntry) {
	dst.EntryDate = src.EntryDate
	dst.StartTime = src.StartTime
	dst.EndTime = src.EndTime
	dst.DurationMinutes = src.DurationMinutes
	dst.ActivityType = src.ActivityType
	dst.ActivitySubtype = src.ActivitySubtype
	dst.Notes = src.Notes
	dst.DepartmentCode = src.DepartmentCode
	dst.UpdatedAt = time.Now()
}

package handler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/analytics"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/approval"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/cache"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/timesheet"
)

const autoApprovedNote = "auto-approved"

// effectiveSettings 解析当前用户的 组织 -> 部门 -> 个人 设置链
func (h *Handler) effectiveSettings(ctx context.Context, user *domain.User) (domain.EffectiveSettings, error) {
	org, err := h.repository.GetOrganizationByID(ctx, user.OrganizationID)
	if err != nil {
		return domain.EffectiveSettings{}, err
	}

	var department *domain.SettingsOverride
	if user.DepartmentID != nil {
		d, err := h.repository.GetDepartmentByID(ctx, *user.DepartmentID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return domain.EffectiveSettings{}, err
		}
		if d != nil {
			department = &d.Settings
		}
	}

	personal, err := h.repository.GetUserSettingsOverride(ctx, user.ID)
	if err != nil {
		return domain.EffectiveSettings{}, err
	}

	return analytics.ResolveSettings(org.Settings, department, personal), nil
}

// approvalSettings 优先读缓存，组织没有配置时使用默认审批链。每个请求只解析一次。
func (h *Handler) approvalSettings(ctx context.Context, organizationID uuid.UUID) (*domain.ApprovalSettings, error) {
	settings, err := h.cache.GetApprovalSettings(ctx, organizationID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		slog.Warn("读取审批配置缓存失败", "organization", organizationID, "error", err)
	}

	settings, err = h.repository.GetApprovalSettings(ctx, organizationID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		defaults := domain.DefaultApprovalSettings()
		defaults.OrganizationID = organizationID
		settings = &defaults
	}

	if err := h.cache.SetApprovalSettings(ctx, settings); err != nil {
		slog.Warn("写入审批配置缓存失败", "organization", organizationID, "error", err)
	}

	return settings, nil
}

// entryValidator 根据组织的活动分类和生效的提交窗口构造校验器
func (h *Handler) entryValidator(ctx context.Context, user *domain.User, settings domain.EffectiveSettings) (*timesheet.Validator, error) {
	codes, err := h.repository.GetActiveCategoryCodes(ctx, user.OrganizationID)
	if err != nil {
		return nil, err
	}
	return timesheet.NewValidator(
		timesheet.WithCategories(codes),
		timesheet.WithSubmissionWindow(settings.SubmissionWindowDays, time.Now()),
	), nil
}

// autoApprove 对不需要审批的角色，提交即视为已审批
func autoApprove(entry *domain.TimesheetEntry, ownerRole domain.Role, settings *domain.ApprovalSettings) bool {
	if entry.Status != domain.EntryStatusSubmitted || approval.RequiresApproval(ownerRole, settings) {
		return false
	}
	note := autoApprovedNote
	entry.Status = domain.EntryStatusApproved
	entry.ApproverNotes = &note
	return true
}

// canViewEntry 只有记录所有者和审批链上负责该角色的审批人可以查看
func canViewEntry(viewer, owner *domain.User, settings *domain.ApprovalSettings) bool {
	return viewer.ID == owner.ID || approval.CanApprove(viewer.Role, owner.Role, settings)
}

// periodFromQuery 读取 from/to 参数，缺省为本月
func periodFromQuery(r *http.Request) (analytics.Period, error) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" && to == "" {
		return analytics.MonthOf(time.Now()), nil
	}
	return analytics.ParsePeriod(from, to)
}

type entryView struct {
	domain.TimesheetEntry
	DisplayStartTime string `json:"displayStartTime"`
	DisplayEndTime   string `json:"displayEndTime"`
}

// renderEntries 按用户的时间格式生成展示字段，存储的值始终是 24 小时制
func renderEntries(entries []domain.TimesheetEntry, format domain.TimeFormat) []entryView {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			TimesheetEntry:   e,
			DisplayStartTime: displayClock(e.StartTime, format),
			DisplayEndTime:   displayClock(e.EndTime, format),
		})
	}
	return views
}

func displayClock(s string, format domain.TimeFormat) string {
	minutes, text, err := timesheet.ParseClock(s)
	if err != nil {
		return s
	}
	if format == domain.TimeFormat12h {
		return timesheet.FormatClock12h(minutes)
	}
	return text
}

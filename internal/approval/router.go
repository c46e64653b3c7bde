// Package approval 根据组织的审批配置决定谁来审批谁。
// 所有函数都是对配置表的纯查表操作，不读取任何全局状态。
package approval

import (
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

var ErrInvalidSettings = errors.New("invalid approval settings")

// resolve 在配置缺失时使用默认配置
func resolve(settings *domain.ApprovalSettings) domain.ApprovalSettings {
	if settings == nil {
		return domain.DefaultApprovalSettings()
	}
	return *settings
}

// ApproverFor 返回某个提交者角色对应的审批角色，无需审批时第二个返回值为 false
func ApproverFor(submitter domain.Role, settings *domain.ApprovalSettings) (domain.ApproverRole, bool) {
	s := resolve(settings)
	rule, ok := s.RuleFor(submitter)
	if !ok || !rule.RequiresApproval || rule.ApproverRole == domain.ApproverNone {
		return "", false
	}
	return rule.ApproverRole, true
}

func RequiresApproval(submitter domain.Role, settings *domain.ApprovalSettings) bool {
	_, ok := ApproverFor(submitter, settings)
	return ok
}

// ApprovableRoles 是 ApproverFor 的反向映射：approver 可以在队列中看到哪些角色的记录。
// 只包含需要审批、且在审批链中严格低于 approver 的角色。
func ApprovableRoles(approver domain.Role, settings *domain.ApprovalSettings) []domain.Role {
	roles := make([]domain.Role, 0, len(domain.SubmitterRoles))
	for _, submitter := range domain.SubmitterRoles {
		target, ok := ApproverFor(submitter, settings)
		if !ok || domain.Role(target) != approver {
			continue
		}
		if submitter.Rank() >= approver.Rank() {
			continue
		}
		roles = append(roles, submitter)
	}
	return roles
}

// CanApprove 判断 approver 能否审批 submitter 提交的记录
func CanApprove(approver, submitter domain.Role, settings *domain.ApprovalSettings) bool {
	for _, role := range ApprovableRoles(approver, settings) {
		if role == submitter {
			return true
		}
	}
	return false
}

// Validate 在保存配置之前检查每条规则是否自洽
func Validate(settings *domain.ApprovalSettings) error {
	for _, submitter := range domain.SubmitterRoles {
		rule, _ := settings.RuleFor(submitter)

		switch rule.ApproverRole {
		case domain.ApproverManager, domain.ApproverOrgAdmin, domain.ApproverNone:
		default:
			return fmt.Errorf("%w: unknown approver role %q for %s", ErrInvalidSettings, rule.ApproverRole, submitter)
		}

		if !rule.RequiresApproval {
			continue
		}
		if rule.ApproverRole == domain.ApproverNone {
			return fmt.Errorf("%w: %s requires approval but has no approver", ErrInvalidSettings, submitter)
		}
		if domain.Role(rule.ApproverRole).Rank() <= submitter.Rank() {
			return fmt.Errorf("%w: %s must be approved by a higher role than %s", ErrInvalidSettings, submitter, rule.ApproverRole)
		}
	}
	return nil
}

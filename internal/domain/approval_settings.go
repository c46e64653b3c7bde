package domain

import (
	"time"

	"github.com/google/uuid"
)

type ApproverRole string

const (
	ApproverManager  ApproverRole = "manager"
	ApproverOrgAdmin ApproverRole = "org_admin"
	ApproverNone     ApproverRole = "none"
)

type ApprovalRule struct {
	RequiresApproval bool         `json:"requiresApproval"`
	ApproverRole     ApproverRole `json:"approverRole"`
}

type ApprovalSettings struct {
	OrganizationID uuid.UUID    `json:"organizationID"`
	Member         ApprovalRule `json:"member"`
	ProgramManager ApprovalRule `json:"programManager"`
	Manager        ApprovalRule `json:"manager"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	Version        int32        `json:"-"`
}

// SubmitterRoles 是可以配置审批规则的提交者角色，顺序即审批链自下而上的顺序
var SubmitterRoles = []Role{RoleMember, RoleProgramManager, RoleManager}

func DefaultApprovalSettings() ApprovalSettings {
	return ApprovalSettings{
		Member:         ApprovalRule{RequiresApproval: true, ApproverRole: ApproverManager},
		ProgramManager: ApprovalRule{RequiresApproval: true, ApproverRole: ApproverManager},
		Manager:        ApprovalRule{RequiresApproval: true, ApproverRole: ApproverOrgAdmin},
	}
}

// RuleFor 返回某个提交者角色的规则，不在表中的角色返回 false
func (s *ApprovalSettings) RuleFor(role Role) (ApprovalRule, bool) {
	switch role {
	case RoleMember:
		return s.Member, true
	case RoleProgramManager:
		return s.ProgramManager, true
	case RoleManager:
		return s.Manager, true
	default:
		return ApprovalRule{}, false
	}
}

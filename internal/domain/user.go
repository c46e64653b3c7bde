package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role 是一个封闭的角色集合，审批路由只认这四种
type Role string

const (
	RoleMember         Role = "member"
	RoleProgramManager Role = "program_manager"
	RoleManager        Role = "manager"
	RoleOrgAdmin       Role = "org_admin"
)

var roleRanks = map[Role]int{
	RoleMember:         0,
	RoleProgramManager: 1,
	RoleManager:        2,
	RoleOrgAdmin:       3,
}

func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank 用于比较审批链中的上下级，未知角色返回 -1
func (r Role) Rank() int {
	rank, ok := roleRanks[r]
	if !ok {
		return -1
	}
	return rank
}

type User struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	FullName       string     `json:"fullName"`
	Role           Role       `json:"role"`
	OrganizationID uuid.UUID  `json:"organizationID"`
	DepartmentID   *uuid.UUID `json:"departmentID"`
	IsActive       bool       `json:"isActive"`
	CreatedAt      time.Time  `json:"createdAt"`
	Version        int32      `json:"-"`
}

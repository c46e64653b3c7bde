package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

// GetApprovalSettings 在组织没有配置时返回 sql.ErrNoRows，由调用方决定是否使用默认值
func (r *Repository) GetApprovalSettings(ctx context.Context, organizationID uuid.UUID) (*domain.ApprovalSettings, error) {
	query := `
		SELECT
			member_requires_approval,
			member_approver_role,
			program_manager_requires_approval,
			program_manager_approver_role,
			manager_requires_approval,
			manager_approver_role,
			updated_at,
			version
		FROM approval_settings WHERE organization_id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	s := &domain.ApprovalSettings{OrganizationID: organizationID}
	dst := []any{
		&s.Member.RequiresApproval,
		&s.Member.ApproverRole,
		&s.ProgramManager.RequiresApproval,
		&s.ProgramManager.ApproverRole,
		&s.Manager.RequiresApproval,
		&s.Manager.ApproverRole,
		&s.UpdatedAt,
		&s.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, organizationID).Scan(dst...); err != nil {
		return nil, err
	}

	return s, nil
}

// SaveApprovalSettings 插入或更新配置。更新时检查 version，并发修改会得到 sql.ErrNoRows。
func (r *Repository) SaveApprovalSettings(ctx context.Context, s *domain.ApprovalSettings) error {
	query := `
		INSERT INTO approval_settings (
			organization_id,
			member_requires_approval,
			member_approver_role,
			program_manager_requires_approval,
			program_manager_approver_role,
			manager_requires_approval,
			manager_approver_role
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (organization_id) DO UPDATE SET
			member_requires_approval = EXCLUDED.member_requires_approval,
			member_approver_role = EXCLUDED.member_approver_role,
			program_manager_requires_approval = EXCLUDED.program_manager_requires_approval,
			program_manager_approver_role = EXCLUDED.program_manager_approver_role,
			manager_requires_approval = EXCLUDED.manager_requires_approval,
			manager_approver_role = EXCLUDED.manager_approver_role,
			updated_at = NOW(),
			version = approval_settings.version + 1
		WHERE approval_settings.version = $8
		RETURNING updated_at, version
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	params := []any{
		s.OrganizationID,
		s.Member.RequiresApproval,
		s.Member.ApproverRole,
		s.ProgramManager.RequiresApproval,
		s.ProgramManager.ApproverRole,
		s.Manager.RequiresApproval,
		s.Manager.ApproverRole,
		s.Version,
	}
	return r.dbpool.QueryRowContext(ctx, query, params...).Scan(&s.UpdatedAt, &s.Version)
}

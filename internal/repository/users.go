package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

const userColumns = `id, email, full_name, role, organization_id, department_id, is_active, created_at, version`

func scanUser(s scanner) (*domain.User, error) {
	user := &domain.User{}
	dst := []any{&user.ID, &user.Email, &user.FullName, &user.Role, &user.OrganizationID, &user.DepartmentID, &user.IsActive, &user.CreatedAt, &user.Version}
	if err := s.Scan(dst...); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	return scanUser(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) getUsers(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// GetUsersByOrganization 用于批量导入时构建 email -> id 映射
func (r *Repository) GetUsersByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE organization_id = $1 ORDER BY email`
	return r.getUsers(ctx, query, organizationID)
}

func (r *Repository) GetActiveUsersByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE department_id = $1 AND is_active ORDER BY full_name`
	return r.getUsers(ctx, query, departmentID)
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (email, full_name, role, organization_id, department_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, created_at, version
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	args := []any{user.Email, user.FullName, user.Role, user.OrganizationID, user.DepartmentID}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.Version)
}

// GetUserSettingsOverride 读取个人层的设置覆盖，未设置的字段为 nil
func (r *Repository) GetUserSettingsOverride(ctx context.Context, id uuid.UUID) (*domain.SettingsOverride, error) {
	query := `
		SELECT daily_target_minutes, submission_window_days, time_format
		FROM users WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	o := &domain.SettingsOverride{}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&o.DailyTargetMinutes, &o.SubmissionWindowDays, &o.TimeFormat); err != nil {
		return nil, err
	}

	return o, nil
}

// GetSettingsOverridesByDepartment 返回部门内每个成员的个人覆盖，用于部门日历计算各自的每日目标
func (r *Repository) GetSettingsOverridesByDepartment(ctx context.Context, departmentID uuid.UUID) (map[uuid.UUID]*domain.SettingsOverride, error) {
	query := `
		SELECT id, daily_target_minutes, submission_window_days, time_format
		FROM users WHERE department_id = $1 AND is_active
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make(map[uuid.UUID]*domain.SettingsOverride)
	for rows.Next() {
		var id uuid.UUID
		o := &domain.SettingsOverride{}
		if err := rows.Scan(&id, &o.DailyTargetMinutes, &o.SubmissionWindowDays, &o.TimeFormat); err != nil {
			return nil, err
		}
		overrides[id] = o
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return overrides, nil
}

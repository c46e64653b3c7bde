package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

func (r *Repository) GetOrganizationByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	query := `
		SELECT name, daily_target_minutes, submission_window_days, time_format
		FROM organizations WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	org := &domain.Organization{ID: id}
	dst := []any{&org.Name, &org.Settings.DailyTargetMinutes, &org.Settings.SubmissionWindowDays, &org.Settings.TimeFormat}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return org, nil
}

func (r *Repository) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	query := `
		INSERT INTO organizations (name, daily_target_minutes, submission_window_days, time_format)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	args := []any{org.Name, org.Settings.DailyTargetMinutes, org.Settings.SubmissionWindowDays, org.Settings.TimeFormat}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&org.ID)
}

const departmentColumns = `id, organization_id, code, name, daily_target_minutes, submission_window_days, time_format`

func scanDepartment(s scanner) (*domain.Department, error) {
	d := &domain.Department{}
	dst := []any{&d.ID, &d.OrganizationID, &d.Code, &d.Name, &d.Settings.DailyTargetMinutes, &d.Settings.SubmissionWindowDays, &d.Settings.TimeFormat}
	if err := s.Scan(dst...); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Repository) GetDepartmentByID(ctx context.Context, id uuid.UUID) (*domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	return scanDepartment(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetDepartmentsByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE organization_id = $1 ORDER BY code`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := make([]*domain.Department, 0)
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return departments, nil
}

func (r *Repository) CreateDepartment(ctx context.Context, d *domain.Department) error {
	query := `
		INSERT INTO departments (organization_id, code, name, daily_target_minutes, submission_window_days, time_format)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	args := []any{d.OrganizationID, d.Code, d.Name, d.Settings.DailyTargetMinutes, d.Settings.SubmissionWindowDays, d.Settings.TimeFormat}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&d.ID)
}

func (r *Repository) GetProgramsByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*domain.Program, error) {
	query := `SELECT id, code, name FROM programs WHERE organization_id = $1 ORDER BY code`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	programs := make([]*domain.Program, 0)
	for rows.Next() {
		p := &domain.Program{OrganizationID: organizationID}
		if err := rows.Scan(&p.ID, &p.Code, &p.Name); err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return programs, nil
}

// GetActiveCategoryCodes 返回组织自定义的活动分类代码，组织没有定义时返回空列表
func (r *Repository) GetActiveCategoryCodes(ctx context.Context, organizationID uuid.UUID) ([]string, error) {
	query := `
		SELECT code FROM activity_categories
		WHERE organization_id = $1 AND is_active
		ORDER BY code
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return codes, nil
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

// 起止时间以 HH:MM 读出，与校验器的规范化格式一致
const entryColumns = `
	e.id,
	e.user_id,
	e.entry_date,
	to_char(e.start_time, 'HH24:MI'),
	to_char(e.end_time, 'HH24:MI'),
	e.duration_minutes,
	e.activity_type,
	e.activity_subtype,
	e.notes,
	e.status,
	e.approver_id,
	e.approver_notes,
	e.department_code,
	e.program_id,
	e.source,
	e.created_at,
	e.updated_at,
	e.version
`

func scanEntry(s scanner) (*domain.TimesheetEntry, error) {
	e := &domain.TimesheetEntry{}
	dst := []any{
		&e.ID,
		&e.UserID,
		&e.EntryDate,
		&e.StartTime,
		&e.EndTime,
		&e.DurationMinutes,
		&e.ActivityType,
		&e.ActivitySubtype,
		&e.Notes,
		&e.Status,
		&e.ApproverID,
		&e.ApproverNotes,
		&e.DepartmentCode,
		&e.ProgramID,
		&e.Source,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.Version,
	}
	if err := s.Scan(dst...); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *Repository) getEntries(ctx context.Context, query string, args ...any) ([]domain.TimesheetEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.TimesheetEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *Repository) GetEntryByID(ctx context.Context, id uuid.UUID) (*domain.TimesheetEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM timesheet_entries e WHERE e.id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	return scanEntry(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetEntriesByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.TimesheetEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM timesheet_entries e
		WHERE e.user_id = $1 AND e.entry_date BETWEEN $2 AND $3
		ORDER BY e.entry_date, e.start_time
	`
	return r.getEntries(ctx, query, userID, from, to)
}

// GetEntriesByUsers 一次读出多个用户在区间内的记录，用于部门日历和批量导入的重叠检测
func (r *Repository) GetEntriesByUsers(ctx context.Context, userIDs []uuid.UUID, from, to time.Time) ([]domain.TimesheetEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM timesheet_entries e
		WHERE e.user_id = ANY($1::uuid[]) AND e.entry_date BETWEEN $2 AND $3
		ORDER BY e.entry_date, e.start_time
	`
	return r.getEntries(ctx, query, uuidStrings(userIDs), from, to)
}

// GetApprovalQueue 返回组织内由 roles 中角色提交、等待审批的记录，排除审批人自己的记录
func (r *Repository) GetApprovalQueue(ctx context.Context, organizationID uuid.UUID, roles []domain.Role, excludeUserID uuid.UUID) ([]domain.TimesheetEntry, error) {
	if len(roles) == 0 {
		return []domain.TimesheetEntry{}, nil
	}

	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	query := `
		SELECT ` + entryColumns + `
		FROM timesheet_entries e
		JOIN users u ON u.id = e.user_id
		WHERE u.organization_id = $1
			AND u.role = ANY($2::text[])
			AND e.status = 'submitted'
			AND e.user_id <> $3
		ORDER BY e.entry_date, e.start_time
	`
	return r.getEntries(ctx, query, organizationID, names, excludeUserID)
}

// CountActiveEntriesOnDate 统计某天未被驳回的记录数，请假前需要为 0
func (r *Repository) CountActiveEntriesOnDate(ctx context.Context, userID uuid.UUID, date time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM timesheet_entries
		WHERE user_id = $1 AND entry_date = $2 AND status <> 'rejected'
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	var n int
	if err := r.dbpool.QueryRowContext(ctx, query, userID, date).Scan(&n); err != nil {
		return 0, err
	}

	return n, nil
}

func entryParams(e *domain.TimesheetEntry) []any {
	return []any{
		e.UserID,
		e.EntryDate,
		e.StartTime,
		e.EndTime,
		e.DurationMinutes,
		e.ActivityType,
		e.ActivitySubtype,
		e.Notes,
		e.Status,
		e.ApproverID,
		e.ApproverNotes,
		e.DepartmentCode,
		e.ProgramID,
		e.Source,
	}
}

func (r *Repository) CreateEntry(ctx context.Context, e *domain.TimesheetEntry) error {
	query := `
		INSERT INTO timesheet_entries (
			user_id,
			entry_date,
			start_time,
			end_time,
			duration_minutes,
			activity_type,
			activity_subtype,
			notes,
			status,
			approver_id,
			approver_notes,
			department_code,
			program_id,
			source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at, version
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	dst := []any{&e.ID, &e.CreatedAt, &e.UpdatedAt, &e.Version}
	return r.dbpool.QueryRowContext(ctx, query, entryParams(e)...).Scan(dst...)
}

// UpdateEntry 按 version 做乐观锁，记录已被他人修改时返回 sql.ErrNoRows
func (r *Repository) UpdateEntry(ctx context.Context, e *domain.TimesheetEntry) error {
	query := `
		UPDATE timesheet_entries
		SET
			entry_date = $1,
			start_time = $2,
			end_time = $3,
			duration_minutes = $4,
			activity_type = $5,
			activity_subtype = $6,
			notes = $7,
			status = $8,
			approver_id = $9,
			approver_notes = $10,
			department_code = $11,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $12 AND version = $13
		RETURNING updated_at, version
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	params := []any{
		e.EntryDate,
		e.StartTime,
		e.EndTime,
		e.DurationMinutes,
		e.ActivityType,
		e.ActivitySubtype,
		e.Notes,
		e.Status,
		e.ApproverID,
		e.ApproverNotes,
		e.DepartmentCode,
		e.ID,
		e.Version,
	}
	return r.dbpool.QueryRowContext(ctx, query, params...).Scan(&e.UpdatedAt, &e.Version)
}

// InsertEntries 用一条多行 INSERT 写入一批记录，整批在同一个事务中，要么全部成功要么全部失败
func (r *Repository) InsertEntries(ctx context.Context, entries []domain.TimesheetEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.transactionTimeout())
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const columns = 15
	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO timesheet_entries (
			id,
			user_id,
			entry_date,
			start_time,
			end_time,
			duration_minutes,
			activity_type,
			activity_subtype,
			notes,
			status,
			approver_id,
			approver_notes,
			department_code,
			program_id,
			source
		) VALUES `)

	args := make([]any, 0, len(entries)*columns)
	for i := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < columns; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*columns+j+1)
		}
		sb.WriteString(")")

		id := entries[i].ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		args = append(args, id)
		args = append(args, entryParams(&entries[i])...)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

func (r *Repository) getLeaveDays(ctx context.Context, query string, args ...any) ([]domain.LeaveDay, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leaveDays := make([]domain.LeaveDay, 0)
	for rows.Next() {
		var l domain.LeaveDay
		if err := rows.Scan(&l.ID, &l.UserID, &l.LeaveDate, &l.LeaveType, &l.Notes, &l.CreatedAt); err != nil {
			return nil, err
		}
		leaveDays = append(leaveDays, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return leaveDays, nil
}

func (r *Repository) GetLeaveDaysByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.LeaveDay, error) {
	query := `
		SELECT id, user_id, leave_date, leave_type, notes, created_at
		FROM leave_days
		WHERE user_id = $1 AND leave_date BETWEEN $2 AND $3
		ORDER BY leave_date
	`
	return r.getLeaveDays(ctx, query, userID, from, to)
}

func (r *Repository) GetLeaveDaysByUsers(ctx context.Context, userIDs []uuid.UUID, from, to time.Time) ([]domain.LeaveDay, error) {
	query := `
		SELECT id, user_id, leave_date, leave_type, notes, created_at
		FROM leave_days
		WHERE user_id = ANY($1::uuid[]) AND leave_date BETWEEN $2 AND $3
		ORDER BY leave_date
	`
	return r.getLeaveDays(ctx, query, uuidStrings(userIDs), from, to)
}

// CreateLeaveDay 同一用户同一天重复请假会违反 leave_days_user_id_leave_date_key 约束
func (r *Repository) CreateLeaveDay(ctx context.Context, l *domain.LeaveDay) error {
	query := `
		INSERT INTO leave_days (user_id, leave_date, leave_type, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, l.UserID, l.LeaveDate, l.LeaveType, l.Notes).Scan(&l.ID, &l.CreatedAt)
}

// DeleteLeaveDay 只删除属于 userID 的记录，不存在时返回 sql.ErrNoRows
func (r *Repository) DeleteLeaveDay(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM leave_days WHERE id = $1 AND user_id = $2 RETURNING id`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	var deleted uuid.UUID
	return r.dbpool.QueryRowContext(ctx, query, id, userID).Scan(&deleted)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

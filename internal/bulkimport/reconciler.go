// Package bulkimport 负责把外部文件中解析出的行与参考数据对账，
// 然后分批写入存储。文件本身的解析不在这里处理。
package bulkimport

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/timesheet"
)

var (
	ErrTooManyRows  = errors.New("too many rows in import")
	ErrFileTooLarge = errors.New("import file is too large")
)

type Limits struct {
	MaxRows     int
	MaxFileSize int64
}

func DefaultLimits() Limits {
	return Limits{MaxRows: 1000, MaxFileSize: 5 << 20}
}

// Check 在读取任何参考数据之前检查导入规模，值 <= 0 的限制不生效
func (l Limits) Check(rows int, fileSize int64) error {
	if l.MaxRows > 0 && rows > l.MaxRows {
		return fmt.Errorf("%w: %d rows, at most %d allowed", ErrTooManyRows, rows, l.MaxRows)
	}
	if l.MaxFileSize > 0 && fileSize > l.MaxFileSize {
		return fmt.Errorf("%w: %d bytes, at most %d allowed", ErrFileTooLarge, fileSize, l.MaxFileSize)
	}
	return nil
}

type Mode string

const (
	// ModeAdmin 每行通过 email 指定所属用户
	ModeAdmin Mode = "admin"
	// ModeSelf 所有行都属于操作者本人，忽略 email 列
	ModeSelf Mode = "self"
)

// References 是导入前预先取出的参考数据，键已经规范化
type References struct {
	UsersByEmail      map[string]uuid.UUID
	DepartmentsByCode map[string]uuid.UUID
	ProgramsByCode    map[string]uuid.UUID
	// Existing 和 LeaveDays 为已经存储的数据，可以为空
	Existing  []domain.TimesheetEntry
	LeaveDays []domain.LeaveDay
}

func NewReferences(users []domain.User, departments []domain.Department, programs []domain.Program) References {
	refs := References{
		UsersByEmail:      make(map[string]uuid.UUID, len(users)),
		DepartmentsByCode: make(map[string]uuid.UUID, len(departments)),
		ProgramsByCode:    make(map[string]uuid.UUID, len(programs)),
	}
	for _, u := range users {
		if !u.IsActive {
			continue
		}
		refs.UsersByEmail[normalizeEmail(u.Email)] = u.ID
	}
	for _, d := range departments {
		refs.DepartmentsByCode[normalizeCode(d.Code)] = d.ID
	}
	for _, p := range programs {
		refs.ProgramsByCode[normalizeCode(p.Code)] = p.ID
	}
	return refs
}

type Actor struct {
	Mode   Mode
	UserID uuid.UUID
	// Status 是导入记录的初始状态，只能是 draft 或 submitted
	Status    domain.EntryStatus
	Validator *timesheet.Validator
}

type Batch struct {
	Rows     []domain.BulkImportRow
	FileSize int64
}

type Result struct {
	Admitted []domain.TimesheetEntry `json:"admitted"`
	Rejected []domain.RejectedRow    `json:"rejected"`
}

// Reconcile 逐行校验并把行划分为可写入和被拒绝两组，两组的行数之和总是等于输入行数。
// 超出行数或文件大小限制时直接返回错误，不处理任何一行。
func Reconcile(batch Batch, refs References, actor Actor, limits Limits) (*Result, error) {
	if err := limits.Check(len(batch.Rows), batch.FileSize); err != nil {
		return nil, err
	}

	status, err := timesheet.InitialStatus(actor.Status)
	if err != nil {
		return nil, err
	}

	validator := actor.Validator
	if validator == nil {
		validator = timesheet.NewValidator()
	}

	r := &reconciler{
		refs:      refs,
		actor:     actor,
		status:    status,
		validator: validator,
		// 已存储的记录加上本次已接受的记录共同参与重叠检测
		occupied: append([]domain.TimesheetEntry(nil), refs.Existing...),
	}

	result := &Result{
		Admitted: make([]domain.TimesheetEntry, 0, len(batch.Rows)),
		Rejected: make([]domain.RejectedRow, 0),
	}
	for _, row := range batch.Rows {
		entry, errs := r.row(row)
		if len(errs) > 0 {
			result.Rejected = append(result.Rejected, domain.RejectedRow{Row: row, Errors: errs})
			continue
		}
		r.occupied = append(r.occupied, *entry)
		result.Admitted = append(result.Admitted, *entry)
	}

	return result, nil
}

type reconciler struct {
	refs      References
	actor     Actor
	status    domain.EntryStatus
	validator *timesheet.Validator
	occupied  []domain.TimesheetEntry
}

func (r *reconciler) row(row domain.BulkImportRow) (*domain.TimesheetEntry, []string) {
	var errs []string
	fields := normalizeFields(row.Fields)

	missing := func(name string) bool {
		if fields[name] == "" {
			errs = append(errs, "Missing "+name)
			return true
		}
		return false
	}

	// 1. 必填字段
	var missingEmail bool
	if r.actor.Mode == ModeAdmin {
		missingEmail = missing("email")
	}
	missingDate := missing("entry_date")
	missingStart := missing("start_time")
	missingEnd := missing("end_time")
	missingActivity := missing("activity_type")
	missingDepartment := missing("department_code")

	// 2. 参考数据
	userID := r.actor.UserID
	if r.actor.Mode == ModeAdmin && !missingEmail {
		id, ok := r.refs.UsersByEmail[normalizeEmail(fields["email"])]
		if !ok {
			errs = append(errs, fmt.Sprintf("Unknown user email: %s", fields["email"]))
		}
		userID = id
	}

	var departmentCode string
	if !missingDepartment {
		departmentCode = normalizeCode(fields["department_code"])
		if _, ok := r.refs.DepartmentsByCode[departmentCode]; !ok {
			errs = append(errs, fmt.Sprintf("Unknown department_code: %s", fields["department_code"]))
		}
	}

	var programID *uuid.UUID
	if code := fields["program_code"]; code != "" {
		id, ok := r.refs.ProgramsByCode[normalizeCode(code)]
		if !ok {
			errs = append(errs, fmt.Sprintf("Unknown program_code: %s", code))
		} else {
			programID = &id
		}
	}

	// 3. 日期和时间
	var (
		date   time.Time
		dateOK bool
	)
	if !missingDate {
		d, err := ParseImportDate(fields["entry_date"])
		if err != nil {
			errs = append(errs, fmt.Sprintf("Invalid entry_date %q: use YYYY-MM-DD or DD/MM/YYYY", fields["entry_date"]))
		} else {
			date, dateOK = d, true
		}
	}

	var (
		span    timesheet.TimeRange
		timesOK bool
	)
	if !missingStart && !missingEnd {
		rng, rangeErrs := timesheet.ParseRange(fields["start_time"], fields["end_time"])
		for _, fe := range rangeErrs {
			errs = append(errs, fe.Message)
		}
		span, timesOK = rng, len(rangeErrs) == 0
	}

	// 4. 活动类型
	activity, ok := r.validator.NormalizeActivityType(fields["activity_type"])
	if !missingActivity && !ok {
		errs = append(errs, fmt.Sprintf("Invalid activity_type %q: expected one of %s",
			fields["activity_type"], strings.Join(r.validator.ActivityTypes(), ", ")))
	}

	// 5. 请假日和时间重叠，只在身份和时间都确定时检查
	if dateOK && userID != uuid.Nil {
		for _, leave := range r.refs.LeaveDays {
			if leave.UserID == userID && timesheet.SameDate(leave.LeaveDate, date) {
				errs = append(errs, fmt.Sprintf("%s is a leave day", date.Format(timesheet.DateLayout)))
				break
			}
		}
		if timesOK {
			owned := make([]domain.TimesheetEntry, 0)
			for _, e := range r.occupied {
				if e.UserID == userID {
					owned = append(owned, e)
				}
			}
			if conflict := timesheet.FindOverlap(date, span.Start, span.End, owned, nil); conflict != nil {
				errs = append(errs, fmt.Sprintf("Time overlaps with another entry (%s-%s)", conflict.StartTime, conflict.EndTime))
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	source := domain.SourceBulkUpload
	return &domain.TimesheetEntry{
		ID:              uuid.New(),
		UserID:          userID,
		EntryDate:       date,
		StartTime:       span.StartText,
		EndTime:         span.EndText,
		DurationMinutes: span.Duration(),
		ActivityType:    activity,
		ActivitySubtype: optional(fields["activity_subtype"]),
		Notes:           optional(fields["notes"]),
		Status:          r.status,
		DepartmentCode:  &departmentCode,
		ProgramID:       programID,
		Source:          &source,
	}, nil
}

// ParseImportDate 接受 YYYY-MM-DD 或 DD/MM/YYYY（日和月可以不补零）
func ParseImportDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		t, err := time.Parse("2/1/2006", s)
		if err != nil {
			return time.Time{}, timesheet.ErrInvalidDate
		}
		return t, nil
	}
	return timesheet.ParseDate(s)
}

// DateRange 返回所有行中可解析日期的最小值和最大值，用于预先读取这段时间内的已有数据
func DateRange(rows []domain.BulkImportRow) (from, to time.Time, ok bool) {
	for _, row := range rows {
		d, err := ParseImportDate(normalizeFields(row.Fields)["entry_date"])
		if err != nil {
			continue
		}
		if !ok || d.Before(from) {
			from = d
		}
		if !ok || d.After(to) {
			to = d
		}
		ok = true
	}
	return from, to, ok
}

// 列名的别名，统一映射为内部使用的名字
var columnAliases = map[string]string{
	"date":          "entry_date",
	"start":         "start_time",
	"end":           "end_time",
	"activity":      "activity_type",
	"subtype":       "activity_subtype",
	"department":    "department_code",
	"program":       "program_code",
	"user_email":    "email",
	"email_address": "email",
}

// normalizeFields 统一列名。别名和规范列名同时出现时以规范列名为准，
// 多个别名指向同一列时按列名排序后取第一个非空值，保证结果与 map 的遍历顺序无关。
func normalizeFields(raw map[string]string) map[string]string {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make(map[string]string, len(raw))
	canonical := make(map[string]bool, len(raw))
	for _, key := range keys {
		name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
		alias, isAlias := columnAliases[name]
		if isAlias {
			name = alias
		}
		value := strings.TrimSpace(raw[key])

		switch {
		case value == "":
			if _, ok := fields[name]; !ok {
				fields[name] = ""
			}
		case !isAlias && !canonical[name]:
			fields[name] = value
			canonical[name] = true
		case isAlias && !canonical[name] && fields[name] == "":
			fields[name] = value
		}
	}
	return fields
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package timesheet

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

// Candidate 是用户提交的原始数据，时间和日期都还是字符串
type Candidate struct {
	ID              *uuid.UUID // 编辑时为被编辑记录的 ID
	UserID          uuid.UUID
	EntryDate       string
	StartTime       string
	EndTime         string
	ActivityType    string
	ActivitySubtype *string
	Notes           *string
	DepartmentCode  *string
	Status          domain.EntryStatus
}

type Validator struct {
	activityTypes []string
	windowDays    int
	today         time.Time
}

type Option func(*Validator)

// WithCategories 用组织自定义的分类代码替换默认的活动类型，空列表时保留默认值
func WithCategories(codes []string) Option {
	return func(v *Validator) {
		if len(codes) == 0 {
			return
		}
		v.activityTypes = make([]string, 0, len(codes))
		for _, code := range codes {
			v.activityTypes = append(v.activityTypes, normalizeActivityType(code))
		}
	}
}

// WithSubmissionWindow 限制只能填写 today 往前 days 天内的记录，days <= 0 表示不限制
func WithSubmissionWindow(days int, today time.Time) Option {
	return func(v *Validator) {
		v.windowDays = days
		v.today = DateOnly(today)
	}
}

func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		activityTypes: slices.Clone(domain.DefaultActivityTypes),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func normalizeActivityType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeActivityType 返回规范化后的活动类型以及它是否被识别
func (v *Validator) NormalizeActivityType(s string) (string, bool) {
	normalized := normalizeActivityType(s)
	return normalized, slices.Contains(v.activityTypes, normalized)
}

func (v *Validator) ActivityTypes() []string {
	return slices.Clone(v.activityTypes)
}

// TimeRange 是解析后的起止时间，均为零点起的分钟数
type TimeRange struct {
	Start, End         int
	StartText, EndText string
}

func (r TimeRange) Duration() int {
	return r.End - r.Start
}

// ParseRange 解析起止时间并检查先后顺序，批量导入也复用这里的规则
func ParseRange(start, end string) (TimeRange, []FieldError) {
	var (
		r    TimeRange
		errs []FieldError
	)

	startMin, startText, startErr := ParseClock(start)
	if startErr != nil {
		errs = append(errs, FieldError{Field: "start_time", Message: "start_time must be in HH:MM (24-hour) format", Kind: KindField})
	}
	endMin, endText, endErr := ParseClock(end)
	if endErr != nil {
		errs = append(errs, FieldError{Field: "end_time", Message: "end_time must be in HH:MM (24-hour) format", Kind: KindField})
	}
	if startErr != nil || endErr != nil {
		return r, errs
	}

	if endMin <= startMin {
		return r, []FieldError{{Field: "end_time", Message: "end_time must be after start_time", Kind: KindField}}
	}

	return TimeRange{Start: startMin, End: endMin, StartText: startText, EndText: endText}, nil
}

// Validate 按顺序执行全部检查并累积错误，不会因为第一条错误就返回。
// 通过时返回规范化后的记录（时间补零，活动类型小写）。
func (v *Validator) Validate(c Candidate, existing []domain.TimesheetEntry, leaveDays []domain.LeaveDay) (*domain.TimesheetEntry, error) {
	var errs []FieldError
	required := func(field, value string) bool {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("%s is required", field), Kind: KindField})
			return false
		}
		return true
	}

	hasDate := required("entry_date", c.EntryDate)
	hasStart := required("start_time", c.StartTime)
	hasEnd := required("end_time", c.EndTime)
	hasActivity := required("activity_type", c.ActivityType)

	var (
		date     time.Time
		dateOK   bool
		timeSpan TimeRange
		timesOK  bool
	)

	if hasDate {
		d, err := ParseDate(c.EntryDate)
		if err != nil {
			errs = append(errs, FieldError{Field: "entry_date", Message: "entry_date must be in YYYY-MM-DD format", Kind: KindField})
		} else {
			date, dateOK = d, true
		}
	}

	if hasStart && hasEnd {
		r, rangeErrs := ParseRange(c.StartTime, c.EndTime)
		errs = append(errs, rangeErrs...)
		timeSpan, timesOK = r, len(rangeErrs) == 0
	} else if hasStart || hasEnd {
		// 只填了一个时间时仍然检查格式
		field, value := "start_time", c.StartTime
		if hasEnd {
			field, value = "end_time", c.EndTime
		}
		if _, _, err := ParseClock(value); err != nil {
			errs = append(errs, FieldError{Field: field, Message: field + " must be in HH:MM (24-hour) format", Kind: KindField})
		}
	}

	activity := normalizeActivityType(c.ActivityType)
	if hasActivity {
		if _, ok := v.NormalizeActivityType(c.ActivityType); !ok {
			errs = append(errs, FieldError{
				Field:   "activity_type",
				Message: fmt.Sprintf("activity_type %q is not one of: %s", c.ActivityType, strings.Join(v.activityTypes, ", ")),
				Kind:    KindField,
			})
		}
	}

	if dateOK && v.windowDays > 0 && !v.today.IsZero() {
		earliest := v.today.AddDate(0, 0, -v.windowDays)
		if date.Before(earliest) || date.After(v.today) {
			errs = append(errs, FieldError{
				Field:   "entry_date",
				Message: fmt.Sprintf("entry_date must be within the last %d days", v.windowDays),
				Kind:    KindField,
			})
		}
	}

	if dateOK {
		for _, leave := range leaveDays {
			if leave.UserID == c.UserID && SameDate(leave.LeaveDate, date) {
				errs = append(errs, FieldError{
					Field:   "entry_date",
					Message: fmt.Sprintf("%s is marked as a leave day", date.Format(DateLayout)),
					Kind:    KindLeaveDay,
				})
				break
			}
		}
	}

	if dateOK && timesOK {
		owned := make([]domain.TimesheetEntry, 0, len(existing))
		for _, e := range existing {
			if e.UserID == c.UserID {
				owned = append(owned, e)
			}
		}
		if conflict := FindOverlap(date, timeSpan.Start, timeSpan.End, owned, c.ID); conflict != nil {
			errs = append(errs, FieldError{
				Field: "start_time",
				Message: fmt.Sprintf("time overlaps with an existing entry (%s-%s)",
					trimClock(conflict.StartTime), trimClock(conflict.EndTime)),
				Kind: KindOverlap,
			})
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	entry := &domain.TimesheetEntry{
		UserID:          c.UserID,
		EntryDate:       date,
		StartTime:       timeSpan.StartText,
		EndTime:         timeSpan.EndText,
		DurationMinutes: timeSpan.Duration(),
		ActivityType:    activity,
		ActivitySubtype: trimmedOrNil(c.ActivitySubtype),
		Notes:           trimmedOrNil(c.Notes),
		DepartmentCode:  trimmedOrNil(c.DepartmentCode),
		Status:          c.Status,
	}
	if c.ID != nil {
		entry.ID = *c.ID
	}

	return entry, nil
}

func trimClock(s string) string {
	if _, text, err := ParseClock(s); err == nil {
		return text
	}
	return s
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

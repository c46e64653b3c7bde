package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/timesheet"
)

var ErrInvalidPeriod = errors.New("invalid period")

// Period 是闭区间 [From, To]，只看日期部分
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func NewPeriod(from, to time.Time) (Period, error) {
	p := Period{From: timesheet.DateOnly(from), To: timesheet.DateOnly(to)}
	if p.To.Before(p.From) {
		return Period{}, fmt.Errorf("%w: %s is before %s", ErrInvalidPeriod, p.To.Format(timesheet.DateLayout), p.From.Format(timesheet.DateLayout))
	}
	return p, nil
}

func ParsePeriod(from, to string) (Period, error) {
	f, err := timesheet.ParseDate(from)
	if err != nil {
		return Period{}, fmt.Errorf("%w: from: %w", ErrInvalidPeriod, err)
	}
	t, err := timesheet.ParseDate(to)
	if err != nil {
		return Period{}, fmt.Errorf("%w: to: %w", ErrInvalidPeriod, err)
	}
	return NewPeriod(f, t)
}

// MonthOf 返回 t 所在自然月
func MonthOf(t time.Time) Period {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{From: first, To: first.AddDate(0, 1, -1)}
}

func (p Period) Contains(t time.Time) bool {
	d := timesheet.DateOnly(t)
	return !d.Before(p.From) && !d.After(p.To)
}

func (p Period) Days() []time.Time {
	days := make([]time.Time, 0)
	for d := p.From; !d.After(p.To); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// WorkingDays 逐日检查区间内的每一天，排除周六和周日
func WorkingDays(p Period) int {
	n := 0
	for _, d := range p.Days() {
		if !IsWeekend(d) {
			n++
		}
	}
	return n
}

type Band string

const (
	BandExceeded Band = "Exceeded"
	BandOnTrack  Band = "On Track"
	BandBehind   Band = "Behind Schedule"
	BandCritical Band = "Critical"
)

func BandFor(rate float64) Band {
	switch {
	case rate >= 100:
		return BandExceeded
	case rate >= 70:
		return BandOnTrack
	case rate >= 50:
		return BandBehind
	default:
		return BandCritical
	}
}

type Completion struct {
	ActualMinutes   int     `json:"actualMinutes"`
	ExpectedMinutes int     `json:"expectedMinutes"`
	CompletionRate  float64 `json:"completionRate"`
	Band            Band    `json:"band"`
}

func rate(actual, expected int) float64 {
	if expected == 0 {
		return 0
	}
	return float64(actual) / float64(expected) * 100
}

func newCompletion(actual, expected int) Completion {
	r := rate(actual, expected)
	return Completion{ActualMinutes: actual, ExpectedMinutes: expected, CompletionRate: r, Band: BandFor(r)}
}

// ActualMinutes 累加区间内已提交和已审批记录的时长，草稿和被驳回的不计
func ActualMinutes(entries []domain.TimesheetEntry, period Period) int {
	total := 0
	for i := range entries {
		if entries[i].Counted() && period.Contains(entries[i].EntryDate) {
			total += entries[i].DurationMinutes
		}
	}
	return total
}

// ComputeCompletion 计算区间完成度。expected 为 0 时完成率为 0，完成率没有上限。
func ComputeCompletion(entries []domain.TimesheetEntry, period Period, expectedMinutesPerDay, workingDays int) Completion {
	return newCompletion(ActualMinutes(entries, period), workingDays*expectedMinutesPerDay)
}

// PersonalCompletion 是个人完成度卡片：工作日只排除周末，请假日不从应完成时长中扣除
func PersonalCompletion(entries []domain.TimesheetEntry, period Period, settings domain.EffectiveSettings) Completion {
	return ComputeCompletion(entries, period, settings.DailyTargetMinutes, WorkingDays(period))
}

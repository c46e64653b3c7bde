package analytics

import (
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/timesheet"
)

// CalendarMember 是部门中的一个成员及其生效的每日目标
type CalendarMember struct {
	UserID             uuid.UUID
	DailyTargetMinutes int
}

type CalendarDay struct {
	Date            time.Time `json:"date"`
	Weekend         bool      `json:"weekend"`
	MembersOnLeave  int       `json:"membersOnLeave"`
	ActualMinutes   int       `json:"actualMinutes"`
	ExpectedMinutes int       `json:"expectedMinutes"`
	CompletionRate  float64   `json:"completionRate"`
	Band            Band      `json:"band"`
}

type Calendar struct {
	Period Period        `json:"period"`
	Days   []CalendarDay `json:"days"`
	Totals Completion    `json:"totals"`
}

// DepartmentCalendar 按天汇总部门完成度。
// 与个人卡片不同，这里请假的成员当天不计入应完成时长；周末应完成时长为 0。
func DepartmentCalendar(members []CalendarMember, entries []domain.TimesheetEntry, leaveDays []domain.LeaveDay, period Period) Calendar {
	inDepartment := make(map[uuid.UUID]bool, len(members))
	for _, m := range members {
		inDepartment[m.UserID] = true
	}

	onLeave := make(map[string]map[uuid.UUID]bool)
	for _, l := range leaveDays {
		if !inDepartment[l.UserID] || !period.Contains(l.LeaveDate) {
			continue
		}
		key := l.LeaveDate.Format(timesheet.DateLayout)
		if onLeave[key] == nil {
			onLeave[key] = make(map[uuid.UUID]bool)
		}
		onLeave[key][l.UserID] = true
	}

	actual := make(map[string]int)
	for i := range entries {
		e := &entries[i]
		if !inDepartment[e.UserID] || !e.Counted() || !period.Contains(e.EntryDate) {
			continue
		}
		actual[e.EntryDate.Format(timesheet.DateLayout)] += e.DurationMinutes
	}

	cal := Calendar{Period: period, Days: make([]CalendarDay, 0)}
	var totalActual, totalExpected int
	for _, d := range period.Days() {
		key := d.Format(timesheet.DateLayout)
		day := CalendarDay{
			Date:           d,
			Weekend:        IsWeekend(d),
			MembersOnLeave: len(onLeave[key]),
			ActualMinutes:  actual[key],
		}
		if !day.Weekend {
			for _, m := range members {
				if !onLeave[key][m.UserID] {
					day.ExpectedMinutes += m.DailyTargetMinutes
				}
			}
		}
		day.CompletionRate = rate(day.ActualMinutes, day.ExpectedMinutes)
		day.Band = BandFor(day.CompletionRate)

		totalActual += day.ActualMinutes
		totalExpected += day.ExpectedMinutes
		cal.Days = append(cal.Days, day)
	}
	cal.Totals = newCompletion(totalActual, totalExpected)

	return cal
}

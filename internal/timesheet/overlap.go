package timesheet

import (
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

// FindOverlap 返回同一天内与 [start, end) 冲突的第一条记录。
// 已驳回的记录不占用时间，excludeID 对应正在编辑的记录本身。
func FindOverlap(date time.Time, start, end int, existing []domain.TimesheetEntry, excludeID *uuid.UUID) *domain.TimesheetEntry {
	for i := range existing {
		e := &existing[i]
		if e.Status == domain.EntryStatusRejected {
			continue
		}
		if excludeID != nil && e.ID == *excludeID {
			continue
		}
		if !SameDate(e.EntryDate, date) {
			continue
		}

		s2, _, err := ParseClock(e.StartTime)
		if err != nil {
			continue
		}
		e2, _, err := ParseClock(e.EndTime)
		if err != nil {
			continue
		}

		// 半开区间，首尾相接不算冲突
		if start < e2 && end > s2 {
			return e
		}
	}
	return nil
}

func Overlaps(date time.Time, start, end int, existing []domain.TimesheetEntry, excludeID *uuid.UUID) bool {
	return FindOverlap(date, start, end, existing, excludeID) != nil
}

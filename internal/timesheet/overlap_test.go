package timesheet_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/timesheet"
)

var day = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func entry(start, end string, status domain.EntryStatus) domain.TimesheetEntry {
	return domain.TimesheetEntry{
		ID:        uuid.New(),
		EntryDate: day,
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}
}

func TestOverlaps(t *testing.T) {
	existing := []domain.TimesheetEntry{entry("09:00", "11:00", domain.EntryStatusSubmitted)}

	assert.True(t, timesheet.Overlaps(day, 10*60+30, 12*60, existing, nil))
	assert.True(t, timesheet.Overlaps(day, 8*60, 9*60+1, existing, nil))
	assert.True(t, timesheet.Overlaps(day, 9*60+30, 10*60, existing, nil))
	assert.True(t, timesheet.Overlaps(day, 8*60, 12*60, existing, nil))
}

func TestOverlaps_AbuttingIntervals(t *testing.T) {
	existing := []domain.TimesheetEntry{entry("09:00", "10:00", domain.EntryStatusApproved)}

	assert.False(t, timesheet.Overlaps(day, 10*60, 11*60, existing, nil))
	assert.False(t, timesheet.Overlaps(day, 8*60, 9*60, existing, nil))
}

func TestOverlaps_IgnoresRejectedAndOtherDays(t *testing.T) {
	rejected := entry("09:00", "11:00", domain.EntryStatusRejected)
	otherDay := entry("09:00", "11:00", domain.EntryStatusDraft)
	otherDay.EntryDate = day.AddDate(0, 0, 1)

	existing := []domain.TimesheetEntry{rejected, otherDay}
	assert.False(t, timesheet.Overlaps(day, 9*60, 10*60, existing, nil))
}

func TestOverlaps_ExcludesEditedEntry(t *testing.T) {
	self := entry("09:00", "11:00", domain.EntryStatusDraft)
	existing := []domain.TimesheetEntry{self}

	assert.True(t, timesheet.Overlaps(day, 9*60, 10*60, existing, nil))
	assert.False(t, timesheet.Overlaps(day, 9*60, 10*60, existing, &self.ID))
}

func TestFindOverlap_ReturnsConflict(t *testing.T) {
	a := entry("08:00", "09:00", domain.EntryStatusSubmitted)
	b := entry("13:00", "14:00", domain.EntryStatusSubmitted)

	conflict := timesheet.FindOverlap(day, 13*60+30, 15*60, []domain.TimesheetEntry{a, b}, nil)
	if assert.NotNil(t, conflict) {
		assert.Equal(t, b.ID, conflict.ID)
	}
}

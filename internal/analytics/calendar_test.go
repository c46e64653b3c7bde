package analytics_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/analytics"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

func TestDepartmentCalendar(t *testing.T) {
	ann, ben, outsider := uuid.New(), uuid.New(), uuid.New()
	members := []analytics.CalendarMember{
		{UserID: ann, DailyTargetMinutes: 480},
		{UserID: ben, DailyTargetMinutes: 360},
	}

	// 周五到周一
	p, err := analytics.NewPeriod(date(2024, 3, 8), date(2024, 3, 11))
	require.NoError(t, err)

	entries := []domain.TimesheetEntry{
		{UserID: ann, EntryDate: date(2024, 3, 8), DurationMinutes: 480, Status: domain.EntryStatusApproved},
		{UserID: ben, EntryDate: date(2024, 3, 8), DurationMinutes: 120, Status: domain.EntryStatusSubmitted},
		{UserID: ben, EntryDate: date(2024, 3, 8), DurationMinutes: 60, Status: domain.EntryStatusRejected},
		{UserID: outsider, EntryDate: date(2024, 3, 8), DurationMinutes: 300, Status: domain.EntryStatusApproved},
		{UserID: ann, EntryDate: date(2024, 3, 9), DurationMinutes: 60, Status: domain.EntryStatusApproved},
		{UserID: ben, EntryDate: date(2024, 3, 11), DurationMinutes: 360, Status: domain.EntryStatusApproved},
	}
	leave := []domain.LeaveDay{
		{UserID: ann, LeaveDate: date(2024, 3, 11)},
		{UserID: outsider, LeaveDate: date(2024, 3, 8)},
	}

	cal := analytics.DepartmentCalendar(members, entries, leave, p)
	require.Len(t, cal.Days, 4)

	fri, sat, sun, mon := cal.Days[0], cal.Days[1], cal.Days[2], cal.Days[3]

	assert.Equal(t, 600, fri.ActualMinutes)
	assert.Equal(t, 840, fri.ExpectedMinutes)
	assert.Zero(t, fri.MembersOnLeave)

	assert.True(t, sat.Weekend)
	assert.Equal(t, 60, sat.ActualMinutes)
	assert.Zero(t, sat.ExpectedMinutes)
	assert.Zero(t, sat.CompletionRate)

	assert.True(t, sun.Weekend)
	assert.Zero(t, sun.ActualMinutes)

	assert.Equal(t, 1, mon.MembersOnLeave)
	assert.Equal(t, 360, mon.ExpectedMinutes)
	assert.InDelta(t, 100.0, mon.CompletionRate, 1e-9)
	assert.Equal(t, analytics.BandExceeded, mon.Band)

	assert.Equal(t, 1020, cal.Totals.ActualMinutes)
	assert.Equal(t, 1200, cal.Totals.ExpectedMinutes)
	assert.InDelta(t, 85.0, cal.Totals.CompletionRate, 1e-9)
	assert.Equal(t, analytics.BandOnTrack, cal.Totals.Band)
}

func TestDepartmentCalendar_NoMembers(t *testing.T) {
	p, _ := analytics.NewPeriod(date(2024, 3, 4), date(2024, 3, 8))
	cal := analytics.DepartmentCalendar(nil, nil, nil, p)

	assert.Len(t, cal.Days, 5)
	assert.Zero(t, cal.Totals.ExpectedMinutes)
	assert.Zero(t, cal.Totals.CompletionRate)
}

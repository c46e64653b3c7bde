package timesheet_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/timesheet"
)

func candidate(userID uuid.UUID, start, end string) timesheet.Candidate {
	return timesheet.Candidate{
		UserID:       userID,
		EntryDate:    "2024-03-05",
		StartTime:    start,
		EndTime:      end,
		ActivityType: "class",
		Status:       domain.EntryStatusSubmitted,
	}
}

func validationError(t *testing.T, err error) *timesheet.ValidationError {
	t.Helper()
	var verr *timesheet.ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr
}

func TestValidate_NormalizesEntry(t *testing.T) {
	userID := uuid.New()
	c := candidate(userID, "9:00", "10:30")
	c.ActivityType = "  Class "
	subtype := "  lab  "
	c.ActivitySubtype = &subtype
	empty := "   "
	c.Notes = &empty

	got, err := timesheet.NewValidator().Validate(c, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "09:00", got.StartTime)
	assert.Equal(t, "10:30", got.EndTime)
	assert.Equal(t, 90, got.DurationMinutes)
	assert.Equal(t, "class", got.ActivityType)
	assert.Equal(t, "lab", *got.ActivitySubtype)
	assert.Nil(t, got.Notes)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, day, got.EntryDate)
}

func TestValidate_EqualTimesRejected(t *testing.T) {
	_, err := timesheet.NewValidator().Validate(candidate(uuid.New(), "09:00", "09:00"), nil, nil)

	verr := validationError(t, err)
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, "end_time", verr.Errors[0].Field)
	assert.Contains(t, verr.Errors[0].Message, "must be after")
}

func TestValidate_EndBeforeStartRejected(t *testing.T) {
	_, err := timesheet.NewValidator().Validate(candidate(uuid.New(), "17:00", "08:00"), nil, nil)
	verr := validationError(t, err)
	assert.Contains(t, verr.Error(), "must be after")
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	c := timesheet.Candidate{
		UserID:       uuid.New(),
		EntryDate:    "",
		StartTime:    "25:00",
		EndTime:      "",
		ActivityType: "sleeping",
	}

	_, err := timesheet.NewValidator().Validate(c, nil, nil)
	verr := validationError(t, err)

	fields := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"entry_date", "end_time", "start_time", "activity_type"}, fields)
	assert.Equal(t, timesheet.KindField, verr.Kind())
}

func TestValidate_Overlap(t *testing.T) {
	userID := uuid.New()
	first := entry("09:00", "11:00", domain.EntryStatusSubmitted)
	first.UserID = userID

	_, err := timesheet.NewValidator().Validate(candidate(userID, "10:30", "12:00"), []domain.TimesheetEntry{first}, nil)
	verr := validationError(t, err)
	assert.Equal(t, timesheet.KindOverlap, verr.Kind())
	assert.Contains(t, verr.Error(), "09:00-11:00")
}

func TestValidate_OverlapIgnoresOtherUsersAndSelf(t *testing.T) {
	userID := uuid.New()
	someoneElse := entry("09:00", "11:00", domain.EntryStatusApproved)
	someoneElse.UserID = uuid.New()
	self := entry("09:00", "11:00", domain.EntryStatusDraft)
	self.UserID = userID

	c := candidate(userID, "09:30", "10:30")
	c.ID = &self.ID

	got, err := timesheet.NewValidator().Validate(c, []domain.TimesheetEntry{someoneElse, self}, nil)
	require.NoError(t, err)
	assert.Equal(t, self.ID, got.ID)
}

func TestValidate_LeaveDay(t *testing.T) {
	userID := uuid.New()
	leave := []domain.LeaveDay{{UserID: userID, LeaveDate: day, LeaveType: domain.LeaveTypeSick}}

	_, err := timesheet.NewValidator().Validate(candidate(userID, "09:00", "10:00"), nil, leave)
	verr := validationError(t, err)
	assert.Equal(t, timesheet.KindLeaveDay, verr.Kind())
	assert.True(t, verr.Has(timesheet.KindLeaveDay))
}

func TestValidate_LeaveDayOfAnotherUserIgnored(t *testing.T) {
	leave := []domain.LeaveDay{{UserID: uuid.New(), LeaveDate: day}}
	_, err := timesheet.NewValidator().Validate(candidate(uuid.New(), "09:00", "10:00"), nil, leave)
	assert.NoError(t, err)
}

func TestValidate_Categories(t *testing.T) {
	v := timesheet.NewValidator(timesheet.WithCategories([]string{"LECTURE", "Lab"}))

	c := candidate(uuid.New(), "09:00", "10:00")
	c.ActivityType = "lab"
	_, err := v.Validate(c, nil, nil)
	require.NoError(t, err)

	c.ActivityType = "class"
	_, err = v.Validate(c, nil, nil)
	assert.Error(t, err)
}

func TestValidate_SubmissionWindow(t *testing.T) {
	today := day.AddDate(0, 0, 10)
	v := timesheet.NewValidator(timesheet.WithSubmissionWindow(7, today))

	_, err := v.Validate(candidate(uuid.New(), "09:00", "10:00"), nil, nil)
	verr := validationError(t, err)
	assert.Equal(t, "entry_date", verr.Errors[0].Field)

	v = timesheet.NewValidator(timesheet.WithSubmissionWindow(14, today))
	_, err = v.Validate(candidate(uuid.New(), "09:00", "10:00"), nil, nil)
	assert.NoError(t, err)
}

func TestParseRange(t *testing.T) {
	r, errs := timesheet.ParseRange("8:15", "9:45")
	require.Empty(t, errs)
	assert.Equal(t, 90, r.Duration())
	assert.Equal(t, "08:15", r.StartText)

	_, errs = timesheet.ParseRange("x", "y")
	assert.Len(t, errs, 2)
}

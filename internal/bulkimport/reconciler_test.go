package bulkimport_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/bulkimport"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/timesheet"
)

var (
	alice = domain.User{ID: uuid.New(), Email: "Alice@Example.edu", IsActive: true}
	bob   = domain.User{ID: uuid.New(), Email: "bob@example.edu", IsActive: true}
	eve   = domain.User{ID: uuid.New(), Email: "eve@example.edu", IsActive: false}
)

func references() bulkimport.References {
	return bulkimport.NewReferences(
		[]domain.User{alice, bob, eve},
		[]domain.Department{{ID: uuid.New(), Code: "math"}, {ID: uuid.New(), Code: "PHY"}},
		[]domain.Program{{ID: uuid.New(), Code: "BSC"}},
	)
}

func adminActor() bulkimport.Actor {
	return bulkimport.Actor{Mode: bulkimport.ModeAdmin, UserID: uuid.New(), Status: domain.EntryStatusSubmitted}
}

func row(n int, fields map[string]string) domain.BulkImportRow {
	base := map[string]string{
		"email":           "alice@example.edu",
		"entry_date":      "2024-03-05",
		"start_time":      "09:00",
		"end_time":        "10:00",
		"activity_type":   "class",
		"department_code": "MATH",
	}
	for k, v := range fields {
		base[k] = v
	}
	return domain.BulkImportRow{Number: n, Fields: base}
}

func TestReconcile_AdmitsValidRows(t *testing.T) {
	batch := bulkimport.Batch{Rows: []domain.BulkImportRow{
		row(1, nil),
		row(2, map[string]string{"email": "BOB@example.edu", "entry_date": "05/03/2024", "start_time": "9:30", "end_time": "11:0", "program_code": "bsc"}),
	}}

	result, err := bulkimport.Reconcile(batch, references(), adminActor(), bulkimport.DefaultLimits())
	require.NoError(t, err)
	require.Empty(t, result.Rejected)
	require.Len(t, result.Admitted, 2)

	first := result.Admitted[0]
	assert.Equal(t, alice.ID, first.UserID)
	assert.Equal(t, domain.EntryStatusSubmitted, first.Status)
	assert.Equal(t, domain.SourceBulkUpload, *first.Source)
	assert.Equal(t, "MATH", *first.DepartmentCode)
	assert.Nil(t, first.ProgramID)

	second := result.Admitted[1]
	assert.Equal(t, bob.ID, second.UserID)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), second.EntryDate)
	assert.Equal(t, "09:30", second.StartTime)
	assert.Equal(t, "11:00", second.EndTime)
	assert.Equal(t, 90, second.DurationMinutes)
	assert.NotNil(t, second.ProgramID)
}

func TestReconcile_MissingDepartmentRejectsOnlyThatRow(t *testing.T) {
	batch := bulkimport.Batch{Rows: []domain.BulkImportRow{
		row(1, nil),
		row(2, map[string]string{"department_code": "", "start_time": "10:00", "end_time": "11:00"}),
		row(3, map[string]string{"start_time": "11:00", "end_time": "12:00"}),
	}}

	result, err := bulkimport.Reconcile(batch, references(), adminActor(), bulkimport.DefaultLimits())
	require.NoError(t, err)

	assert.Len(t, result.Admitted, 2)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 2, result.Rejected[0].Row.Number)
	assert.Contains(t, result.Rejected[0].Errors, "Missing department_code")
}

func TestReconcile_AccumulatesRowErrors(t *testing.T) {
	batch := bulkimport.Batch{Rows: []domain.BulkImportRow{
		row(1, map[string]string{
			"email":           "nobody@example.edu",
			"entry_date":      "2024/03/05",
			"start_time":      "10:00",
			"end_time":        "09:00",
			"activity_type":   "lunch",
			"department_code": "CHEM",
		}),
	}}

	result, err := bulkimport.Reconcile(batch, references(), adminActor(), bulkimport.DefaultLimits())
	require.NoError(t, err)
	require.Len(t, result.Rejected, 1)
	assert.Len(t, result.Rejected[0].Errors, 5)
}

func TestReconcile_InactiveUserIsUnknown(t *testing.T) {
	batch := bulkimport.Batch{Rows: []domain.BulkImportRow{row(1, map[string]string{"email": "eve@example.edu"})}}

	result, err := bulkimport.Reconcile(batch, references(), adminActor(), bulkimport.DefaultLimits())
	require.NoError(t, err)
	require.Len(t, result.Rejected, 1)
	assert.Contains(t, result.Rejected[0].Errors[0], "Unknown user email")
}

func TestReconcile_SelfModeIgnoresEmail(t *testing.T) {
	me := uuid.New()
	actor := bulkimport.Actor{Mode: bulkimport.ModeSelf, UserID: me}
	batch := bulkimport.Batch{Rows: []domain.BulkImportRow{row(1, map[string]string{"email": ""})}}

	result, err := bulkimport.Reconcile(batch, references(), actor, bulkimport.DefaultLimits())
	require.NoError(t, err)
	require.Len(t, result.Admitted, 1)
	assert.Equal(t, me, result.Admitted[0].UserID)
	assert.Equal(t, domain.EntryStatusDraft, result.Admitted[0].Status)
}

func TestReconcile_ColumnAliases(t *testing.T) {
	batch := bulkimport.Batch{Rows: []domain.BulkImportRow{{Number: 1, Fields: map[string]string{
		"User Email": "bob@example.edu",
		"Date":       "2024-03-05",
		"Start":      "08:00",
		"End":        "09:00",
		"Activity":   "Quiz",
		"Department": "phy",
	}}}}

	result, err := bulkimport.Reconcile(batch, references(), adminActor(), bulkimport.DefaultLimits())
	require.NoError(t, err)
	require.Len(t, result.Admitted, 1)
	assert.Equal(t, "quiz", result.Admitted[0].ActivityType)
}

func TestReconcile_OverlapsWithinFileAndStore(t *testing.T) {
	refs := references()
	refs.Existing = []domain.TimesheetEntry{{
		ID: uuid.New(), UserID: alice.ID, EntryDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		StartTime: "13:00", EndTime: "14:00", Status: domain.EntryStatusApproved,
	}}
	refs.LeaveDays = []domain.LeaveDay{{UserID: bob.ID, LeaveDate: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)}}

	batch := bulkimport.Batch{Rows: []domain.BulkImportRow{
		row(1, nil),
		row(2, map[string]string{"start_time": "09:30", "end_time": "10:30"}),
		row(3, map[string]string{"start_time": "13:30", "end_time": "15:00"}),
		row(4, map[string]string{"email": "bob@example.edu", "entry_date": "2024-03-06"}),
		row(5, map[string]string{"email": "bob@example.edu"}),
	}}

	result, err := bulkimport.Reconcile(batch, refs, adminActor(), bulkimport.DefaultLimits())
	require.NoError(t, err)

	rejected := make([]int, 0)
	for _, r := range result.Rejected {
		rejected = append(rejected, r.Row.Number)
	}
	assert.Equal(t, []int{2, 3, 4}, rejected)
	assert.Len(t, result.Admitted, 2)
}

func TestReconcile_Categories(t *testing.T) {
	actor := adminActor()
	actor.Validator = timesheet.NewValidator(timesheet.WithCategories([]string{"lecture"}))
	batch := bulkimport.Batch{Rows: []domain.BulkImportRow{
		row(1, map[string]string{"activity_type": "Lecture"}),
		row(2, map[string]string{"activity_type": "class", "start_time": "10:00", "end_time": "11:00"}),
	}}

	result, err := bulkimport.Reconcile(batch, references(), actor, bulkimport.DefaultLimits())
	require.NoError(t, err)
	assert.Len(t, result.Admitted, 1)
	assert.Len(t, result.Rejected, 1)
}

func TestReconcile_PartitionCoversEveryRow(t *testing.T) {
	rows := make([]domain.BulkImportRow, 0, 40)
	for i := 0; i < 40; i++ {
		fields := map[string]string{
			"start_time": fmt.Sprintf("%02d:00", i%20),
			"end_time":   fmt.Sprintf("%02d:30", i%20),
		}
		if i%3 == 0 {
			fields["activity_type"] = "unknown"
		}
		rows = append(rows, row(i+1, fields))
	}

	result, err := bulkimport.Reconcile(bulkimport.Batch{Rows: rows}, references(), adminActor(), bulkimport.DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, len(rows), len(result.Admitted)+len(result.Rejected))
}

func TestReconcile_Limits(t *testing.T) {
	limits := bulkimport.Limits{MaxRows: 2, MaxFileSize: 100}

	_, err := bulkimport.Reconcile(bulkimport.Batch{Rows: make([]domain.BulkImportRow, 3)}, references(), adminActor(), limits)
	assert.True(t, errors.Is(err, bulkimport.ErrTooManyRows))

	_, err = bulkimport.Reconcile(bulkimport.Batch{FileSize: 101}, references(), adminActor(), limits)
	assert.True(t, errors.Is(err, bulkimport.ErrFileTooLarge))
}

func TestReconcile_RejectsTerminalInitialStatus(t *testing.T) {
	actor := adminActor()
	actor.Status = domain.EntryStatusApproved

	_, err := bulkimport.Reconcile(bulkimport.Batch{}, references(), actor, bulkimport.DefaultLimits())
	assert.ErrorIs(t, err, timesheet.ErrInvalidTransition)
}

func TestParseImportDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-03-05", "05/03/2024", "5/3/2024", " 2024-03-05 "} {
		got, err := bulkimport.ParseImportDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}

	for _, s := range []string{"03-05-2024", "2024/03/05", "31/02/2024", ""} {
		_, err := bulkimport.ParseImportDate(s)
		assert.Error(t, err, s)
	}
}

func TestLimitsCheckIgnoresNonPositive(t *testing.T) {
	assert.NoError(t, bulkimport.Limits{}.Check(1_000_000, 1<<40))
	assert.NoError(t, bulkimport.DefaultLimits().Check(1000, 5<<20))
	assert.ErrorIs(t, bulkimport.DefaultLimits().Check(1001, 0), bulkimport.ErrTooManyRows)
}

func TestDateRange(t *testing.T) {
	rows := []domain.BulkImportRow{
		row(1, map[string]string{"entry_date": "2024-03-05"}),
		row(2, map[string]string{"entry_date": "not a date"}),
		row(3, map[string]string{"entry_date": "1/3/2024"}),
		{Number: 4, Fields: map[string]string{"Date": "2024-03-20"}},
	}

	from, to, ok := bulkimport.DateRange(rows)
	require.True(t, ok)
	assert.Equal(t, "2024-03-01", from.Format(time.DateOnly))
	assert.Equal(t, "2024-03-20", to.Format(time.DateOnly))

	_, _, ok = bulkimport.DateRange([]domain.BulkImportRow{row(1, map[string]string{"entry_date": ""})})
	assert.False(t, ok)
}

func TestReconcile_CanonicalColumnWinsOverAlias(t *testing.T) {
	rows := []domain.BulkImportRow{row(1, map[string]string{"date": "bogus"})}

	// 结果不能依赖 map 的遍历顺序
	for i := 0; i < 50; i++ {
		result, err := bulkimport.Reconcile(bulkimport.Batch{Rows: rows}, references(), adminActor(), bulkimport.DefaultLimits())
		require.NoError(t, err)
		require.Len(t, result.Admitted, 1)
		assert.Equal(t, "2024-03-05", result.Admitted[0].EntryDate.Format(time.DateOnly))
	}

	// 规范列为空时使用别名的值
	rows = []domain.BulkImportRow{row(1, map[string]string{"entry_date": "", "date": "2024-03-06"})}
	result, err := bulkimport.Reconcile(bulkimport.Batch{Rows: rows}, references(), adminActor(), bulkimport.DefaultLimits())
	require.NoError(t, err)
	require.Len(t, result.Admitted, 1)
	assert.Equal(t, "2024-03-06", result.Admitted[0].EntryDate.Format(time.DateOnly))
}

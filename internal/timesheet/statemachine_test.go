package timesheet_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/timesheet"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		from   domain.EntryStatus
		action timesheet.Action
		to     domain.EntryStatus
		ok     bool
	}{
		{domain.EntryStatusDraft, timesheet.ActionEdit, domain.EntryStatusDraft, true},
		{domain.EntryStatusDraft, timesheet.ActionSubmit, domain.EntryStatusSubmitted, true},
		{domain.EntryStatusDraft, timesheet.ActionApprove, "", false},
		{domain.EntryStatusSubmitted, timesheet.ActionEdit, domain.EntryStatusSubmitted, true},
		{domain.EntryStatusSubmitted, timesheet.ActionSubmit, "", false},
		{domain.EntryStatusSubmitted, timesheet.ActionApprove, domain.EntryStatusApproved, true},
		{domain.EntryStatusSubmitted, timesheet.ActionReject, domain.EntryStatusRejected, true},
		{domain.EntryStatusApproved, timesheet.ActionEdit, "", false},
		{domain.EntryStatusApproved, timesheet.ActionReject, "", false},
		{domain.EntryStatusRejected, timesheet.ActionEdit, "", false},
		{domain.EntryStatusRejected, timesheet.ActionApprove, "", false},
	}

	for _, c := range cases {
		to, err := timesheet.Transition(c.from, c.action)
		if c.ok {
			require.NoError(t, err, "%s/%s", c.from, c.action)
			assert.Equal(t, c.to, to)
		} else {
			assert.ErrorIs(t, err, timesheet.ErrInvalidTransition, "%s/%s", c.from, c.action)
		}
	}
}

func TestInitialStatus(t *testing.T) {
	s, err := timesheet.InitialStatus("")
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusDraft, s)

	s, err = timesheet.InitialStatus(domain.EntryStatusSubmitted)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusSubmitted, s)

	_, err = timesheet.InitialStatus(domain.EntryStatusApproved)
	assert.ErrorIs(t, err, timesheet.ErrInvalidTransition)
}

func TestEditAndSubmit(t *testing.T) {
	owner := uuid.New()
	e := &domain.TimesheetEntry{UserID: owner, Status: domain.EntryStatusDraft}

	assert.ErrorIs(t, timesheet.Edit(e, uuid.New()), timesheet.ErrNotOwner)
	assert.NoError(t, timesheet.Edit(e, owner))

	assert.ErrorIs(t, timesheet.Submit(e, uuid.New()), timesheet.ErrNotOwner)
	require.NoError(t, timesheet.Submit(e, owner))
	assert.Equal(t, domain.EntryStatusSubmitted, e.Status)

	e.Status = domain.EntryStatusApproved
	assert.ErrorIs(t, timesheet.Edit(e, owner), timesheet.ErrInvalidTransition)
}

func TestReview(t *testing.T) {
	manager := timesheet.Reviewer{ID: uuid.New(), Role: domain.RoleManager}

	t.Run("approve without notes", func(t *testing.T) {
		e := &domain.TimesheetEntry{UserID: uuid.New(), Status: domain.EntryStatusSubmitted}
		require.NoError(t, timesheet.Review(e, domain.RoleMember, manager, timesheet.ActionApprove, "", nil))
		assert.Equal(t, domain.EntryStatusApproved, e.Status)
		assert.Equal(t, manager.ID, *e.ApproverID)
		assert.Nil(t, e.ApproverNotes)
	})

	t.Run("reject requires notes", func(t *testing.T) {
		e := &domain.TimesheetEntry{UserID: uuid.New(), Status: domain.EntryStatusSubmitted}
		err := timesheet.Review(e, domain.RoleMember, manager, timesheet.ActionReject, "   ", nil)
		assert.ErrorIs(t, err, timesheet.ErrRejectionReasonRequired)
		assert.Equal(t, domain.EntryStatusSubmitted, e.Status)

		require.NoError(t, timesheet.Review(e, domain.RoleMember, manager, timesheet.ActionReject, "wrong date", nil))
		assert.Equal(t, domain.EntryStatusRejected, e.Status)
		assert.Equal(t, "wrong date", *e.ApproverNotes)
	})

	t.Run("approving a draft is an invalid transition", func(t *testing.T) {
		e := &domain.TimesheetEntry{UserID: uuid.New(), Status: domain.EntryStatusDraft}
		err := timesheet.Review(e, domain.RoleMember, manager, timesheet.ActionApprove, "", nil)
		assert.ErrorIs(t, err, timesheet.ErrInvalidTransition)
	})

	t.Run("terminal states stay terminal", func(t *testing.T) {
		e := &domain.TimesheetEntry{UserID: uuid.New(), Status: domain.EntryStatusApproved}
		err := timesheet.Review(e, domain.RoleMember, manager, timesheet.ActionReject, "late", nil)
		assert.ErrorIs(t, err, timesheet.ErrInvalidTransition)
	})

	t.Run("wrong approver", func(t *testing.T) {
		e := &domain.TimesheetEntry{UserID: uuid.New(), Status: domain.EntryStatusSubmitted}
		// 默认配置下经理的记录由 org_admin 审批
		err := timesheet.Review(e, domain.RoleManager, manager, timesheet.ActionApprove, "", nil)
		assert.ErrorIs(t, err, timesheet.ErrNotAuthorized)

		admin := timesheet.Reviewer{ID: uuid.New(), Role: domain.RoleOrgAdmin}
		err = timesheet.Review(e, domain.RoleMember, admin, timesheet.ActionApprove, "", nil)
		assert.ErrorIs(t, err, timesheet.ErrNotAuthorized)
	})

	t.Run("cannot review own entry", func(t *testing.T) {
		e := &domain.TimesheetEntry{UserID: manager.ID, Status: domain.EntryStatusSubmitted}
		err := timesheet.Review(e, domain.RoleMember, manager, timesheet.ActionApprove, "", nil)
		assert.ErrorIs(t, err, timesheet.ErrNotAuthorized)
	})
}

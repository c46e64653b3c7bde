package timesheet

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/approval"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

type Action string

const (
	ActionEdit    Action = "edit"
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// transitions 是整个生命周期的唯一定义，approved 和 rejected 没有出边
var transitions = map[domain.EntryStatus]map[Action]domain.EntryStatus{
	domain.EntryStatusDraft: {
		ActionEdit:   domain.EntryStatusDraft,
		ActionSubmit: domain.EntryStatusSubmitted,
	},
	domain.EntryStatusSubmitted: {
		ActionEdit:    domain.EntryStatusSubmitted,
		ActionApprove: domain.EntryStatusApproved,
		ActionReject:  domain.EntryStatusRejected,
	},
}

func Transition(from domain.EntryStatus, action Action) (domain.EntryStatus, error) {
	to, ok := transitions[from][action]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s an entry that is %s", ErrInvalidTransition, action, from)
	}
	return to, nil
}

// InitialStatus 校验创建时的状态，空值视为草稿
func InitialStatus(status domain.EntryStatus) (domain.EntryStatus, error) {
	switch status {
	case "":
		return domain.EntryStatusDraft, nil
	case domain.EntryStatusDraft, domain.EntryStatusSubmitted:
		return status, nil
	default:
		return "", fmt.Errorf("%w: entries cannot be created as %s", ErrInvalidTransition, status)
	}
}

// Edit 检查 actor 能否修改该记录，只有本人且记录尚未被审批时允许
func Edit(entry *domain.TimesheetEntry, actorID uuid.UUID) error {
	if _, err := Transition(entry.Status, ActionEdit); err != nil {
		return err
	}
	if entry.UserID != actorID {
		return ErrNotOwner
	}
	return nil
}

// Submit 把草稿改为已提交，调用方需要在此之前重新执行 Validate
func Submit(entry *domain.TimesheetEntry, actorID uuid.UUID) error {
	to, err := Transition(entry.Status, ActionSubmit)
	if err != nil {
		return err
	}
	if entry.UserID != actorID {
		return ErrNotOwner
	}
	entry.Status = to
	return nil
}

type Reviewer struct {
	ID   uuid.UUID
	Role domain.Role
}

// Review 执行审批或驳回。ownerRole 是记录所有者的角色，settings 为 nil 时使用默认审批链。
func Review(entry *domain.TimesheetEntry, ownerRole domain.Role, reviewer Reviewer, action Action, notes string, settings *domain.ApprovalSettings) error {
	if action != ActionApprove && action != ActionReject {
		return fmt.Errorf("%w: %s is not a review action", ErrInvalidTransition, action)
	}

	to, err := Transition(entry.Status, action)
	if err != nil {
		return err
	}

	if reviewer.ID == entry.UserID || !approval.CanApprove(reviewer.Role, ownerRole, settings) {
		return ErrNotAuthorized
	}

	notes = strings.TrimSpace(notes)
	if action == ActionReject && notes == "" {
		return ErrRejectionReasonRequired
	}

	entry.Status = to
	entry.ApproverID = &reviewer.ID
	if notes != "" {
		entry.ApproverNotes = &notes
	} else {
		entry.ApproverNotes = nil
	}
	return nil
}

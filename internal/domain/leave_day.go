package domain

import (
	"time"

	"github.com/google/uuid"
)

type LeaveType string

const (
	LeaveTypeCasual  LeaveType = "casual"
	LeaveTypeSick    LeaveType = "sick"
	LeaveTypeEarned  LeaveType = "earned"
	LeaveTypeHalfDay LeaveType = "half_day"
	LeaveTypeCompOff LeaveType = "comp_off"
	LeaveTypeOther   LeaveType = "other"
)

type LeaveDay struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userID"`
	LeaveDate time.Time `json:"leaveDate"`
	LeaveType LeaveType `json:"leaveType"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

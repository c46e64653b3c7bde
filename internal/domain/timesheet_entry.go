package domain

import (
	"time"

	"github.com/google/uuid"
)

type EntryStatus string

const (
	EntryStatusDraft     EntryStatus = "draft"
	EntryStatusSubmitted EntryStatus = "submitted"
	EntryStatusApproved  EntryStatus = "approved"
	EntryStatusRejected  EntryStatus = "rejected"
)

var DefaultActivityTypes = []string{"class", "quiz", "invigilation", "admin", "other"}

const SourceBulkUpload = "bulk_upload"

type TimesheetEntry struct {
	ID              uuid.UUID   `json:"id"`
	UserID          uuid.UUID   `json:"userID"`
	EntryDate       time.Time   `json:"entryDate"`
	StartTime       string      `json:"startTime"` // HH:MM
	EndTime         string      `json:"endTime"`   // HH:MM
	DurationMinutes int         `json:"durationMinutes"`
	ActivityType    string      `json:"activityType"`
	ActivitySubtype *string     `json:"activitySubtype"`
	Notes           *string     `json:"notes"`
	Status          EntryStatus `json:"status"`
	ApproverID      *uuid.UUID  `json:"approverID"`
	ApproverNotes   *string     `json:"approverNotes"`
	DepartmentCode  *string     `json:"departmentCode"`
	ProgramID       *uuid.UUID  `json:"programID"`
	Source          *string     `json:"source"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
	Version         int32       `json:"-"`
}

// Counted 表示该条目是否计入完成度，草稿和被驳回的不计
func (e *TimesheetEntry) Counted() bool {
	return e.Status == EntryStatusSubmitted || e.Status == EntryStatusApproved
}

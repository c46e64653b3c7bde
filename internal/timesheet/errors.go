package timesheet

import (
	"errors"
	"strings"
)

type ErrorKind string

const (
	KindField    ErrorKind = "field"
	KindLeaveDay ErrorKind = "leave_day"
	KindOverlap  ErrorKind = "overlap"
)

type FieldError struct {
	Field   string    `json:"field"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"kind"`
}

// ValidationError 汇总一次校验中的全部错误，调用方可以一次性展示
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages(), "; ")
}

func (e *ValidationError) Messages() []string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return msgs
}

func (e *ValidationError) Has(kind ErrorKind) bool {
	for _, fe := range e.Errors {
		if fe.Kind == kind {
			return true
		}
	}
	return false
}

// Kind 返回最需要阻断用户的那一类错误：请假 > 时间冲突 > 普通字段错误
func (e *ValidationError) Kind() ErrorKind {
	switch {
	case e.Has(KindLeaveDay):
		return KindLeaveDay
	case e.Has(KindOverlap):
		return KindOverlap
	default:
		return KindField
	}
}

var (
	ErrInvalidTransition       = errors.New("invalid state transition")
	ErrNotOwner                = errors.New("only the owner can modify this entry")
	ErrNotAuthorized           = errors.New("not authorized to review this entry")
	ErrRejectionReasonRequired = errors.New("a reason is required to reject an entry")
)

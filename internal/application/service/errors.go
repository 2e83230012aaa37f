package service

import (
	"errors"
	"strings"

	"github.com/garyjia/field-expense/internal/expense"
)

var (
	// ErrExpenseNotFound is returned when no expense has the requested ID
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrEntryWindowClosed is returned when an expense is submitted before the daily start hour
	ErrEntryWindowClosed = errors.New("expense entry window is closed")

	// ErrInvalidSettings is returned when a settings update is out of range
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrInvalidImageKind is returned for uploads that are neither odometer nor bill photos
	ErrInvalidImageKind = errors.New("invalid image kind")

	// ErrSelfApproval is returned when a manager acts on their own expense
	ErrSelfApproval = errors.New("cannot decide on own expense")
)

// SubmissionError carries every blocking issue that stopped a submission
type SubmissionError struct {
	Issues []expense.Issue
}

func (e *SubmissionError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		msgs = append(msgs, issue.Message)
	}
	return "submission rejected: " + strings.Join(msgs, "; ")
}

// Messages returns the user-facing message of every issue
func (e *SubmissionError) Messages() []string {
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		msgs = append(msgs, issue.Message)
	}
	return msgs
}

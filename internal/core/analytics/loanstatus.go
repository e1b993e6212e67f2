package analytics

import "time"

// StatusKey is the fixed, machine-facing loan state.
type StatusKey string

const (
	StatusReturned StatusKey = "returned"
	StatusOverdue  StatusKey = "overdue"
	StatusActive   StatusKey = "active"
)

// StatusMeta pairs the loan state with its display label. Only Label is
// influenced by StatusOptions.
type StatusMeta struct {
	Key   StatusKey `json:"key"`
	Label string    `json:"label"`
}

// StatusOptions configures ResolveLoanStatusMeta.
type StatusOptions struct {
	Now         time.Time
	ActiveLabel string
}

// ResolveLoanStatusMeta classifies a loan relative to opts.Now.
// A returned loan is "returned" even if it came back late.
func ResolveLoanStatusMeta(loan LoanRecord, opts StatusOptions) StatusMeta {
	if _, ok := CoerceDate(loan.ReturnedAt); ok {
		return StatusMeta{Key: StatusReturned, Label: string(StatusReturned)}
	}

	now := resolveNow(opts.Now)
	if due, ok := CoerceDate(loan.DueAt); ok && due.Before(now) {
		return StatusMeta{Key: StatusOverdue, Label: string(StatusOverdue)}
	}

	label := opts.ActiveLabel
	if label == "" {
		label = DefaultActiveLabel
	}
	return StatusMeta{Key: StatusActive, Label: label}
}

// IsOverdue reports whether the loan is unreturned and past due at now.
func IsOverdue(loan LoanRecord, now time.Time) bool {
	return ResolveLoanStatusMeta(loan, StatusOptions{Now: now}).Key == StatusOverdue
}

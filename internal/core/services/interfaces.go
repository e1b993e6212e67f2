package services

import (
	"context"

	"libradesk/internal/core/analytics"
)

// Note: concrete services live in their own files; the interfaces here are
// the seams the HTTP layer and scheduler depend on.

// ReportReader is what the report endpoints need
type ReportReader interface {
	TopBorrowers(ctx context.Context, q ReportQuery) (*analytics.TopBorrowersReport, error)
	GenreTrends(ctx context.Context, q ReportQuery) (*analytics.GenreTrendsReport, error)
	Underutilized(ctx context.Context, q ReportQuery) (*analytics.UnderutilizedReport, error)
	Fines(ctx context.Context, q ReportQuery) (*analytics.FinesReport, error)
	Usage(ctx context.Context, q ReportQuery) (*UsageReport, error)
	Staffing(ctx context.Context, q ReportQuery) (*analytics.StaffingReport, error)
	Summary(ctx context.Context, q ReportQuery) (*Summary, error)
}

var (
	_ ReportReader  = (*ReportService)(nil)
	_ OverdueSource = (*ReportService)(nil)
	_ TokenCleaner  = (*AuthService)(nil)
	_ Notifier      = (*NotificationService)(nil)
)

package services

import (
	"context"
	"time"

	"libradesk/internal/adapters/persistence/models"
	"libradesk/internal/adapters/persistence/repositories"
	"libradesk/internal/config"
	"libradesk/internal/core/analytics"

	"github.com/rs/zerolog/log"
)

// ReportService loads snapshots from the repositories and hands them to the
// analytics package. Every report is computed against one instant.
type ReportService struct {
	bookRepo  repositories.BookRepository
	loanRepo  repositories.LoanRepository
	visitRepo repositories.VisitRepository
	userRepo  repositories.UserRepository
	cfg       config.LibraryConfig
	now       Clock
}

// NewReportService creates a new report service
func NewReportService(
	bookRepo repositories.BookRepository,
	loanRepo repositories.LoanRepository,
	visitRepo repositories.VisitRepository,
	userRepo repositories.UserRepository,
	cfg config.LibraryConfig,
) *ReportService {
	return &ReportService{
		bookRepo:  bookRepo,
		loanRepo:  loanRepo,
		visitRepo: visitRepo,
		userRepo:  userRepo,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithClock replaces the wall clock
func (s *ReportService) WithClock(c Clock) *ReportService {
	s.now = c
	return s
}

// ReportQuery holds the common report parameters. Zero values take the
// configured defaults; a zero Now means the current instant.
type ReportQuery struct {
	Days       int
	Limit      int
	Branch     string
	MaxBorrows int
	Now        time.Time
}

func (s *ReportService) resolve(q ReportQuery) (time.Time, int) {
	now := q.Now
	if now.IsZero() {
		now = s.now()
	}
	days := q.Days
	if days <= 0 {
		days = s.cfg.LookbackDays
	}
	if days <= 0 {
		days = analytics.DefaultLookbackDays
	}
	return now, days
}

func since(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

// TopBorrowers ranks members by loans started in the window
func (s *ReportService) TopBorrowers(ctx context.Context, q ReportQuery) (*analytics.TopBorrowersReport, error) {
	now, days := s.resolve(q)
	loans, err := s.loanRepo.BorrowedSince(ctx, since(now, days))
	if err != nil {
		return nil, err
	}

	report := analytics.TopBorrowers(loanRecords(loans), analytics.TopBorrowersOptions{
		Now:          now,
		LookbackDays: days,
		Limit:        q.Limit,
	})
	return &report, nil
}

// GenreTrends compares the window with the one before it
func (s *ReportService) GenreTrends(ctx context.Context, q ReportQuery) (*analytics.GenreTrendsReport, error) {
	now, days := s.resolve(q)
	loans, err := s.loanRepo.BorrowedSince(ctx, since(now, 2*days))
	if err != nil {
		return nil, err
	}
	books, err := s.bookRepo.All(ctx)
	if err != nil {
		return nil, err
	}

	report := analytics.GenreTrends(loanRecords(loans), bookRecords(books), analytics.GenreTrendOptions{
		Now:        now,
		WindowDays: days,
		Limit:      q.Limit,
	})
	return &report, nil
}

// Underutilized lists books borrowed at most MaxBorrows times in the window
func (s *ReportService) Underutilized(ctx context.Context, q ReportQuery) (*analytics.UnderutilizedReport, error) {
	now, days := s.resolve(q)
	loans, err := s.loanRepo.All(ctx)
	if err != nil {
		return nil, err
	}
	books, err := s.bookRepo.All(ctx)
	if err != nil {
		return nil, err
	}

	report := analytics.UnderutilizedBooks(bookRecords(books), loanRecords(loans), analytics.UnderutilizedOptions{
		Now:          now,
		LookbackDays: days,
		MaxBorrows:   q.MaxBorrows,
		Limit:        q.Limit,
	})
	return &report, nil
}

// Fines prices every overdue loan at the configured daily rate
func (s *ReportService) Fines(ctx context.Context, q ReportQuery) (*analytics.FinesReport, error) {
	now, _ := s.resolve(q)
	loans, err := s.loanRepo.Overdue(ctx, now)
	if err != nil {
		return nil, err
	}

	books := make([]*models.Book, 0, len(loans))
	for _, loan := range loans {
		if loan.Book != nil {
			books = append(books, loan.Book)
		}
	}

	report := analytics.Fines(loanRecords(loans), bookRecords(books), analytics.FinesOptions{
		Now:        now,
		FinePerDay: s.finePerDay(),
	})
	return &report, nil
}

// UsageReport is the dense hourly and daily visit histogram
type UsageReport struct {
	LookbackDays int                    `json:"lookbackDays"`
	Branch       string                 `json:"branch,omitempty"`
	Timezone     string                 `json:"timezone"`
	Total        int                    `json:"total"`
	Hourly       []analytics.HourBucket `json:"hourly"`
	Daily        []analytics.DayBucket  `json:"daily"`
}

// Usage buckets gate visits by hour and weekday
func (s *ReportService) Usage(ctx context.Context, q ReportQuery) (*UsageReport, error) {
	now, days := s.resolve(q)
	usage, err := s.usage(ctx, now, days, q.Branch)
	if err != nil {
		return nil, err
	}

	return &UsageReport{
		LookbackDays: days,
		Branch:       q.Branch,
		Timezone:     s.location().String(),
		Total:        usage.Total,
		Hourly:       analytics.DenseHourly(usage.Hourly),
		Daily:        analytics.DenseDaily(usage.Daily),
	}, nil
}

// Staffing turns visit patterns into staffing recommendations
func (s *ReportService) Staffing(ctx context.Context, q ReportQuery) (*analytics.StaffingReport, error) {
	now, days := s.resolve(q)
	usage, err := s.usage(ctx, now, days, q.Branch)
	if err != nil {
		return nil, err
	}

	report := analytics.BuildStaffingRecommendations(usage.Hourly, usage.Daily, analytics.StaffingOptions{
		LookbackDays:   days,
		VisitsPerStaff: s.cfg.VisitsPerStaff,
		TopN:           q.Limit,
	})
	return &report, nil
}

func (s *ReportService) usage(ctx context.Context, now time.Time, days int, branch string) (analytics.Usage, error) {
	visits, err := s.visitRepo.Since(ctx, since(now, days), branch)
	if err != nil {
		return analytics.Usage{}, err
	}

	records := make([]analytics.VisitRecord, len(visits))
	for i, v := range visits {
		records[i] = v.ToRecord()
	}

	return analytics.AggregateUsage(records, analytics.UsageOptions{
		Now:          now,
		LookbackDays: days,
		Branch:       branch,
		Location:     s.location(),
	}), nil
}

// Summary is the desk overview
type Summary struct {
	GeneratedAt      time.Time `json:"generatedAt"`
	LookbackDays     int       `json:"lookbackDays"`
	Books            int64     `json:"books"`
	Members          int64     `json:"members"`
	OpenLoans        int64     `json:"openLoans"`
	OverdueLoans     int       `json:"overdueLoans"`
	OutstandingFines float64   `json:"outstandingFines"`
	AverageFine      float64   `json:"averageFine"`
	BorrowsInWindow  int       `json:"borrowsInWindow"`
	ActiveBorrowers  int       `json:"activeBorrowers"`
	VisitsInWindow   int       `json:"visitsInWindow"`
}

// Summary gathers headline counts and fine totals
func (s *ReportService) Summary(ctx context.Context, q ReportQuery) (*Summary, error) {
	now, days := s.resolve(q)
	q.Now, q.Days = now, days
	out := &Summary{GeneratedAt: now, LookbackDays: days}

	var err error
	if out.Books, err = s.bookRepo.Count(ctx); err != nil {
		return nil, err
	}
	if out.Members, err = s.userRepo.Count(ctx); err != nil {
		return nil, err
	}
	if out.OpenLoans, err = s.loanRepo.CountOpen(ctx); err != nil {
		return nil, err
	}

	fines, err := s.Fines(ctx, q)
	if err != nil {
		return nil, err
	}
	out.OverdueLoans = fines.Totals.OverdueLoans
	out.OutstandingFines = fines.Totals.Outstanding
	out.AverageFine = fines.Totals.AverageFine

	borrowers, err := s.TopBorrowers(ctx, ReportQuery{Now: now, Days: days})
	if err != nil {
		return nil, err
	}
	out.BorrowsInWindow = borrowers.Totals.Borrows
	out.ActiveBorrowers = borrowers.Totals.Borrowers

	usage, err := s.usage(ctx, now, days, q.Branch)
	if err != nil {
		return nil, err
	}
	out.VisitsInWindow = usage.Total

	log.Debug().Time("now", now).Int("days", days).Msg("📊 Summary report built")
	return out, nil
}

// OverdueByBorrower groups the fines report per borrower for reminders
func (s *ReportService) OverdueByBorrower(ctx context.Context) (map[string][]analytics.FineRow, *analytics.FinesReport, error) {
	report, err := s.Fines(ctx, ReportQuery{})
	if err != nil {
		return nil, nil, err
	}
	grouped := make(map[string][]analytics.FineRow)
	for _, row := range report.Items {
		grouped[row.BorrowerID] = append(grouped[row.BorrowerID], row)
	}
	return grouped, report, nil
}

func (s *ReportService) finePerDay() float64 {
	if s.cfg.FinePerDay > 0 {
		return s.cfg.FinePerDay
	}
	return analytics.DefaultFinePerDay
}

func (s *ReportService) location() *time.Location {
	if s.cfg.Location != nil {
		return s.cfg.Location
	}
	return time.UTC
}

func loanRecords(loans []*models.Loan) []analytics.LoanRecord {
	out := make([]analytics.LoanRecord, len(loans))
	for i, l := range loans {
		out[i] = l.ToRecord()
	}
	return out
}

func bookRecords(books []*models.Book) []analytics.BookRecord {
	out := make([]analytics.BookRecord, len(books))
	for i, b := range books {
		out[i] = b.ToRecord()
	}
	return out
}

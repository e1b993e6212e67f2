package services

import (
	"context"
	"testing"
	"time"

	"libradesk/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedLibrary builds two borrowers, three books and a handful of loans and
// visits around deskNow (Wednesday 12:00 UTC)
func seedLibrary(s *memStore) {
	ada := s.addUser(&models.User{Username: "ada", FullName: "Ada Lovelace", IsActive: true})
	grace := s.addUser(&models.User{Username: "grace", FullName: "Grace Hopper", IsActive: true})

	dune := s.addBook(&models.Book{ISBN: "9780441013593", Title: "Dune", Genre: "Fantasy", CopiesTotal: 2, CopiesAvailable: 1})
	sicp := s.addBook(&models.Book{ISBN: "9780262510875", Title: "SICP", Genre: "Science", CopiesTotal: 1, CopiesAvailable: 0})
	s.addBook(&models.Book{ISBN: "9780306406157", Title: "Atlas", Genre: "Geography", CopiesTotal: 1, CopiesAvailable: 1})

	returned := deskNow.AddDate(0, 0, -4)
	// ada: one overdue loan (10 days late), one returned
	s.addLoan(&models.Loan{UserID: ada.ID, BookID: sicp.ID, BorrowedAt: deskNow.AddDate(0, 0, -24), DueAt: deskNow.AddDate(0, 0, -10)})
	s.addLoan(&models.Loan{UserID: ada.ID, BookID: dune.ID, BorrowedAt: deskNow.AddDate(0, 0, -20), DueAt: deskNow.AddDate(0, 0, -6), ReturnedAt: &returned})
	// grace: one overdue loan (2 days late)
	s.addLoan(&models.Loan{UserID: grace.ID, BookID: dune.ID, BorrowedAt: deskNow.AddDate(0, 0, -16), DueAt: deskNow.AddDate(0, 0, -2)})

	for i := 0; i < 3; i++ {
		s.addVisit(&models.Visit{VisitorKind: "badge", VisitorRef: "B", Branch: "Main", EnteredAt: deskNow.Add(-time.Duration(i) * time.Hour * 24).Add(-2 * time.Hour)})
	}
	s.addVisit(&models.Visit{VisitorKind: "badge", VisitorRef: "C", Branch: "East", EnteredAt: deskNow.Add(-time.Hour)})
}

func newReportFixture() *ReportService {
	s := newMemStore()
	seedLibrary(s)
	return NewReportService(fakeBookRepo{s}, fakeLoanRepo{s}, fakeVisitRepo{s}, fakeUserRepo{s}, testConfig().Library).
		WithClock(fixedClock())
}

func TestReport_TopBorrowers(t *testing.T) {
	svc := newReportFixture()

	report, err := svc.TopBorrowers(context.Background(), ReportQuery{Days: 30})
	require.NoError(t, err)
	require.Len(t, report.Items, 2)
	assert.Equal(t, "Ada Lovelace", report.Items[0].Name)
	assert.Equal(t, 2, report.Items[0].BorrowCount)
	assert.Equal(t, 1, report.Items[0].OverdueLoans)
	assert.Equal(t, "Grace Hopper", report.Items[1].Name)
	assert.Equal(t, 3, report.Totals.Borrows)
	assert.Equal(t, 2, report.Totals.OverdueLoans)

	narrow, err := svc.TopBorrowers(context.Background(), ReportQuery{Days: 17})
	require.NoError(t, err)
	assert.Equal(t, 1, narrow.Totals.Borrows)
}

func TestReport_Fines(t *testing.T) {
	svc := newReportFixture()

	report, err := svc.Fines(context.Background(), ReportQuery{})
	require.NoError(t, err)
	require.Len(t, report.Items, 2)
	assert.Equal(t, 1.0, report.FinePerDay)
	assert.Equal(t, 12.0, report.Totals.Outstanding)
	assert.Equal(t, 2, report.Totals.OverdueLoans)
	assert.Equal(t, 6.0, report.Totals.AverageFine)

	titles := []string{report.Items[0].Title, report.Items[1].Title}
	assert.ElementsMatch(t, []string{"SICP", "Dune"}, titles)
}

func TestReport_FinesAtExplicitInstant(t *testing.T) {
	svc := newReportFixture()

	report, err := svc.Fines(context.Background(), ReportQuery{Now: deskNow.AddDate(0, 0, -5)})
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, "5", report.Items[0].DaysOverdue)
	assert.Equal(t, "5.00", report.Items[0].Fine)
}

func TestReport_OverdueByBorrower(t *testing.T) {
	svc := newReportFixture()

	grouped, report, err := svc.OverdueByBorrower(context.Background())
	require.NoError(t, err)
	assert.Len(t, grouped, 2)
	assert.Len(t, report.Items, 2)
	for id, rows := range grouped {
		for _, r := range rows {
			assert.Equal(t, id, r.BorrowerID)
		}
	}
}

func TestReport_UsageIsDense(t *testing.T) {
	svc := newReportFixture()

	usage, err := svc.Usage(context.Background(), ReportQuery{Days: 7})
	require.NoError(t, err)
	assert.Len(t, usage.Hourly, 24)
	assert.Len(t, usage.Daily, 7)
	assert.Equal(t, 4, usage.Total)
	assert.Equal(t, "UTC", usage.Timezone)
	assert.Equal(t, 3, usage.Hourly[10].Count)
	assert.Equal(t, 1, usage.Hourly[11].Count)

	main, err := svc.Usage(context.Background(), ReportQuery{Days: 7, Branch: "main"})
	require.NoError(t, err)
	assert.Equal(t, 3, main.Total)
}

func TestReport_Staffing(t *testing.T) {
	svc := newReportFixture()

	report, err := svc.Staffing(context.Background(), ReportQuery{Days: 7})
	require.NoError(t, err)
	require.NotEmpty(t, report.PeakHours)
	assert.Equal(t, 10, report.PeakHours[0].Hour)
	assert.Equal(t, 1, report.PeakHours[0].RecommendedStaff)
	assert.NotEmpty(t, report.Recommendations)
}

func TestReport_UnderutilizedAndTrends(t *testing.T) {
	svc := newReportFixture()
	ctx := context.Background()

	idle, err := svc.Underutilized(ctx, ReportQuery{Days: 30})
	require.NoError(t, err)
	require.NotEmpty(t, idle.Items)
	assert.Equal(t, "Atlas", idle.Items[0].Title)
	assert.Equal(t, "Never borrowed", idle.Items[0].Status)

	trends, err := svc.GenreTrends(ctx, ReportQuery{Days: 30})
	require.NoError(t, err)
	require.Len(t, trends.Items, 2)
	assert.Equal(t, "Fantasy", trends.Items[0].Genre)
	assert.Equal(t, 2, trends.Items[0].Current)
}

func TestReport_Summary(t *testing.T) {
	svc := newReportFixture()

	sum, err := svc.Summary(context.Background(), ReportQuery{Days: 30})
	require.NoError(t, err)
	assert.Equal(t, deskNow, sum.GeneratedAt)
	assert.Equal(t, 30, sum.LookbackDays)
	assert.EqualValues(t, 3, sum.Books)
	assert.EqualValues(t, 2, sum.Members)
	assert.EqualValues(t, 2, sum.OpenLoans)
	assert.Equal(t, 2, sum.OverdueLoans)
	assert.Equal(t, 12.0, sum.OutstandingFines)
	assert.Equal(t, 3, sum.BorrowsInWindow)
	assert.Equal(t, 2, sum.ActiveBorrowers)
	assert.Equal(t, 4, sum.VisitsInWindow)
}

func TestReport_DefaultsToConfiguredLookback(t *testing.T) {
	svc := newReportFixture()

	report, err := svc.Staffing(context.Background(), ReportQuery{})
	require.NoError(t, err)
	assert.Equal(t, 30, report.LookbackDays)
}

package analytics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// NeverBorrowed is the daysIdle token for books without a single loan.
const NeverBorrowed = "Never"

// UncategorizedGenre groups books with no genre.
const UncategorizedGenre = "Uncategorized"

// NewGenreGrowth is the growth reported for a genre with borrows in the
// current window and none in the prior one.
const NewGenreGrowth = 100.0

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

func wholeDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

func indexBooks(books []BookRecord) map[string]BookRecord {
	idx := make(map[string]BookRecord, len(books))
	for _, b := range books {
		if b.ID != "" {
			idx[b.ID] = b
		}
	}
	return idx
}

func inWindow(t, since, until time.Time) bool {
	return !t.IsZero() && !t.Before(since) && !t.After(until)
}

// ============================================================
// Top borrowers
// ============================================================

// BorrowerRow is one borrower's activity in the window.
type BorrowerRow struct {
	BorrowerID   string  `json:"borrowerId"`
	Name         string  `json:"name"`
	BorrowCount  int     `json:"borrowCount"`
	ActiveLoans  int     `json:"activeLoans"`
	OverdueLoans int     `json:"overdueLoans"`
	Share        float64 `json:"share"`
}

// BorrowerTotals summarizes the whole window, before any Limit.
type BorrowerTotals struct {
	Borrowers    int `json:"borrowers"`
	Borrows      int `json:"borrows"`
	ActiveLoans  int `json:"activeLoans"`
	OverdueLoans int `json:"overdueLoans"`
}

type TopBorrowersReport struct {
	Items  []BorrowerRow  `json:"items"`
	Totals BorrowerTotals `json:"totals"`
}

type TopBorrowersOptions struct {
	Now          time.Time
	LookbackDays int
	Limit        int
}

// TopBorrowers ranks borrowers by loans started within the lookback window.
func TopBorrowers(loans []LoanRecord, opts TopBorrowersOptions) TopBorrowersReport {
	now := resolveNow(opts.Now)
	since := daysBefore(now, lookbackOrDefault(opts.LookbackDays))

	rows := map[string]*BorrowerRow{}
	totals := BorrowerTotals{}
	for _, loan := range loans {
		if loan.BorrowerID == "" || !inWindow(loan.BorrowedAt, since, now) {
			continue
		}
		row, ok := rows[loan.BorrowerID]
		if !ok {
			row = &BorrowerRow{BorrowerID: loan.BorrowerID, Name: loan.BorrowerID}
			rows[loan.BorrowerID] = row
		}
		if name := strings.TrimSpace(loan.BorrowerName); name != "" {
			row.Name = name
		}
		row.BorrowCount++
		totals.Borrows++

		switch ResolveLoanStatusMeta(loan, StatusOptions{Now: now}).Key {
		case StatusOverdue:
			row.OverdueLoans++
			totals.OverdueLoans++
		case StatusActive:
			row.ActiveLoans++
			totals.ActiveLoans++
		}
	}

	items := make([]BorrowerRow, 0, len(rows))
	for _, row := range rows {
		row.Share = round4(float64(row.BorrowCount) / float64(totals.Borrows))
		items = append(items, *row)
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.BorrowCount != b.BorrowCount {
			return a.BorrowCount > b.BorrowCount
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.BorrowerID < b.BorrowerID
	})
	totals.Borrowers = len(items)
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}

	return TopBorrowersReport{Items: items, Totals: totals}
}

// ============================================================
// Genre trends
// ============================================================

// GenreTrendRow compares a genre's borrows in the current and prior window.
// Growth is a percentage; see NewGenreGrowth for the zero-prior case.
type GenreTrendRow struct {
	Genre    string  `json:"genre"`
	Current  int     `json:"current"`
	Previous int     `json:"previous"`
	Share    float64 `json:"share"`
	Growth   float64 `json:"growth"`
	IsNew    bool    `json:"isNew"`
}

type GenreTotals struct {
	Genres   int `json:"genres"`
	Current  int `json:"current"`
	Previous int `json:"previous"`
}

type GenreTrendsReport struct {
	WindowDays int             `json:"windowDays"`
	Items      []GenreTrendRow `json:"items"`
	Totals     GenreTotals     `json:"totals"`
}

type GenreTrendOptions struct {
	Now        time.Time
	WindowDays int
	Limit      int
}

// GrowthPercent returns the percentage change from previous to current and
// whether the genre is new in the current window.
func GrowthPercent(current, previous int) (float64, bool) {
	if previous == 0 {
		if current > 0 {
			return NewGenreGrowth, true
		}
		return 0, false
	}
	return round2(float64(current-previous) / float64(previous) * 100), false
}

// GenreTrends compares genre borrow counts between [Now-W, Now] and the
// window of equal length before it. Loans whose book is unknown are skipped.
func GenreTrends(loans []LoanRecord, books []BookRecord, opts GenreTrendOptions) GenreTrendsReport {
	now := resolveNow(opts.Now)
	window := lookbackOrDefault(opts.WindowDays)
	currentStart := daysBefore(now, window)
	priorStart := daysBefore(currentStart, window)
	catalog := indexBooks(books)

	rows := map[string]*GenreTrendRow{}
	totals := GenreTotals{}
	for _, loan := range loans {
		book, ok := catalog[loan.BookID]
		if !ok || loan.BorrowedAt.IsZero() || loan.BorrowedAt.After(now) || loan.BorrowedAt.Before(priorStart) {
			continue
		}
		genre := strings.TrimSpace(book.Genre)
		if genre == "" {
			genre = UncategorizedGenre
		}
		row, ok := rows[genre]
		if !ok {
			row = &GenreTrendRow{Genre: genre}
			rows[genre] = row
		}
		if loan.BorrowedAt.Before(currentStart) {
			row.Previous++
			totals.Previous++
		} else {
			row.Current++
			totals.Current++
		}
	}

	items := make([]GenreTrendRow, 0, len(rows))
	for _, row := range rows {
		if totals.Current > 0 {
			row.Share = round4(float64(row.Current) / float64(totals.Current))
		}
		row.Growth, row.IsNew = GrowthPercent(row.Current, row.Previous)
		items = append(items, *row)
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Current != b.Current {
			return a.Current > b.Current
		}
		if a.Growth != b.Growth {
			return a.Growth > b.Growth
		}
		return a.Genre < b.Genre
	})
	totals.Genres = len(items)
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}

	return GenreTrendsReport{WindowDays: window, Items: items, Totals: totals}
}

// ============================================================
// Underutilized books
// ============================================================

// UnderutilizedRow describes a book with little or no recent borrowing.
// DaysIdle is NeverBorrowed or a whole-day count.
type UnderutilizedRow struct {
	BookID          string     `json:"bookId"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	Genre           string     `json:"genre"`
	CopiesTotal     int        `json:"copiesTotal"`
	CopiesAvailable int        `json:"copiesAvailable"`
	BorrowCount     int        `json:"borrowCount"`
	TotalLoans      int        `json:"totalLoans"`
	LastActivity    *time.Time `json:"lastActivity"`
	DaysIdle        string     `json:"daysIdle"`
	Status          string     `json:"status"`

	idle  int
	never bool
}

type UnderutilizedTotals struct {
	Catalog       int `json:"catalog"`
	Books         int `json:"books"`
	NeverBorrowed int `json:"neverBorrowed"`
}

type UnderutilizedReport struct {
	Items  []UnderutilizedRow  `json:"items"`
	Totals UnderutilizedTotals `json:"totals"`
}

// UnderutilizedOptions selects books with at most MaxBorrows loans started in
// the lookback window.
type UnderutilizedOptions struct {
	Now          time.Time
	LookbackDays int
	MaxBorrows   int
	Limit        int
}

type bookActivity struct {
	total      int
	inWindow   int
	active     bool
	lastReturn time.Time
	lastBorrow time.Time
}

// UnderutilizedBooks lists idle books, never-borrowed ones first.
func UnderutilizedBooks(books []BookRecord, loans []LoanRecord, opts UnderutilizedOptions) UnderutilizedReport {
	now := resolveNow(opts.Now)
	since := daysBefore(now, lookbackOrDefault(opts.LookbackDays))
	catalog := indexBooks(books)

	activity := map[string]*bookActivity{}
	for _, loan := range loans {
		if _, ok := catalog[loan.BookID]; !ok {
			continue
		}
		a, ok := activity[loan.BookID]
		if !ok {
			a = &bookActivity{}
			activity[loan.BookID] = a
		}
		a.total++
		if inWindow(loan.BorrowedAt, since, now) {
			a.inWindow++
		}
		if loan.BorrowedAt.After(a.lastBorrow) {
			a.lastBorrow = loan.BorrowedAt
		}
		if returned, ok := CoerceDate(loan.ReturnedAt); ok {
			if returned.After(a.lastReturn) {
				a.lastReturn = returned
			}
		} else {
			a.active = true
		}
	}

	items := []UnderutilizedRow{}
	totals := UnderutilizedTotals{Catalog: len(catalog)}
	for _, book := range books {
		if _, ok := catalog[book.ID]; !ok {
			continue
		}
		a := activity[book.ID]
		if a == nil {
			a = &bookActivity{}
		}
		if a.inWindow > opts.MaxBorrows {
			continue
		}

		row := UnderutilizedRow{
			BookID:          book.ID,
			Title:           book.Title,
			Author:          book.Author,
			Genre:           book.Genre,
			CopiesTotal:     book.CopiesTotal,
			CopiesAvailable: book.CopiesAvailable,
			BorrowCount:     a.inWindow,
			TotalLoans:      a.total,
		}
		describeIdle(&row, a, now)
		if row.never {
			totals.NeverBorrowed++
		}
		items = append(items, row)
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.never != b.never {
			return a.never
		}
		if a.idle != b.idle {
			return a.idle > b.idle
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.BookID < b.BookID
	})
	totals.Books = len(items)
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}

	return UnderutilizedReport{Items: items, Totals: totals}
}

func describeIdle(row *UnderutilizedRow, a *bookActivity, now time.Time) {
	if a.total == 0 {
		row.never = true
		row.DaysIdle = NeverBorrowed
		row.Status = "Never borrowed"
		return
	}

	last := a.lastReturn
	if a.active || last.IsZero() {
		last = a.lastBorrow
	}
	if !last.IsZero() {
		t := last
		row.LastActivity = &t
	}
	row.idle = wholeDays(now.Sub(last))
	row.DaysIdle = strconv.Itoa(row.idle)

	if a.active {
		row.Status = fmt.Sprintf("On loan for %s", pluralDays(row.idle))
		return
	}
	row.Status = fmt.Sprintf("Last returned %s ago", pluralDays(row.idle))
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// ============================================================
// Fines
// ============================================================

// FineRow is an overdue loan with its accrued fine. DaysOverdue and Fine are
// display strings; Amount and Days carry the same values for callers.
type FineRow struct {
	LoanID       string    `json:"loanId"`
	BorrowerID   string    `json:"borrowerId"`
	BorrowerName string    `json:"borrowerName"`
	BookID       string    `json:"bookId"`
	Title        string    `json:"title"`
	DueAt        time.Time `json:"dueAt"`
	DaysOverdue  string    `json:"daysOverdue"`
	Fine         string    `json:"fine"`

	Days   int     `json:"-"`
	Amount float64 `json:"-"`
}

type FineTotals struct {
	Outstanding        float64 `json:"outstanding"`
	OverdueLoans       int     `json:"overdueLoans"`
	AverageFine        float64 `json:"averageFine"`
	AverageDaysOverdue float64 `json:"averageDaysOverdue"`
}

type FinesReport struct {
	FinePerDay float64    `json:"finePerDay"`
	Items      []FineRow  `json:"items"`
	Totals     FineTotals `json:"totals"`
}

// FinesOptions configures Fines. A zero FinePerDay uses DefaultFinePerDay;
// negative rates are treated as zero.
type FinesOptions struct {
	Now        time.Time
	FinePerDay float64
}

// DaysOverdue returns whole days past due, at least 1 once the loan is late.
func DaysOverdue(due, now time.Time) int {
	days := wholeDays(now.Sub(due))
	if days < 1 {
		days = 1
	}
	return days
}

// Fines computes the fine for every unreturned loan that is past due.
func Fines(loans []LoanRecord, books []BookRecord, opts FinesOptions) FinesReport {
	now := resolveNow(opts.Now)
	rate := opts.FinePerDay
	switch {
	case rate == 0:
		rate = DefaultFinePerDay
	case rate < 0 || math.IsNaN(rate):
		rate = 0
	}
	catalog := indexBooks(books)

	items := []FineRow{}
	var outstanding float64
	var dayTotal int
	for _, loan := range loans {
		if loan.BorrowerID == "" || !IsOverdue(loan, now) {
			continue
		}
		book, ok := catalog[loan.BookID]
		if !ok {
			continue
		}
		days := DaysOverdue(loan.DueAt, now)
		amount := round2(float64(days) * rate)
		items = append(items, FineRow{
			LoanID:       loan.ID,
			BorrowerID:   loan.BorrowerID,
			BorrowerName: loan.BorrowerName,
			BookID:       loan.BookID,
			Title:        book.Title,
			DueAt:        loan.DueAt,
			DaysOverdue:  strconv.Itoa(days),
			Fine:         strconv.FormatFloat(amount, 'f', 2, 64),
			Days:         days,
			Amount:       amount,
		})
		outstanding += amount
		dayTotal += days
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Days != b.Days {
			return a.Days > b.Days
		}
		if a.BorrowerName != b.BorrowerName {
			return a.BorrowerName < b.BorrowerName
		}
		return a.LoanID < b.LoanID
	})

	totals := FineTotals{
		Outstanding:  round2(outstanding),
		OverdueLoans: len(items),
	}
	if len(items) > 0 {
		totals.AverageFine = round2(outstanding / float64(len(items)))
		totals.AverageDaysOverdue = round2(float64(dayTotal) / float64(len(items)))
	}

	return FinesReport{FinePerDay: rate, Items: items, Totals: totals}
}

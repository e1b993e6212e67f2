// Package analytics derives loan status, visit usage, staffing advice and
// library reports from snapshots of loan, book and visit records.
//
// Every function here is pure: it reads the records it is given, never
// mutates them, and takes the reference instant from its options.
package analytics

import (
	"fmt"
	"strings"
	"time"
)

// Defaults shared by the report builders.
const (
	DefaultLookbackDays   = 30
	DefaultVisitsPerStaff = 25.0
	DefaultFinePerDay     = 1.00
	DefaultActiveLabel    = "active"
)

// LoanRecord is the read-only view of a loan the engine works on.
// ReturnedAt is nil while the loan is active.
type LoanRecord struct {
	ID           string
	BorrowerID   string
	BorrowerName string
	BookID       string
	BorrowedAt   time.Time
	DueAt        time.Time
	ReturnedAt   *time.Time
}

// BookRecord carries the catalog fields the reports display.
type BookRecord struct {
	ID              string
	Title           string
	Author          string
	Genre           string
	CopiesTotal     int
	CopiesAvailable int
}

// VisitRecord is a single library entry. Only EnteredAt and Branch feed the
// usage buckets.
type VisitRecord struct {
	ID         string
	VisitorKey string
	Branch     string
	EnteredAt  time.Time
	ExitedAt   *time.Time
}

// resolveNow is the only place the engine falls back to the wall clock.
func resolveNow(now time.Time) time.Time {
	if now.IsZero() {
		return time.Now()
	}
	return now
}

func lookbackOrDefault(days int) int {
	if days <= 0 {
		return DefaultLookbackDays
	}
	return days
}

func daysBefore(t time.Time, days int) time.Time {
	return t.Add(-time.Duration(days) * 24 * time.Hour)
}

// LoanRecordFromDocument builds a LoanRecord from a decoded document, as found
// in document-store JSON exports. Date fields accept every shape CoerceDate
// understands; unparsable dates are left zero (or nil for ReturnedAt).
func LoanRecordFromDocument(doc map[string]any) LoanRecord {
	loan := LoanRecord{
		ID:           docString(doc, "_id", "id"),
		BorrowerID:   docString(doc, "user", "userId", "borrowerId"),
		BorrowerName: docString(doc, "userName", "borrowerName", "name"),
		BookID:       docString(doc, "book", "bookId"),
	}
	if t, ok := CoerceDate(docValue(doc, "borrowedAt", "loanDate", "createdAt")); ok {
		loan.BorrowedAt = t
	}
	if t, ok := CoerceDate(docValue(doc, "dueAt", "dueDate")); ok {
		loan.DueAt = t
	}
	if t, ok := CoerceDate(docValue(doc, "returnedAt", "returnDate")); ok {
		loan.ReturnedAt = &t
	}
	return loan
}

// VisitRecordFromDocument builds a VisitRecord from a decoded document.
func VisitRecordFromDocument(doc map[string]any) VisitRecord {
	visit := VisitRecord{
		ID:         docString(doc, "_id", "id"),
		VisitorKey: docString(doc, "user", "studentId", "badgeCode"),
		Branch:     docString(doc, "branch"),
	}
	if t, ok := CoerceDate(docValue(doc, "enteredAt", "entryAt", "createdAt")); ok {
		visit.EnteredAt = t
	}
	if t, ok := CoerceDate(docValue(doc, "exitedAt", "exitAt")); ok {
		visit.ExitedAt = &t
	}
	return visit
}

func docValue(doc map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := doc[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// docString reads an identifier, unwrapping {"$oid": "..."} references.
func docString(doc map[string]any, keys ...string) string {
	switch v := docValue(doc, keys...).(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if oid, ok := v["$oid"].(string); ok {
			return oid
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

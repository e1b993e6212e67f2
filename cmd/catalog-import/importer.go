package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"libradesk/internal/adapters/persistence/models"
	"libradesk/internal/adapters/persistence/repositories"
	"libradesk/internal/core/analytics"
	"libradesk/internal/core/domain"
	"libradesk/internal/core/services"
	"libradesk/internal/pkg/validation"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ErrMissingColumn is returned when a books CSV lacks a required header
var ErrMissingColumn = errors.New("missing required column")

type importer struct {
	books    *services.BookService
	bookRepo repositories.BookRepository
	userRepo repositories.UserRepository
	loanRepo repositories.LoanRepository
	loanDays int
}

// LoanImportStats counts the outcome of a loan import
type LoanImportStats struct {
	Imported int
	Skipped  int
}

func (i *importer) importBooks(ctx context.Context, r io.Reader) (int, int, error) {
	inputs, err := parseBooksCSV(r)
	if err != nil {
		return 0, 0, err
	}
	return i.books.Import(ctx, inputs)
}

// parseBooksCSV reads books by header name; isbn, title and author are required columns
func parseBooksCSV(r io.Reader) ([]*services.CreateBookInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for idx, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = idx
	}
	for _, required := range []string{"isbn", "title", "author"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var inputs []*services.CreateBookInput
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if field(row, "isbn") == "" && field(row, "title") == "" {
			continue
		}

		in := &services.CreateBookInput{
			ISBN:   field(row, "isbn"),
			Title:  field(row, "title"),
			Author: field(row, "author"),
			Genre:  field(row, "genre"),
			Branch: field(row, "branch"),
		}
		if v := field(row, "published_year"); v != "" {
			year, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("line %d: published_year %q: %w", line, v, err)
			}
			in.PublishedYear = year
		}
		if v := field(row, "copies"); v != "" {
			copies, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("line %d: copies %q: %w", line, v, err)
			}
			in.Copies = copies
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// decodeLoanDocuments accepts either a JSON array or one document per line
func decodeLoanDocuments(r io.Reader) ([]analytics.LoanRecord, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if err == io.EOF {
			return []analytics.LoanRecord{}, nil
		}
		return nil, err
	}

	var docs []map[string]any
	if first == '[' {
		if err := json.NewDecoder(br).Decode(&docs); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
	} else {
		dec := json.NewDecoder(br)
		for {
			var doc map[string]any
			err := dec.Decode(&doc)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("decode document %d: %w", len(docs)+1, err)
			}
			docs = append(docs, doc)
		}
	}

	records := make([]analytics.LoanRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, analytics.LoanRecordFromDocument(doc))
	}
	return records, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if len(bytes.TrimSpace([]byte{b})) > 0 {
			return b, br.UnreadByte()
		}
	}
}

func (i *importer) importLoans(ctx context.Context, r io.Reader) (LoanImportStats, error) {
	var stats LoanImportStats
	records, err := decodeLoanDocuments(r)
	if err != nil {
		return stats, err
	}

	for _, rec := range records {
		user, err := i.resolveBorrower(ctx, rec.BorrowerID)
		if err != nil {
			stats.Skipped++
			log.Warn().Str("loan", rec.ID).Str("borrower", rec.BorrowerID).Msg("⚠️ Borrower not found, loan skipped")
			continue
		}
		book, err := i.resolveBook(ctx, rec.BookID)
		if err != nil {
			stats.Skipped++
			log.Warn().Str("loan", rec.ID).Str("book", rec.BookID).Msg("⚠️ Book not found, loan skipped")
			continue
		}

		loan, ok := buildLoan(rec, user.ID, book.ID, i.loanDays)
		if !ok {
			stats.Skipped++
			log.Warn().Str("loan", rec.ID).Msg("⚠️ Loan has no borrow date, skipped")
			continue
		}

		// Open loans take a copy off the shelf; returned ones are history only
		if loan.ReturnedAt == nil {
			err = i.loanRepo.Checkout(ctx, loan)
		} else {
			err = i.loanRepo.Create(ctx, loan)
		}
		if err != nil {
			if errors.Is(err, domain.ErrNoCopiesAvailable) {
				stats.Skipped++
				log.Warn().Str("loan", rec.ID).Str("isbn", book.ISBN).Msg("⚠️ No copies left, loan skipped")
				continue
			}
			return stats, err
		}
		stats.Imported++
	}
	return stats, nil
}

// buildLoan maps a decoded document onto a loan row. A missing due date
// falls back to the borrow date plus loanDays.
func buildLoan(rec analytics.LoanRecord, userID, bookID uint, loanDays int) (*models.Loan, bool) {
	if rec.BorrowedAt.IsZero() {
		return nil, false
	}
	due := rec.DueAt
	if due.IsZero() {
		due = rec.BorrowedAt.AddDate(0, 0, loanDays)
	}
	loan := &models.Loan{
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: rec.BorrowedAt.UTC(),
		DueAt:      due.UTC(),
		Notes:      importNote(rec.ID),
	}
	if rec.ReturnedAt != nil {
		returned := rec.ReturnedAt.UTC()
		loan.ReturnedAt = &returned
	}
	return loan, true
}

func importNote(id string) string {
	if id == "" {
		return "imported"
	}
	return "imported from " + id
}

// resolveBorrower matches a numeric id, then a username, then a student id
func (i *importer) resolveBorrower(ctx context.Context, ref string) (*models.User, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, gorm.ErrRecordNotFound
	}
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		if user, err := i.userRepo.GetByID(ctx, uint(id)); err == nil {
			return user, nil
		}
	}
	if user, err := i.userRepo.GetByUsername(ctx, validation.NormalizeUsername(ref)); err == nil {
		return user, nil
	}
	return i.userRepo.GetByStudentID(ctx, strings.ToUpper(ref))
}

// resolveBook matches a numeric id, then an ISBN
func (i *importer) resolveBook(ctx context.Context, ref string) (*models.Book, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, gorm.ErrRecordNotFound
	}
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil && len(ref) < 10 {
		if book, err := i.bookRepo.GetByID(ctx, uint(id)); err == nil {
			return book, nil
		}
	}
	return i.bookRepo.GetByISBN(ctx, validation.NormalizeISBN(ref))
}

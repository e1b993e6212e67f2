package repositories

import (
	"context"
	"errors"
	"time"

	"libradesk/internal/adapters/persistence/models"
	"libradesk/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Checkout takes one copy off the shelf and records the loan.
// Returns domain.ErrBookNotFound or domain.ErrNoCopiesAvailable when it cannot.
func (r *loanRepository) Checkout(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Book{}).
			Where("id = ? AND copies_available > 0", loan.BookID).
			Update("copies_available", gorm.Expr("copies_available - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Book{}).Where("id = ?", loan.BookID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domain.ErrBookNotFound
			}
			return domain.ErrNoCopiesAvailable
		}

		return tx.Create(loan).Error
	})
}

// Return closes the loan once and puts the copy back on the shelf.
// A second return yields domain.ErrLoanAlreadyReturned.
func (r *loanRepository) Return(ctx context.Context, loanID uint, returnedAt time.Time, returnedTo *uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&loan, loanID).Error; err != nil {
			return err
		}
		if loan.ReturnedAt != nil {
			return domain.ErrLoanAlreadyReturned
		}

		res := tx.Model(&models.Loan{}).
			Where("id = ? AND returned_at IS NULL", loan.ID).
			Updates(map[string]interface{}{"returned_at": returnedAt, "returned_to": returnedTo})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrLoanAlreadyReturned
		}

		if err := tx.Model(&models.Book{}).
			Where("id = ? AND copies_available < copies_total", loan.BookID).
			Update("copies_available", gorm.Expr("copies_available + 1")).Error; err != nil {
			return err
		}

		loan.ReturnedAt = &returnedAt
		loan.ReturnedTo = returnedTo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Create inserts a loan as-is, without touching stock (imports)
func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// List lists loans newest first
func (r *loanRepository) List(ctx context.Context, filter LoanFilter, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Loan{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.BookID != nil {
		query = query.Where("book_id = ?", *filter.BookID)
	}
	query = applyStatus(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("User").
		Preload("Book").
		Order("borrowed_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

func applyStatus(query *gorm.DB, filter LoanFilter) *gorm.DB {
	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}
	switch filter.Status {
	case domain.LoanFilterReturned:
		return query.Where("returned_at IS NOT NULL")
	case domain.LoanFilterOverdue:
		return query.Where("returned_at IS NULL AND due_at < ?", now)
	case domain.LoanFilterActive:
		return query.Where("returned_at IS NULL AND due_at >= ?", now)
	}
	return query
}

func (r *loanRepository) BorrowedSince(ctx context.Context, since time.Time) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("borrowed_at >= ?", since).
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) All(ctx context.Context) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).Preload("User").Find(&loans).Error
	return loans, err
}

func (r *loanRepository) Overdue(ctx context.Context, now time.Time) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		Where("returned_at IS NULL AND due_at < ?", now).
		Order("due_at ASC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).Where("returned_at IS NULL").Count(&count).Error
	return count, err
}

// IsNotFound reports whether err is gorm's missing-row error
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

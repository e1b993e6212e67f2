package services

import (
	"context"
	"errors"
	"time"

	"libradesk/internal/adapters/persistence/models"
	"libradesk/internal/adapters/persistence/repositories"
	"libradesk/internal/config"
	"libradesk/internal/core/analytics"
	"libradesk/internal/core/domain"
	"libradesk/internal/pkg/pagination"
	"libradesk/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ActiveLoanLabel is shown for loans that are out and not yet due
const ActiveLoanLabel = "On Time"

// Loan errors
var (
	ErrLoanNotFound        = domain.ErrLoanNotFound
	ErrLoanAlreadyReturned = domain.ErrLoanAlreadyReturned
	ErrNoCopiesAvailable   = domain.ErrNoCopiesAvailable
	ErrInvalidDueDate      = domain.ErrInvalidDueDate
	ErrInvalidLoanStatus   = domain.ErrInvalidLoanStatus
	ErrNotYourLoan         = errors.New("loan belongs to another member")
)

// Clock supplies the current instant to services
type Clock func() time.Time

// LoanService handles circulation business logic
type LoanService struct {
	loanRepo repositories.LoanRepository
	userRepo repositories.UserRepository
	cfg      config.LibraryConfig
	now      Clock
}

// NewLoanService creates a new loan service
func NewLoanService(
	loanRepo repositories.LoanRepository,
	userRepo repositories.UserRepository,
	cfg config.LibraryConfig,
) *LoanService {
	return &LoanService{
		loanRepo: loanRepo,
		userRepo: userRepo,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock replaces the wall clock
func (s *LoanService) WithClock(c Clock) *LoanService {
	s.now = c
	return s
}

// CheckoutInput represents a checkout at the desk.
// DueAt accepts any date shape CoerceDate understands; empty means now + LoanDays.
type CheckoutInput struct {
	UserID uint   `json:"user_id" validate:"required"`
	BookID uint   `json:"book_id" validate:"required"`
	DueAt  string `json:"due_at"`
	Notes  string `json:"notes" validate:"max=500"`
}

// LoanListInput selects loans for listing
type LoanListInput struct {
	UserID *uint
	BookID *uint
	Status string
}

// Checkout lends one copy of a book to a member
func (s *LoanService) Checkout(ctx context.Context, input *CheckoutInput, staffID uint) (*models.LoanResponse, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	now := s.now()
	due := now.AddDate(0, 0, s.loanDays())
	if input.DueAt != "" {
		parsed, ok := analytics.CoerceDate(input.DueAt)
		if !ok || !parsed.After(now) {
			return nil, ErrInvalidDueDate
		}
		due = parsed
	}

	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	loan := &models.Loan{
		UserID:       input.UserID,
		BookID:       input.BookID,
		BorrowedAt:   now,
		DueAt:        due,
		CheckedOutBy: staffID,
		Notes:        input.Notes,
	}
	if err := s.loanRepo.Checkout(ctx, loan); err != nil {
		return nil, err
	}

	log.Info().
		Uint("loan_id", loan.ID).
		Uint("user_id", loan.UserID).
		Uint("book_id", loan.BookID).
		Time("due_at", loan.DueAt).
		Msg("📕 Book checked out")

	return s.respond(ctx, loan.ID, now)
}

// Return closes a loan; a second return yields ErrLoanAlreadyReturned
func (s *LoanService) Return(ctx context.Context, loanID uint, staffID uint) (*models.LoanResponse, error) {
	now := s.now()
	var returnedTo *uint
	if staffID != 0 {
		returnedTo = &staffID
	}

	loan, err := s.loanRepo.Return(ctx, loanID, now, returnedTo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}

	log.Info().Uint("loan_id", loan.ID).Uint("book_id", loan.BookID).Msg("📗 Book returned")
	return s.respond(ctx, loan.ID, now)
}

// Get returns one loan. Members may only read their own loans.
func (s *LoanService) Get(ctx context.Context, loanID uint, requesterID uint, role domain.Role) (*models.LoanResponse, error) {
	loan, err := s.load(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !role.IsStaff() && loan.UserID != requesterID {
		return nil, ErrNotYourLoan
	}
	return loan.ToResponse(s.Status(loan, s.now())), nil
}

// List lists loans, optionally narrowed by borrower, book and status
func (s *LoanService) List(ctx context.Context, input LoanListInput, params *pagination.Params) ([]*models.LoanResponse, int64, error) {
	status, err := domain.ParseLoanStatusFilter(input.Status)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	loans, total, err := s.loanRepo.List(ctx, repositories.LoanFilter{
		UserID: input.UserID,
		BookID: input.BookID,
		Status: status,
		Now:    now,
	}, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*models.LoanResponse, len(loans))
	for i, loan := range loans {
		out[i] = loan.ToResponse(s.Status(loan, now))
	}
	return out, total, nil
}

// Status classifies a loan with the desk's active label
func (s *LoanService) Status(loan *models.Loan, now time.Time) analytics.StatusMeta {
	return analytics.ResolveLoanStatusMeta(loan.ToRecord(), analytics.StatusOptions{
		Now:         now,
		ActiveLabel: ActiveLoanLabel,
	})
}

func (s *LoanService) respond(ctx context.Context, loanID uint, now time.Time) (*models.LoanResponse, error) {
	loan, err := s.load(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return loan.ToResponse(s.Status(loan, now)), nil
}

func (s *LoanService) load(ctx context.Context, loanID uint) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

func (s *LoanService) loanDays() int {
	if s.cfg.LoanDays > 0 {
		return s.cfg.LoanDays
	}
	return 14
}

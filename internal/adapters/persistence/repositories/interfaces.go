package repositories

import (
	"context"
	"time"

	"libradesk/internal/adapters/persistence/models"
	"libradesk/internal/core/domain"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByStudentID(ctx context.Context, studentID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByStudentID(ctx context.Context, studentID string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	GetByUserID(ctx context.Context, userID uint) ([]*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
	CountActiveByUserID(ctx context.Context, userID uint) (int64, error)
}

// BookFilter narrows catalog listings
type BookFilter struct {
	Query  string // matches title, author or ISBN
	Genre  string
	Branch string
}

// BookRepository defines catalog repository interface
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	GetByISBN(ctx context.Context, isbn string) (*models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter BookFilter, offset, limit int) ([]*models.Book, int64, error)
	All(ctx context.Context) ([]*models.Book, error)
	Count(ctx context.Context) (int64, error)
}

// LoanFilter narrows loan listings. Now decides what counts as overdue.
type LoanFilter struct {
	UserID *uint
	BookID *uint
	Status domain.LoanStatusFilter
	Now    time.Time
}

// LoanRepository defines circulation repository interface
type LoanRepository interface {
	// Checkout creates the loan and takes one available copy in one transaction
	Checkout(ctx context.Context, loan *models.Loan) error
	// Return stamps returnedAt and puts the copy back in one transaction
	Return(ctx context.Context, loanID uint, returnedAt time.Time, returnedTo *uint) (*models.Loan, error)
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	List(ctx context.Context, filter LoanFilter, offset, limit int) ([]*models.Loan, int64, error)
	// BorrowedSince returns loans started at or after since, with borrowers preloaded
	BorrowedSince(ctx context.Context, since time.Time) ([]*models.Loan, error)
	// All returns every loan, with borrowers preloaded
	All(ctx context.Context) ([]*models.Loan, error)
	// Overdue returns unreturned loans due before now, with borrowers and books preloaded
	Overdue(ctx context.Context, now time.Time) ([]*models.Loan, error)
	CountOpen(ctx context.Context) (int64, error)
}

// VisitRepository defines gate visit repository interface
type VisitRepository interface {
	Create(ctx context.Context, visit *models.Visit) error
	GetByID(ctx context.Context, id uint) (*models.Visit, error)
	// FindOpen returns the latest visit without an exit for the visitor
	FindOpen(ctx context.Context, kind, ref string) (*models.Visit, error)
	Close(ctx context.Context, id uint, exitedAt time.Time) error
	Since(ctx context.Context, since time.Time, branch string) ([]*models.Visit, error)
	ListRecent(ctx context.Context, offset, limit int) ([]*models.Visit, int64, error)
}

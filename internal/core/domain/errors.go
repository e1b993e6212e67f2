package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// User errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidPassword   = errors.New("invalid password")
)

// Catalog errors
var (
	ErrBookNotFound      = errors.New("book not found")
	ErrDuplicateISBN     = errors.New("a book with this ISBN already exists")
	ErrCopiesOnLoan      = errors.New("copies total cannot drop below copies on loan")
	ErrNoCopiesAvailable = errors.New("no copies available")
)

// Loan errors
var (
	ErrLoanNotFound        = errors.New("loan not found")
	ErrLoanAlreadyReturned = errors.New("loan already returned")
	ErrInvalidLoanStatus   = errors.New("invalid loan status")
	ErrInvalidDueDate      = errors.New("due date must be after the checkout time")
)

// Visit errors
var (
	ErrVisitNotFound           = errors.New("visit not found")
	ErrVisitAlreadyClosed      = errors.New("visit already checked out")
	ErrVisitorIdentityRequired = errors.New("one of userId, studentId or badgeCode is required")
)

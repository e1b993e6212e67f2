package domain

import (
	"strings"
	"time"
)

// Role represents user role in the system
type Role string

const (
	RoleMember    Role = "MEMBER"
	RoleLibrarian Role = "LIBRARIAN"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleLibrarian, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether r may run circulation and reports
func (r Role) IsStaff() bool {
	return r == RoleLibrarian || r == RoleAdmin
}

// User represents a user in the domain layer
type User struct {
	ID        uint
	Username  string
	Email     string
	FullName  string
	StudentID string
	Password  string // Hashed
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// ============================================================
// Circulation
// ============================================================

// LoanStatusFilter selects loans in list endpoints
type LoanStatusFilter string

const (
	LoanFilterAll      LoanStatusFilter = ""
	LoanFilterActive   LoanStatusFilter = "active"
	LoanFilterOverdue  LoanStatusFilter = "overdue"
	LoanFilterReturned LoanStatusFilter = "returned"
)

// ParseLoanStatusFilter accepts "", active, overdue or returned (any case)
func ParseLoanStatusFilter(s string) (LoanStatusFilter, error) {
	switch f := LoanStatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case LoanFilterAll, LoanFilterActive, LoanFilterOverdue, LoanFilterReturned:
		return f, nil
	}
	return "", ErrInvalidLoanStatus
}

// ============================================================
// Visits
// ============================================================

// VisitorKind tags how a visitor was identified at the gate
type VisitorKind string

const (
	VisitorUser    VisitorKind = "user"
	VisitorStudent VisitorKind = "student"
	VisitorBadge   VisitorKind = "badge"
)

// VisitorIdentity is exactly one of a registered user, a student id or a badge code
type VisitorIdentity struct {
	Kind VisitorKind
	Ref  string
}

// Key is the stable string used to group visits by visitor
func (v VisitorIdentity) Key() string {
	return string(v.Kind) + ":" + v.Ref
}

// ResolveVisitor picks the identity with precedence user > student > badge
func ResolveVisitor(userRef, studentID, badgeCode string) (VisitorIdentity, error) {
	switch {
	case strings.TrimSpace(userRef) != "":
		return VisitorIdentity{Kind: VisitorUser, Ref: strings.TrimSpace(userRef)}, nil
	case strings.TrimSpace(studentID) != "":
		return VisitorIdentity{Kind: VisitorStudent, Ref: strings.ToUpper(strings.TrimSpace(studentID))}, nil
	case strings.TrimSpace(badgeCode) != "":
		return VisitorIdentity{Kind: VisitorBadge, Ref: strings.ToUpper(strings.TrimSpace(badgeCode))}, nil
	}
	return VisitorIdentity{}, ErrVisitorIdentityRequired
}

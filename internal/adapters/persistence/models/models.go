package models

import (
	"strconv"
	"time"

	"libradesk/internal/core/analytics"

	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	FullName  string         `gorm:"size:150" json:"full_name"`
	StudentID *string        `gorm:"uniqueIndex;size:30" json:"student_id"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'MEMBER'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName prefers the full name over the login name
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	StudentID string    `json:"student_id,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	resp := &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
	if u.StudentID != nil {
		resp.StudentID = *u.StudentID
	}
	return resp
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Catalog
// ============================================================

// Book represents books table
type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ISBN            string         `gorm:"uniqueIndex;size:13;not null" json:"isbn"`
	Title           string         `gorm:"size:255;not null;index" json:"title"`
	Author          string         `gorm:"size:255;not null;index" json:"author"`
	Genre           string         `gorm:"size:80;index" json:"genre"`
	PublishedYear   int            `json:"published_year"`
	Branch          string         `gorm:"size:80" json:"branch"`
	CopiesTotal     int            `gorm:"not null;default:1" json:"copies_total"`
	CopiesAvailable int            `gorm:"not null;default:1" json:"copies_available"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// OnLoan is the number of copies currently checked out
func (b *Book) OnLoan() int {
	return b.CopiesTotal - b.CopiesAvailable
}

// ToRecord converts the row for the analytics package
func (b *Book) ToRecord() analytics.BookRecord {
	return analytics.BookRecord{
		ID:              idString(b.ID),
		Title:           b.Title,
		Author:          b.Author,
		Genre:           b.Genre,
		CopiesTotal:     b.CopiesTotal,
		CopiesAvailable: b.CopiesAvailable,
	}
}

// ============================================================
// Circulation
// ============================================================

// Loan represents loans table
type Loan struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	BookID       uint       `gorm:"not null;index" json:"book_id"`
	BorrowedAt   time.Time  `gorm:"not null;index" json:"borrowed_at"`
	DueAt        time.Time  `gorm:"not null;index" json:"due_at"`
	ReturnedAt   *time.Time `gorm:"index" json:"returned_at"`
	CheckedOutBy uint       `json:"checked_out_by"`
	ReturnedTo   *uint      `json:"returned_to"`
	Notes        string     `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// ToRecord converts the row for the analytics package
func (l *Loan) ToRecord() analytics.LoanRecord {
	rec := analytics.LoanRecord{
		ID:         idString(l.ID),
		BorrowerID: idString(l.UserID),
		BookID:     idString(l.BookID),
		BorrowedAt: l.BorrowedAt,
		DueAt:      l.DueAt,
		ReturnedAt: l.ReturnedAt,
	}
	if l.User != nil {
		rec.BorrowerName = l.User.DisplayName()
	}
	return rec
}

// LoanResponse DTO
type LoanResponse struct {
	ID         uint                 `json:"id"`
	UserID     uint                 `json:"user_id"`
	Borrower   string               `json:"borrower,omitempty"`
	BookID     uint                 `json:"book_id"`
	BookTitle  string               `json:"book_title,omitempty"`
	BorrowedAt time.Time            `json:"borrowed_at"`
	DueAt      time.Time            `json:"due_at"`
	ReturnedAt *time.Time           `json:"returned_at"`
	Status     analytics.StatusMeta `json:"status"`
	Notes      string               `json:"notes,omitempty"`
}

func (l *Loan) ToResponse(status analytics.StatusMeta) *LoanResponse {
	resp := &LoanResponse{
		ID:         l.ID,
		UserID:     l.UserID,
		BookID:     l.BookID,
		BorrowedAt: l.BorrowedAt,
		DueAt:      l.DueAt,
		ReturnedAt: l.ReturnedAt,
		Status:     status,
		Notes:      l.Notes,
	}
	if l.User != nil {
		resp.Borrower = l.User.DisplayName()
	}
	if l.Book != nil {
		resp.BookTitle = l.Book.Title
	}
	return resp
}

// ============================================================
// Visits
// ============================================================

// Visit represents visits table. The visitor is one of a registered user,
// a student id or a badge code, stored as kind + ref.
type Visit struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	VisitorKind string     `gorm:"size:10;not null;index:idx_visitor" json:"visitor_kind"`
	VisitorRef  string     `gorm:"size:50;not null;index:idx_visitor" json:"visitor_ref"`
	UserID      *uint      `gorm:"index" json:"user_id"`
	Branch      string     `gorm:"size:80;index" json:"branch"`
	EnteredAt   time.Time  `gorm:"not null;index" json:"entered_at"`
	ExitedAt    *time.Time `json:"exited_at"`
	RecordedBy  *uint      `json:"recorded_by"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Visit) TableName() string {
	return "visits"
}

// ToRecord converts the row for the analytics package
func (v *Visit) ToRecord() analytics.VisitRecord {
	return analytics.VisitRecord{
		ID:         idString(v.ID),
		VisitorKey: v.VisitorKind + ":" + v.VisitorRef,
		Branch:     v.Branch,
		EnteredAt:  v.EnteredAt,
		ExitedAt:   v.ExitedAt,
	}
}

func idString(id uint) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Book{},
		&Loan{},
		&Visit{},
	)
}

package services

import (
	"context"
	"errors"
	"strings"

	"libradesk/internal/adapters/persistence/models"
	"libradesk/internal/adapters/persistence/repositories"
	"libradesk/internal/core/domain"
	"libradesk/internal/pkg/pagination"
	"libradesk/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Catalog errors
var (
	ErrBookNotFound  = domain.ErrBookNotFound
	ErrDuplicateISBN = domain.ErrDuplicateISBN
	ErrCopiesOnLoan  = domain.ErrCopiesOnLoan
	ErrBookOnLoan    = errors.New("book has copies on loan")
)

// BookService handles catalog business logic
type BookService struct {
	bookRepo repositories.BookRepository
}

// NewBookService creates a new book service
func NewBookService(bookRepo repositories.BookRepository) *BookService {
	return &BookService{bookRepo: bookRepo}
}

// CreateBookInput represents a new catalog entry
type CreateBookInput struct {
	ISBN          string `json:"isbn" validate:"required,isbn"`
	Title         string `json:"title" validate:"required,max=255"`
	Author        string `json:"author" validate:"required,max=255"`
	Genre         string `json:"genre" validate:"max=80"`
	PublishedYear int    `json:"published_year" validate:"omitempty,gte=1000,lte=2100"`
	Branch        string `json:"branch" validate:"max=80"`
	Copies        int    `json:"copies" validate:"gte=0,lte=1000"`
}

// UpdateBookInput represents a partial catalog update
type UpdateBookInput struct {
	Title         *string `json:"title" validate:"omitempty,max=255"`
	Author        *string `json:"author" validate:"omitempty,max=255"`
	Genre         *string `json:"genre" validate:"omitempty,max=80"`
	PublishedYear *int    `json:"published_year" validate:"omitempty,gte=1000,lte=2100"`
	Branch        *string `json:"branch" validate:"omitempty,max=80"`
	CopiesTotal   *int    `json:"copies_total" validate:"omitempty,gte=0,lte=1000"`
}

// Create adds a book; Copies defaults to 1
func (s *BookService) Create(ctx context.Context, input *CreateBookInput) (*models.Book, error) {
	input.ISBN = validation.NormalizeISBN(input.ISBN)
	input.Title = strings.TrimSpace(input.Title)
	input.Author = strings.TrimSpace(input.Author)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	if _, err := s.bookRepo.GetByISBN(ctx, input.ISBN); err == nil {
		return nil, ErrDuplicateISBN
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	copies := input.Copies
	if copies == 0 {
		copies = 1
	}

	book := &models.Book{
		ISBN:            input.ISBN,
		Title:           input.Title,
		Author:          input.Author,
		Genre:           validation.NormalizeGenre(input.Genre),
		PublishedYear:   input.PublishedYear,
		Branch:          validation.NormalizeBranch(input.Branch),
		CopiesTotal:     copies,
		CopiesAvailable: copies,
	}
	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}

	log.Info().Uint("book_id", book.ID).Str("isbn", book.ISBN).Msg("📚 Book added")
	return book, nil
}

// Get returns one book
func (s *BookService) Get(ctx context.Context, id uint) (*models.Book, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

// List searches the catalog
func (s *BookService) List(ctx context.Context, filter repositories.BookFilter, params *pagination.Params) ([]*models.Book, int64, error) {
	if filter.Genre != "" {
		filter.Genre = validation.NormalizeGenre(filter.Genre)
	}
	filter.Branch = validation.NormalizeBranch(filter.Branch)
	return s.bookRepo.List(ctx, filter, params.Offset, params.Limit)
}

// Update changes catalog fields. Shrinking CopiesTotal below the copies on
// loan is rejected; otherwise available copies follow the new total.
func (s *BookService) Update(ctx context.Context, id uint, input *UpdateBookInput) (*models.Book, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		book.Title = strings.TrimSpace(*input.Title)
	}
	if input.Author != nil {
		book.Author = strings.TrimSpace(*input.Author)
	}
	if input.Genre != nil {
		book.Genre = validation.NormalizeGenre(*input.Genre)
	}
	if input.PublishedYear != nil {
		book.PublishedYear = *input.PublishedYear
	}
	if input.Branch != nil {
		book.Branch = validation.NormalizeBranch(*input.Branch)
	}
	if input.CopiesTotal != nil {
		onLoan := book.OnLoan()
		if *input.CopiesTotal < onLoan {
			return nil, ErrCopiesOnLoan
		}
		book.CopiesTotal = *input.CopiesTotal
		book.CopiesAvailable = book.CopiesTotal - onLoan
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// Delete removes a book that has no copies out
func (s *BookService) Delete(ctx context.Context, id uint) error {
	book, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if book.OnLoan() > 0 {
		return ErrBookOnLoan
	}
	if err := s.bookRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Info().Uint("book_id", id).Msg("🗑️ Book removed")
	return nil
}

// Export returns the whole catalog
func (s *BookService) Export(ctx context.Context) ([]*models.Book, error) {
	return s.bookRepo.All(ctx)
}

// Import upserts books by ISBN, returning how many were created and updated
func (s *BookService) Import(ctx context.Context, inputs []*CreateBookInput) (created, updated int, err error) {
	for _, in := range inputs {
		in.ISBN = validation.NormalizeISBN(in.ISBN)
		existing, getErr := s.bookRepo.GetByISBN(ctx, in.ISBN)
		switch {
		case getErr == nil:
			update := &UpdateBookInput{
				Title:  nonEmpty(in.Title),
				Author: nonEmpty(in.Author),
				Genre:  nonEmpty(in.Genre),
				Branch: nonEmpty(in.Branch),
			}
			if in.Copies > 0 {
				copies := in.Copies
				if onLoan := existing.OnLoan(); copies < onLoan {
					copies = onLoan
				}
				update.CopiesTotal = &copies
			}
			_, err = s.Update(ctx, existing.ID, update)
			if err != nil {
				return created, updated, err
			}
			updated++
		case errors.Is(getErr, gorm.ErrRecordNotFound):
			if _, err = s.Create(ctx, in); err != nil {
				return created, updated, err
			}
			created++
		default:
			return created, updated, getErr
		}
	}
	return created, updated, nil
}

func nonEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

package repositories

import (
	"context"
	"strings"

	"libradesk/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// bookRepository implements BookRepository interface
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *bookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) Update(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

// Delete soft deletes a book
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Book{}, id).Error
}

// List searches the catalog with pagination, ordered by title
func (r *bookRepository) List(ctx context.Context, filter BookFilter, offset, limit int) ([]*models.Book, int64, error) {
	var books []*models.Book
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Book{})
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + q + "%"
		query = query.Where("title LIKE ? OR author LIKE ? OR isbn = ?", like, like, q)
	}
	if filter.Genre != "" {
		query = query.Where("genre = ?", filter.Genre)
	}
	if filter.Branch != "" {
		query = query.Where("LOWER(branch) = LOWER(?)", filter.Branch)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("title ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&books).Error

	return books, total, err
}

// All returns the whole catalog for reports and exports
func (r *bookRepository) All(ctx context.Context) ([]*models.Book, error) {
	var books []*models.Book
	err := r.db.WithContext(ctx).Order("id ASC").Find(&books).Error
	return books, err
}

func (r *bookRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Book{}).Count(&count).Error
	return count, err
}

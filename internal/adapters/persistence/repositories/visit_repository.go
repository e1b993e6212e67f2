package repositories

import (
	"context"
	"time"

	"libradesk/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// visitRepository implements VisitRepository interface
type visitRepository struct {
	db *gorm.DB
}

// NewVisitRepository creates a new visit repository
func NewVisitRepository(db *gorm.DB) VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) Create(ctx context.Context, visit *models.Visit) error {
	return r.db.WithContext(ctx).Create(visit).Error
}

func (r *visitRepository) GetByID(ctx context.Context, id uint) (*models.Visit, error) {
	var visit models.Visit
	if err := r.db.WithContext(ctx).First(&visit, id).Error; err != nil {
		return nil, err
	}
	return &visit, nil
}

func (r *visitRepository) FindOpen(ctx context.Context, kind, ref string) (*models.Visit, error) {
	var visit models.Visit
	err := r.db.WithContext(ctx).
		Where("visitor_kind = ? AND visitor_ref = ? AND exited_at IS NULL", kind, ref).
		Order("entered_at DESC").
		First(&visit).Error
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

// Close stamps the exit time on an open visit
func (r *visitRepository) Close(ctx context.Context, id uint, exitedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Visit{}).
		Where("id = ? AND exited_at IS NULL", id).
		Update("exited_at", exitedAt).Error
}

// Since returns visits entered at or after since, optionally for one branch
func (r *visitRepository) Since(ctx context.Context, since time.Time, branch string) ([]*models.Visit, error) {
	var visits []*models.Visit
	query := r.db.WithContext(ctx).Where("entered_at >= ?", since)
	if branch != "" {
		query = query.Where("LOWER(branch) = LOWER(?)", branch)
	}
	err := query.Order("entered_at ASC").Find(&visits).Error
	return visits, err
}

func (r *visitRepository) ListRecent(ctx context.Context, offset, limit int) ([]*models.Visit, int64, error) {
	var visits []*models.Visit
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Visit{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("entered_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&visits).Error

	return visits, total, err
}

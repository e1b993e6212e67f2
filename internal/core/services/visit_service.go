package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"libradesk/internal/adapters/persistence/models"
	"libradesk/internal/adapters/persistence/repositories"
	"libradesk/internal/core/domain"
	"libradesk/internal/pkg/pagination"
	"libradesk/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Visit errors
var (
	ErrVisitNotFound           = domain.ErrVisitNotFound
	ErrVisitAlreadyClosed      = domain.ErrVisitAlreadyClosed
	ErrVisitorIdentityRequired = domain.ErrVisitorIdentityRequired
)

// VisitService records gate entries and exits
type VisitService struct {
	visitRepo repositories.VisitRepository
	userRepo  repositories.UserRepository
	now       Clock
}

// NewVisitService creates a new visit service
func NewVisitService(visitRepo repositories.VisitRepository, userRepo repositories.UserRepository) *VisitService {
	return &VisitService{
		visitRepo: visitRepo,
		userRepo:  userRepo,
		now:       time.Now,
	}
}

// WithClock replaces the wall clock
func (s *VisitService) WithClock(c Clock) *VisitService {
	s.now = c
	return s
}

// VisitorInput identifies a visitor; at least one field is required and the
// first non-empty of UserID, StudentID, BadgeCode wins
type VisitorInput struct {
	UserID    string `json:"user_id" validate:"omitempty,numeric"`
	StudentID string `json:"student_id" validate:"max=30"`
	BadgeCode string `json:"badge_code" validate:"max=50"`
}

// CheckInInput represents a gate entry
type CheckInInput struct {
	VisitorInput
	Branch string `json:"branch" validate:"max=80"`
}

// CheckIn opens a visit. A visit the same visitor left open is closed first.
func (s *VisitService) CheckIn(ctx context.Context, input *CheckInInput, staffID uint) (*models.Visit, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	identity, userID, err := s.resolve(ctx, input.VisitorInput)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if open, err := s.visitRepo.FindOpen(ctx, string(identity.Kind), identity.Ref); err == nil {
		if err := s.visitRepo.Close(ctx, open.ID, now); err != nil {
			return nil, err
		}
		log.Warn().Uint("visit_id", open.ID).Str("visitor", identity.Key()).Msg("⚠️ Closed visit left open at re-entry")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	visit := &models.Visit{
		VisitorKind: string(identity.Kind),
		VisitorRef:  identity.Ref,
		UserID:      userID,
		Branch:      validation.NormalizeBranch(input.Branch),
		EnteredAt:   now,
	}
	if staffID != 0 {
		visit.RecordedBy = &staffID
	}
	if err := s.visitRepo.Create(ctx, visit); err != nil {
		return nil, err
	}

	log.Debug().Uint("visit_id", visit.ID).Str("visitor", identity.Key()).Str("branch", visit.Branch).Msg("🚪 Visitor checked in")
	return visit, nil
}

// CheckOut stamps the exit of a visit by id
func (s *VisitService) CheckOut(ctx context.Context, visitID uint) (*models.Visit, error) {
	visit, err := s.visitRepo.GetByID(ctx, visitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}
	return s.close(ctx, visit)
}

// CheckOutVisitor closes the visitor's open visit
func (s *VisitService) CheckOutVisitor(ctx context.Context, input *VisitorInput) (*models.Visit, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	identity, _, err := s.resolve(ctx, *input)
	if err != nil {
		return nil, err
	}

	visit, err := s.visitRepo.FindOpen(ctx, string(identity.Kind), identity.Ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}
	return s.close(ctx, visit)
}

// ListRecent lists visits newest first
func (s *VisitService) ListRecent(ctx context.Context, params *pagination.Params) ([]*models.Visit, int64, error) {
	return s.visitRepo.ListRecent(ctx, params.Offset, params.Limit)
}

func (s *VisitService) close(ctx context.Context, visit *models.Visit) (*models.Visit, error) {
	if visit.ExitedAt != nil {
		return nil, ErrVisitAlreadyClosed
	}
	now := s.now()
	if err := s.visitRepo.Close(ctx, visit.ID, now); err != nil {
		return nil, err
	}
	visit.ExitedAt = &now
	return visit, nil
}

// resolve turns the input into one identity. Registered users, including
// students whose id is on file, are linked by UserID.
func (s *VisitService) resolve(ctx context.Context, input VisitorInput) (domain.VisitorIdentity, *uint, error) {
	identity, err := domain.ResolveVisitor(input.UserID, input.StudentID, input.BadgeCode)
	if err != nil {
		return identity, nil, err
	}

	switch identity.Kind {
	case domain.VisitorUser:
		id, err := strconv.ParseUint(identity.Ref, 10, 64)
		if err != nil {
			return identity, nil, ErrUserNotFound
		}
		user, err := s.userRepo.GetByID(ctx, uint(id))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return identity, nil, ErrUserNotFound
			}
			return identity, nil, err
		}
		return identity, &user.ID, nil
	case domain.VisitorStudent:
		user, err := s.userRepo.GetByStudentID(ctx, identity.Ref)
		if err == nil {
			return identity, &user.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return identity, nil, err
		}
	}
	return identity, nil, nil
}

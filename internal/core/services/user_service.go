package services

import (
	"context"
	"errors"
	"strings"

	"libradesk/internal/adapters/persistence/models"
	"libradesk/internal/adapters/persistence/repositories"
	"libradesk/internal/core/domain"
	"libradesk/internal/pkg/pagination"
	"libradesk/internal/pkg/password"
	"libradesk/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// User service errors
var (
	ErrEmailAlreadyExists  = errors.New("email already exists")
	ErrOldPasswordWrong    = errors.New("old password is incorrect")
	ErrCannotDeleteSelf    = errors.New("cannot delete your own account")
	ErrCannotChangeOwnRole = errors.New("cannot change your own role")
	ErrInvalidRole         = errors.New("invalid role")
)

// UserService handles user management business logic
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// UpdateUserByAdminInput represents update user input (for admin)
type UpdateUserByAdminInput struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FullName  *string `json:"full_name" validate:"omitempty,max=150"`
	StudentID *string `json:"student_id" validate:"omitempty,max=30"`
	Role      *string `json:"role" validate:"omitempty,oneof=MEMBER LIBRARIAN ADMIN"`
	IsActive  *bool   `json:"is_active"`
}

// UpdateProfileInput represents update profile input (for self)
type UpdateProfileInput struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	FullName *string `json:"full_name" validate:"omitempty,max=150"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// ListUsers lists all users with pagination
func (s *UserService) ListUsers(ctx context.Context, params *pagination.Params) ([]*models.UserResponse, int64, error) {
	users, total, err := s.userRepo.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*models.UserResponse, len(users))
	for i, user := range users {
		out[i] = user.ToResponse()
	}
	return out, total, nil
}

// GetUserByID gets a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateUserByAdmin updates a user by admin
func (s *UserService) UpdateUserByAdmin(ctx context.Context, id uint, adminID uint, input *UpdateUserByAdminInput) (*models.UserResponse, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if id == adminID && input.Role != nil && *input.Role != user.Role {
		return nil, ErrCannotChangeOwnRole
	}

	if err := s.applyEmail(ctx, user, input.Email); err != nil {
		return nil, err
	}
	if input.FullName != nil {
		user.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.StudentID != nil {
		if err := s.applyStudentID(ctx, user, *input.StudentID); err != nil {
			return nil, err
		}
	}
	if input.Role != nil {
		role := domain.Role(*input.Role)
		if !role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = string(role)
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Info().Uint("user_id", id).Uint("admin_id", adminID).Msg("✏️ User updated by admin")
	return user.ToResponse(), nil
}

// DeleteUser deletes a user (soft delete)
func (s *UserService) DeleteUser(ctx context.Context, id uint, adminID uint) error {
	if id == adminID {
		return ErrCannotDeleteSelf
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, id)
}

// GetProfile gets own profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	return s.GetUserByID(ctx, userID)
}

// UpdateProfile updates own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.applyEmail(ctx, user, input.Email); err != nil {
		return nil, err
	}
	if input.FullName != nil {
		user.FullName = strings.TrimSpace(*input.FullName)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// ChangePassword changes user's password
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}
	if !password.ValidatePassword(input.NewPassword) {
		return ErrPasswordTooWeak
	}

	hashedPassword, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	user.Password = hashedPassword
	return s.userRepo.Update(ctx, user)
}

func (s *UserService) load(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) applyEmail(ctx context.Context, user *models.User, email *string) error {
	if email == nil {
		return nil
	}
	normalized := validation.NormalizeEmail(*email)
	if normalized == user.Email {
		return nil
	}
	exists, err := s.userRepo.ExistsByEmail(ctx, normalized)
	if err != nil {
		return err
	}
	if exists {
		return ErrEmailAlreadyExists
	}
	user.Email = normalized
	return nil
}

func (s *UserService) applyStudentID(ctx context.Context, user *models.User, raw string) error {
	sid := normalizeStudentID(raw)
	if sid == "" {
		user.StudentID = nil
		return nil
	}
	if user.StudentID != nil && *user.StudentID == sid {
		return nil
	}
	exists, err := s.userRepo.ExistsByStudentID(ctx, sid)
	if err != nil {
		return err
	}
	if exists {
		return ErrStudentIDAlreadyUsed
	}
	user.StudentID = &sid
	return nil
}

func normalizeStudentID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

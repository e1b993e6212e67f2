package services

import (
	"context"
	"errors"

	"libradesk/internal/adapters/persistence/models"
	"libradesk/internal/adapters/persistence/repositories"
	"libradesk/internal/config"
	"libradesk/internal/core/domain"
	"libradesk/internal/pkg/jwt"
	"libradesk/internal/pkg/password"
	"libradesk/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Auth errors
var (
	ErrUserNotFound         = domain.ErrUserNotFound
	ErrInvalidCredentials   = domain.ErrInvalidCredentials
	ErrUserAlreadyExists    = domain.ErrUserAlreadyExists
	ErrStudentIDAlreadyUsed = errors.New("student id already registered")
	ErrInvalidToken         = domain.ErrTokenInvalid
	ErrTokenExpired         = domain.ErrTokenExpired
	ErrTokenRevoked         = errors.New("token revoked")
	ErrUserInactive         = errors.New("user account is inactive")
	ErrPasswordTooWeak      = errors.New("password must be at least 8 characters and contain a letter and a digit")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		cfg:              cfg,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Username  string `json:"username" validate:"required,min=3,max=50,username"`
	Email     string `json:"email" validate:"required,email,max=100"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FullName  string `json:"full_name" validate:"required,max=150"`
	StudentID string `json:"student_id" validate:"omitempty,max=30"`
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Register registers a new member account
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	input.Username = validation.NormalizeUsername(input.Username)
	input.Email = validation.NormalizeEmail(input.Email)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if !password.ValidatePassword(input.Password) {
		return nil, ErrPasswordTooWeak
	}

	// 1. Unique username and email
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}
	exists, err = s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	// 2. Student id is optional but unique
	var studentID *string
	if input.StudentID != "" {
		sid := normalizeStudentID(input.StudentID)
		exists, err = s.userRepo.ExistsByStudentID(ctx, sid)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrStudentIDAlreadyUsed
		}
		studentID = &sid
	}

	// 3. Hash password
	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  input.Username,
		Email:     input.Email,
		FullName:  input.FullName,
		StudentID: studentID,
		Password:  hashedPassword,
		Role:      string(domain.RoleMember),
		IsActive:  true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	resp, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info().Uint("user_id", user.ID).Msgf("✅ User registered: %s", user.Username)
	return resp, nil
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, validation.NormalizeUsername(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !password.Verify(input.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	resp, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info().Uint("user_id", user.ID).Msgf("✅ User logged in: %s", user.Username)
	return resp, nil
}

// RefreshToken rotates the refresh token and issues a new access token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// 1. Validate refresh token JWT
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	// 2. Find the stored hash
	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if storedToken.IsRevoked() {
		return nil, ErrTokenRevoked
	}
	if storedToken.IsExpired() {
		return nil, ErrTokenExpired
	}

	// 3. Load user
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 4. Rotate
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	resp, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Debug().Uint("user_id", user.ID).Msg("🔄 Token refreshed")
	return resp, nil
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken)); err != nil {
		return err
	}

	log.Info().Msg("👋 User logged out")
	return nil
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	log.Info().Uint("user_id", userID).Msg("👋 All sessions revoked")
	return nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// CleanupExpiredTokens purges expired and revoked refresh tokens
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.refreshTokenRepo.DeleteExpired(ctx)
}

// issue generates a token pair, stores the refresh hash and builds the response
func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResponse, error) {
	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}

	stored := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: password.HashToken(tokens.RefreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	if err := s.refreshTokenRepo.Create(ctx, stored); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

func (s *AuthService) generateTokens(user *models.User) (*TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		user.ID,
		user.Username,
		user.Role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		uuid.New().String(),
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

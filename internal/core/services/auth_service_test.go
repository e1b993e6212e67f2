package services

import (
	"context"
	"testing"

	"libradesk/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture() (*memStore, *AuthService) {
	s := newMemStore()
	return s, NewAuthService(fakeUserRepo{s}, fakeTokenRepo{s}, testConfig())
}

func registerInput() *RegisterInput {
	return &RegisterInput{
		Username:  "  Ada.L ",
		Email:     "ADA@Example.org",
		Password:  "engine1843",
		FullName:  "Ada Lovelace",
		StudentID: "s-1815",
	}
}

func TestRegister(t *testing.T) {
	_, svc := newAuthFixture()
	ctx := context.Background()

	resp, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	assert.Equal(t, "ada.l", resp.User.Username)
	assert.Equal(t, "ada@example.org", resp.User.Email)
	assert.Equal(t, "S-1815", resp.User.StudentID)
	assert.Equal(t, string(domain.RoleMember), resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "MEMBER", claims.Role)

	_, err = svc.Register(ctx, registerInput())
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	dup := registerInput()
	dup.Username, dup.Email = "other", "other@example.org"
	_, err = svc.Register(ctx, dup)
	assert.ErrorIs(t, err, ErrStudentIDAlreadyUsed)
}

func TestRegister_WeakPassword(t *testing.T) {
	_, svc := newAuthFixture()

	in := registerInput()
	in.Password = "onlyletters"
	_, err := svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrPasswordTooWeak)
}

func TestLogin(t *testing.T) {
	s, svc := newAuthFixture()
	ctx := context.Background()
	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &LoginInput{Username: "ADA.L", Password: "engine1843"})
	require.NoError(t, err)
	assert.Equal(t, "ada.l", resp.User.Username)

	_, err = svc.Login(ctx, &LoginInput{Username: "ada.l", Password: "wrong1234"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginInput{Username: "nobody", Password: "engine1843"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := fakeUserRepo{s}.GetByUsername(ctx, "ada.l")
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, fakeUserRepo{s}.Update(ctx, user))
	_, err = svc.Login(ctx, &LoginInput{Username: "ada.l", Password: "engine1843"})
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestRefreshToken_Rotates(t *testing.T) {
	_, svc := newAuthFixture()
	ctx := context.Background()
	reg, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	rotated, err := svc.RefreshToken(ctx, reg.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, reg.RefreshToken, rotated.RefreshToken)

	_, err = svc.RefreshToken(ctx, reg.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.RefreshToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	_, svc := newAuthFixture()
	ctx := context.Background()
	reg, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	login, err := svc.Login(ctx, &LoginInput{Username: "ada.l", Password: "engine1843"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, reg.RefreshToken))
	_, err = svc.RefreshToken(ctx, reg.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.RefreshToken(ctx, login.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, svc.LogoutAll(ctx, reg.User.ID))
	n, err := svc.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

package services

import (
	"context"
	"testing"

	"libradesk/internal/adapters/persistence/models"
	"libradesk/internal/pkg/pagination"
	"libradesk/internal/pkg/password"
	"libradesk/internal/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserFixture(t *testing.T) (*UserService, *memStore, *models.User, *models.User) {
	t.Helper()
	store := newMemStore()
	hash, err := password.Hash("desk1234")
	require.NoError(t, err)

	admin := store.addUser(&models.User{Username: "root", Email: "root@lib.org", Password: hash, Role: "ADMIN", IsActive: true})
	ada := store.addUser(&models.User{Username: "ada", Email: "ada@lib.org", FullName: "Ada Lovelace", Password: hash, Role: "MEMBER", IsActive: true, StudentID: strPtr("S-1")})
	store.addUser(&models.User{Username: "grace", Email: "grace@lib.org", Password: hash, Role: "MEMBER", IsActive: true, StudentID: strPtr("S-2")})
	return NewUserService(fakeUserRepo{store}), store, admin, ada
}

func TestUserService_ListUsers(t *testing.T) {
	svc, _, _, _ := newUserFixture(t)

	users, total, err := svc.ListUsers(context.Background(), &pagination.Params{Page: 1, Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, users, 2)
	assert.Equal(t, "root", users[0].Username)
}

func TestUserService_UpdateUserByAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("promotes and normalises", func(t *testing.T) {
		svc, store, admin, ada := newUserFixture(t)
		resp, err := svc.UpdateUserByAdmin(ctx, ada.ID, admin.ID, &UpdateUserByAdminInput{
			Role:      strPtr("LIBRARIAN"),
			StudentID: strPtr(" s-9 "),
			Email:     strPtr("ADA@Lib.org"),
		})
		require.NoError(t, err)
		assert.Equal(t, "LIBRARIAN", resp.Role)
		assert.Equal(t, "S-9", resp.StudentID)
		assert.Equal(t, "ada@lib.org", store.users[ada.ID].Email)
	})

	t.Run("duplicate student id", func(t *testing.T) {
		svc, _, admin, ada := newUserFixture(t)
		_, err := svc.UpdateUserByAdmin(ctx, ada.ID, admin.ID, &UpdateUserByAdminInput{StudentID: strPtr("s-2")})
		assert.ErrorIs(t, err, ErrStudentIDAlreadyUsed)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _, admin, ada := newUserFixture(t)
		_, err := svc.UpdateUserByAdmin(ctx, ada.ID, admin.ID, &UpdateUserByAdminInput{Email: strPtr("grace@lib.org")})
		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	})

	t.Run("own role", func(t *testing.T) {
		svc, _, admin, _ := newUserFixture(t)
		_, err := svc.UpdateUserByAdmin(ctx, admin.ID, admin.ID, &UpdateUserByAdminInput{Role: strPtr("MEMBER")})
		assert.ErrorIs(t, err, ErrCannotChangeOwnRole)
	})

	t.Run("unknown role", func(t *testing.T) {
		svc, _, admin, ada := newUserFixture(t)
		_, err := svc.UpdateUserByAdmin(ctx, ada.ID, admin.ID, &UpdateUserByAdminInput{Role: strPtr("WIZARD")})
		var verr *validation.Error
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("missing user", func(t *testing.T) {
		svc, _, admin, _ := newUserFixture(t)
		_, err := svc.UpdateUserByAdmin(ctx, 999, admin.ID, &UpdateUserByAdminInput{})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	svc, store, admin, ada := newUserFixture(t)

	assert.ErrorIs(t, svc.DeleteUser(ctx, admin.ID, admin.ID), ErrCannotDeleteSelf)
	assert.ErrorIs(t, svc.DeleteUser(ctx, 999, admin.ID), ErrUserNotFound)

	require.NoError(t, svc.DeleteUser(ctx, ada.ID, admin.ID))
	_, ok := store.users[ada.ID]
	assert.False(t, ok)
}

func TestUserService_Profile(t *testing.T) {
	ctx := context.Background()
	svc, _, _, ada := newUserFixture(t)

	resp, err := svc.UpdateProfile(ctx, ada.ID, &UpdateProfileInput{FullName: strPtr("  Augusta Ada King ")})
	require.NoError(t, err)
	assert.Equal(t, "Augusta Ada King", resp.FullName)

	profile, err := svc.GetProfile(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "Augusta Ada King", profile.FullName)
}

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong old password", func(t *testing.T) {
		svc, _, _, ada := newUserFixture(t)
		err := svc.ChangePassword(ctx, ada.ID, &ChangePasswordInput{OldPassword: "nope12345", NewPassword: "fresh12345"})
		assert.ErrorIs(t, err, ErrOldPasswordWrong)
	})

	t.Run("weak new password", func(t *testing.T) {
		svc, _, _, ada := newUserFixture(t)
		err := svc.ChangePassword(ctx, ada.ID, &ChangePasswordInput{OldPassword: "desk1234", NewPassword: "onlyletters"})
		assert.ErrorIs(t, err, ErrPasswordTooWeak)
	})

	t.Run("changes hash", func(t *testing.T) {
		svc, store, _, ada := newUserFixture(t)
		require.NoError(t, svc.ChangePassword(ctx, ada.ID, &ChangePasswordInput{OldPassword: "desk1234", NewPassword: "fresh12345"}))
		assert.True(t, password.Verify("fresh12345", store.users[ada.ID].Password))
	})
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"libradesk/internal/adapters/persistence/models"
	"libradesk/internal/core/domain"
	"libradesk/internal/pkg/pagination"
	"libradesk/internal/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loanFixture struct {
	store  *memStore
	svc    *LoanService
	member *models.User
	book   *models.Book
}

func newLoanFixture(t *testing.T) *loanFixture {
	t.Helper()
	s := newMemStore()
	f := &loanFixture{
		store:  s,
		svc:    NewLoanService(fakeLoanRepo{s}, fakeUserRepo{s}, testConfig().Library).WithClock(fixedClock()),
		member: s.addUser(&models.User{Username: "ada", FullName: "Ada Lovelace", Role: "MEMBER", IsActive: true}),
		book:   s.addBook(&models.Book{ISBN: "9780262033848", Title: "Algorithms", Author: "Cormen", CopiesTotal: 2, CopiesAvailable: 2}),
	}
	return f
}

func (f *loanFixture) available(t *testing.T) int {
	t.Helper()
	b, err := fakeBookRepo{f.store}.GetByID(context.Background(), f.book.ID)
	require.NoError(t, err)
	return b.CopiesAvailable
}

func TestCheckout_DefaultDueDate(t *testing.T) {
	f := newLoanFixture(t)

	resp, err := f.svc.Checkout(context.Background(), &CheckoutInput{UserID: f.member.ID, BookID: f.book.ID}, 99)
	require.NoError(t, err)

	assert.Equal(t, deskNow, resp.BorrowedAt)
	assert.Equal(t, deskNow.AddDate(0, 0, 14), resp.DueAt)
	assert.Nil(t, resp.ReturnedAt)
	assert.Equal(t, "active", string(resp.Status.Key))
	assert.Equal(t, ActiveLoanLabel, resp.Status.Label)
	assert.Equal(t, "Ada Lovelace", resp.Borrower)
	assert.Equal(t, "Algorithms", resp.BookTitle)
	assert.Equal(t, 1, f.available(t))
}

func TestCheckout_ExplicitDueDate(t *testing.T) {
	f := newLoanFixture(t)

	resp, err := f.svc.Checkout(context.Background(), &CheckoutInput{
		UserID: f.member.ID,
		BookID: f.book.ID,
		DueAt:  "2024-06-20",
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), resp.DueAt.UTC())
}

func TestCheckout_RejectsBadDueDate(t *testing.T) {
	f := newLoanFixture(t)

	for _, due := range []string{"2024-06-01", "soon", "2024-06-12T12:00:00Z"} {
		_, err := f.svc.Checkout(context.Background(), &CheckoutInput{UserID: f.member.ID, BookID: f.book.ID, DueAt: due}, 0)
		assert.ErrorIs(t, err, ErrInvalidDueDate, due)
	}
	assert.Equal(t, 2, f.available(t))
}

func TestCheckout_NoCopiesLeft(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()
	in := &CheckoutInput{UserID: f.member.ID, BookID: f.book.ID}

	_, err := f.svc.Checkout(ctx, in, 0)
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, in, 0)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, in, 0)
	assert.ErrorIs(t, err, ErrNoCopiesAvailable)
	assert.Equal(t, 0, f.available(t))
}

func TestCheckout_BorrowerChecks(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, &CheckoutInput{UserID: 404, BookID: f.book.ID}, 0)
	assert.ErrorIs(t, err, ErrUserNotFound)

	inactive := f.store.addUser(&models.User{Username: "gone", IsActive: false})
	_, err = f.svc.Checkout(ctx, &CheckoutInput{UserID: inactive.ID, BookID: f.book.ID}, 0)
	assert.ErrorIs(t, err, ErrUserInactive)

	_, err = f.svc.Checkout(ctx, &CheckoutInput{UserID: f.member.ID, BookID: 404}, 0)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestCheckout_Validation(t *testing.T) {
	f := newLoanFixture(t)

	_, err := f.svc.Checkout(context.Background(), &CheckoutInput{UserID: f.member.ID}, 0)
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "book_id")
}

func TestReturn_OnlyOnce(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()

	out, err := f.svc.Checkout(ctx, &CheckoutInput{UserID: f.member.ID, BookID: f.book.ID}, 0)
	require.NoError(t, err)

	resp, err := f.svc.Return(ctx, out.ID, 7)
	require.NoError(t, err)
	require.NotNil(t, resp.ReturnedAt)
	assert.Equal(t, deskNow, *resp.ReturnedAt)
	assert.Equal(t, "returned", string(resp.Status.Key))
	assert.Equal(t, 2, f.available(t))

	_, err = f.svc.Return(ctx, out.ID, 7)
	assert.ErrorIs(t, err, ErrLoanAlreadyReturned)
	assert.Equal(t, 2, f.available(t))

	_, err = f.svc.Return(ctx, 404, 7)
	assert.ErrorIs(t, err, ErrLoanNotFound)
}

func TestGet_OverdueAndOwnership(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()
	loan := f.store.addLoan(&models.Loan{
		UserID:     f.member.ID,
		BookID:     f.book.ID,
		BorrowedAt: deskNow.AddDate(0, 0, -30),
		DueAt:      deskNow.AddDate(0, 0, -16),
	})

	resp, err := f.svc.Get(ctx, loan.ID, f.member.ID, domain.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, "overdue", string(resp.Status.Key))

	_, err = f.svc.Get(ctx, loan.ID, f.member.ID+100, domain.RoleMember)
	assert.ErrorIs(t, err, ErrNotYourLoan)

	_, err = f.svc.Get(ctx, loan.ID, f.member.ID+100, domain.RoleLibrarian)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, 404, f.member.ID, domain.RoleAdmin)
	assert.ErrorIs(t, err, ErrLoanNotFound)
}

func TestList_StatusFilter(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()
	returned := deskNow.AddDate(0, 0, -2)
	f.store.addLoan(&models.Loan{UserID: f.member.ID, BookID: f.book.ID, BorrowedAt: deskNow.AddDate(0, 0, -30), DueAt: deskNow.AddDate(0, 0, -16)})
	f.store.addLoan(&models.Loan{UserID: f.member.ID, BookID: f.book.ID, BorrowedAt: deskNow.AddDate(0, 0, -3), DueAt: deskNow.AddDate(0, 0, 11)})
	f.store.addLoan(&models.Loan{UserID: f.member.ID, BookID: f.book.ID, BorrowedAt: deskNow.AddDate(0, 0, -9), DueAt: deskNow.AddDate(0, 0, 5), ReturnedAt: &returned})

	params := pagination.ParseParams("1", "10")

	cases := map[string]string{"overdue": "overdue", "ACTIVE": "active", "returned": "returned"}
	for filter, key := range cases {
		loans, total, err := f.svc.List(ctx, LoanListInput{Status: filter}, params)
		require.NoError(t, err, filter)
		require.EqualValues(t, 1, total, filter)
		assert.Equal(t, key, string(loans[0].Status.Key), filter)
	}

	all, total, err := f.svc.List(ctx, LoanListInput{UserID: uintPtr(f.member.ID)}, params)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	_, _, err = f.svc.List(ctx, LoanListInput{Status: "lost"}, params)
	assert.ErrorIs(t, err, ErrInvalidLoanStatus)
}

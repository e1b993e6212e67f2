package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVisitor_Precedence(t *testing.T) {
	v, err := ResolveVisitor("12", "s-99", "b-1")
	require.NoError(t, err)
	assert.Equal(t, VisitorIdentity{Kind: VisitorUser, Ref: "12"}, v)

	v, err = ResolveVisitor(" ", "s-99", "b-1")
	require.NoError(t, err)
	assert.Equal(t, VisitorIdentity{Kind: VisitorStudent, Ref: "S-99"}, v)
	assert.Equal(t, "student:S-99", v.Key())

	v, err = ResolveVisitor("", "", " b-1 ")
	require.NoError(t, err)
	assert.Equal(t, VisitorBadge, v.Kind)
	assert.Equal(t, "B-1", v.Ref)

	_, err = ResolveVisitor("", "", "")
	assert.ErrorIs(t, err, ErrVisitorIdentityRequired)
}

func TestParseLoanStatusFilter(t *testing.T) {
	f, err := ParseLoanStatusFilter(" Overdue ")
	require.NoError(t, err)
	assert.Equal(t, LoanFilterOverdue, f)

	f, err = ParseLoanStatusFilter("")
	require.NoError(t, err)
	assert.Equal(t, LoanFilterAll, f)

	_, err = ParseLoanStatusFilter("lost")
	assert.ErrorIs(t, err, ErrInvalidLoanStatus)
}

func TestRole(t *testing.T) {
	assert.True(t, RoleLibrarian.IsStaff())
	assert.True(t, RoleAdmin.IsStaff())
	assert.False(t, RoleMember.IsStaff())
	assert.False(t, Role("USER").Valid())
}

package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"omitempty,oneof=MEMBER LIBRARIAN ADMIN"`
	ISBN     string `json:"isbn" validate:"omitempty,isbn"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(signup{Username: "ada.l", Email: "ada@example.org", ISBN: "9780262033848"})
	assert.NoError(t, err)
}

func TestStruct_FieldMessages(t *testing.T) {
	err := Struct(signup{Username: "ab", Email: "nope", Role: "OWNER", ISBN: "123"})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "username must be at least 3 characters", verr.Fields["username"])
	assert.Equal(t, "email must be a valid email address", verr.Fields["email"])
	assert.Equal(t, "role must be one of: MEMBER LIBRARIAN ADMIN", verr.Fields["role"])
	assert.Equal(t, "isbn must be a valid ISBN-10 or ISBN-13", verr.Fields["isbn"])
}

func TestStruct_Required(t *testing.T) {
	err := Struct(signup{})

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "username is required", verr.Fields["username"])
	assert.Equal(t, "email is required", verr.Fields["email"])
	assert.NotContains(t, verr.Fields, "role")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ada@example.org", NormalizeEmail("  Ada@Example.ORG "))
	assert.Equal(t, "ada", NormalizeUsername(" ADA"))
	assert.Equal(t, "9780262033848", NormalizeISBN("978-0-262-03384-8"))
	assert.Equal(t, "080442957X", NormalizeISBN("0-8044-2957-x"))
	assert.Equal(t, "Science Fiction", NormalizeGenre("  science   FICTION "))
	assert.Equal(t, "", NormalizeGenre("   "))
	assert.Equal(t, "North Wing", NormalizeBranch(" North   Wing "))
}

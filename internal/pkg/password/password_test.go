package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	SetCost(bcrypt.MinCost)
	defer SetCost(DefaultCost)

	hash, err := Hash("shelf1234")
	require.NoError(t, err)
	assert.NotEqual(t, "shelf1234", hash)
	assert.True(t, Verify("shelf1234", hash))
	assert.False(t, Verify("shelf12345", hash))
}

func TestHashToken(t *testing.T) {
	a := HashToken("token")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashToken("token"))
	assert.NotEqual(t, a, HashToken("token2"))
}

func TestValidatePassword(t *testing.T) {
	assert.True(t, ValidatePassword("reading42"))
	assert.False(t, ValidatePassword("short1"))
	assert.False(t, ValidatePassword("onlyletters"))
	assert.False(t, ValidatePassword("12345678"))
}

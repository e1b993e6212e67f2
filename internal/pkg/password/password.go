package password

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost = 12

	// MinLength is the shortest accepted password
	MinLength = 8
)

// cost is lowered by tests through SetCost
var cost = DefaultCost

// SetCost overrides the bcrypt cost; values outside bcrypt's range reset to DefaultCost
func SetCost(c int) {
	if c < bcrypt.MinCost || c > bcrypt.MaxCost {
		c = DefaultCost
	}
	cost = c
}

// Hash hashes a password using bcrypt
func Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify compares a password with a hash
func Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashToken hashes a token using SHA256 (for refresh tokens)
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ValidatePassword requires MinLength characters with at least one letter and one digit
func ValidatePassword(password string) bool {
	if len(password) < MinLength {
		return false
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

package cryptox

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is the bcrypt input limit in bytes.
const MaxPasswordLength = 72

// HashPassword returns a bcrypt hash of password at the given cost.
func HashPassword(password []byte, cost int) (string, error) {
	if len(password) == 0 || len(password) > MaxPasswordLength {
		return "", fmt.Errorf("%w: password length", common.ErrInvalidInput)
	}
	h, err := bcrypt.GenerateFromPassword(password, cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password length", common.ErrInvalidInput)
		}
		return "", fmt.Errorf("%w: %v", common.ErrDerivationFailure, err)
	}
	return string(h), nil
}

// CheckPassword compares password against a bcrypt hash in constant time.
func CheckPassword(hash string, password []byte) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), password) == nil
}

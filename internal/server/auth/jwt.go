// Package auth issues and checks operator tokens. Operators are the
// administrators allowed to deactivate and reactivate wallets and to read
// wallet summaries; end users authenticate with sessions instead.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// RoleOperator is the only role an operator token can carry.
const RoleOperator = "operator"

// Claims are the standard claims plus the role the bearer acts in.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// GenerateToken signs an HS256 operator token for subject.
func GenerateToken(subject string, secretKey []byte, validityDuration time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: empty operator subject", common.ErrInvalidInput)
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Role: RoleOperator,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetOperatorFromToken validates tokenString and returns its subject. Every
// failure is reported as common.ErrInvalidCredentials; expiry is
// distinguishable through errors.Is(err, jwt.ErrTokenExpired) for logging.
func GetOperatorFromToken(tokenString string, secretKey []byte) (string, error) {
	return ParseOperator(tokenString, secretKey, 0)
}

// ParseOperator is GetOperatorFromToken that also rejects tokens minted with
// a lifetime (exp - iat) above maxValidity. Zero disables the check.
func ParseOperator(tokenString string, secretKey []byte, maxValidity time.Duration) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.Join(common.ErrInvalidCredentials, jwt.ErrTokenExpired)
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidCredentials, err)
	}

	if !token.Valid || claims.Role != RoleOperator || claims.Subject == "" {
		return "", common.ErrInvalidCredentials
	}

	if maxValidity > 0 {
		if claims.IssuedAt == nil || claims.ExpiresAt.Sub(claims.IssuedAt.Time) > maxValidity {
			return "", fmt.Errorf("%w: operator token lifetime above %s", common.ErrInvalidCredentials, maxValidity)
		}
	}

	return claims.Subject, nil
}

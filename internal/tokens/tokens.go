// Package tokens issues and verifies the bearer tokens used as identity
// credentials. Tokens are HMAC-signed JWTs carrying the user id as subject;
// there is no refresh, rotation or server-side invalidation.
package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Vukotije/audiotheca/internal/app/domain/user"
	"github.com/Vukotije/audiotheca/internal/errors"
)

// Claims is the JWT payload. Role is informational; authorization always
// re-reads the user record so bans and demotions take effect immediately.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with a shared HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates an Issuer. ttl bounds token validity; zero means the
// 24h default. A negative ttl passes through and mints already-expired
// tokens.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for the given user.
func (i *Issuer) Issue(u user.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", errors.Internal("sign token", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.InvalidToken(nil).WithDetails("method", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, errors.InvalidToken(err)
	}
	if !token.Valid {
		return nil, errors.InvalidToken(nil)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, errors.InvalidToken(nil)
	}
	return claims, nil
}

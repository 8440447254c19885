package auth

import (
	"time"

	"failly/domain"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims is the payload stored inside a signed token.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates the HS256 tokens used by the HTTP
// surface. Socket registration deliberately stays token-free.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) TokenManager {
	return TokenManager{secret: []byte(secret), ttl: ttl}
}

// Generate creates a signed token for a user.
func (m TokenManager) Generate(userID domain.UserID) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: string(userID),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "failly",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses a token, checks signature and expiry, and returns the
// owning user.
func (m TokenManager) Validate(tokenString string) (domain.UserID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return domain.UserID(claims.UserID), nil
	}
	return "", jwt.ErrSignatureInvalid
}

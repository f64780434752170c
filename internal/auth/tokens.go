package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail validation.
var ErrInvalidToken = errors.New("invalid or expired token")

// HostClaims identify the host allowed to control sessions it created.
type HostClaims struct {
	HostID string `json:"hostId"`
	jwt.RegisteredClaims
}

// TokenService issues and validates host tokens. Session control commands
// arrive with one of these; participants join by code and never need a
// token.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// IssueHostToken signs a token for a host id.
func (s *TokenService) IssueHostToken(hostID string) (string, error) {
	now := s.now()
	claims := &HostClaims{
		HostID: hostID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateHostToken verifies a token and returns the host id it names.
func (s *TokenService) ValidateHostToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &HostClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*HostClaims)
	if !ok || !token.Valid || claims.HostID == "" {
		return "", ErrInvalidToken
	}
	return claims.HostID, nil
}

package invite

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// Service signs and verifies private-match invite tokens. A token grants
// entry to exactly one match and carries no other privileges.
type Service struct {
	secret string
	issuer string
	ttl    time.Duration
}

// DefaultTTL is the invite token lifetime used when none is configured.
const DefaultTTL = 24 * time.Hour

// NewService constructs an invite token service. ttl may be zero to use
// DefaultTTL.
func NewService(secret, issuer string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{secret: secret, issuer: issuer, ttl: ttl}
}

// GenerateToken issues a signed invite for the given match, created by the
// given user.
func (s *Service) GenerateToken(creatorID, matchID string) (string, error) {
	if s == nil || s.secret == "" {
		return "", fmt.Errorf("invite service is not configured")
	}
	if matchID == "" {
		return "", fmt.Errorf("match id is required")
	}

	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": creatorID,
		"exp": time.Now().Add(s.ttl).Unix(),
		"mid": matchID,
		"jti": fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Int63()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// VerifyToken checks signature and expiry and returns the match id the
// invite admits to.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	if s == nil || s.secret == "" {
		return "", fmt.Errorf("invite service is not configured")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid invite token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid invite token claims")
	}
	matchID, ok := claims["mid"].(string)
	if !ok || matchID == "" {
		return "", fmt.Errorf("invite token missing match id")
	}
	return matchID, nil
}

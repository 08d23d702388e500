package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/ppa-crm/internal/domain"
)

// TokenManager handles issuing and validating JWT session tokens.
type TokenManager struct {
	secret []byte
	ttl    map[domain.SubjectType]time.Duration
	now    func() time.Time
}

// TokenTTLs configures token lifetimes per credential class.
type TokenTTLs struct {
	Buyer    time.Duration
	Employee time.Duration
	Admin    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttls TokenTTLs) *TokenManager {
	fallback := 24 * time.Hour
	pick := func(d time.Duration) time.Duration {
		if d <= 0 {
			return fallback
		}
		return d
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl: map[domain.SubjectType]time.Duration{
			domain.SubjectTypeBuyer:    pick(ttls.Buyer),
			domain.SubjectTypeEmployee: pick(ttls.Employee),
			domain.SubjectTypeAdmin:    pick(ttls.Admin),
		},
		now: time.Now,
	}
}

// Claims describes the JWT payload. The role is informational only;
// employee roles are always re-read from storage.
type Claims struct {
	Kind  domain.SubjectType `json:"kind"`
	Email string             `json:"email"`
	Role  *domain.Role       `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken builds and signs a JWT for the subject.
func (tm *TokenManager) GenerateToken(subjectID, email string, kind domain.SubjectType, role *domain.Role) (string, time.Time, error) {
	ttl, ok := tm.ttl[kind]
	if !ok {
		return "", time.Time{}, errors.New("unknown subject type")
	}
	now := tm.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Kind:  kind,
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// TTL returns the lifetime of tokens for the subject type.
func (tm *TokenManager) TTL(kind domain.SubjectType) time.Duration {
	return tm.ttl[kind]
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" || kindForSubject(claims.Kind) == KindAnonymous {
		return nil, errors.New("incomplete token claims")
	}
	return claims, nil
}

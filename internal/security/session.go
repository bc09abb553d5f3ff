package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid covers malformed tokens and signature mismatches.
	ErrTokenInvalid = errors.New("invalid session token")
	// ErrSessionExpired means the signature verified but the token is past
	// its expiry. The HTTP layer treats both uniformly as unauthorized;
	// the split exists for logging and tests.
	ErrSessionExpired = errors.New("session expired")
)

// SessionManager mints and verifies the stateless session tokens that stand
// in for server-side sessions. A token is valid iff its HS256 signature
// checks out against the configured secret and it has not expired. Rotating
// the secret invalidates every outstanding session, which is the only
// revocation mechanism.
type SessionManager struct {
	issuer string
	secret []byte
	ttl    time.Duration
}

func NewSessionManager(issuer, secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{issuer: issuer, secret: []byte(secret), ttl: ttl}
}

func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Mint produces a signed token asserting the given email identity for the
// configured TTL.
func (m *SessionManager) Mint(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify checks signature and expiry and returns the subject email.
func (m *SessionManager) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrSessionExpired
		}
		return "", ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

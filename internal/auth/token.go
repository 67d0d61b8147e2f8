package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "servicedesk"

// TokenManager signs and checks session tokens so the CLI can keep a user
// logged in between commands.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a manager. A nil clock means time.Now.
func NewTokenManager(secret string, ttl time.Duration, now func() time.Time) *TokenManager {
	if now == nil {
		now = time.Now
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: now}
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// Issue returns a signed token for the session.
func (m *TokenManager) Issue(s Session) (string, error) {
	now := m.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Staff.LoginID,
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: s.Staff.Position,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks a token and returns the login ID it was issued to.
func (m *TokenManager) Verify(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token is empty")
	}

	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid token claims")
	}
	return claims.Subject, nil
}

// Resume turns a token back into a session. The staff member must still
// exist and be active; the PIN is not asked again.
func (d *Directory) Resume(m *TokenManager, token string) (Session, error) {
	loginID, err := m.Verify(token)
	if err != nil {
		return Session{}, err
	}
	s, ok := d.Lookup(loginID)
	if !ok || !s.Active() {
		return Session{}, fmt.Errorf("session for %s is no longer valid", loginID)
	}
	return Session{Staff: s}, nil
}

package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"aidanwoods.dev/go-paseto"
	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// TokenManager issues and verifies signed, time-limited session tokens.
type TokenManager interface {
	Issue(subject string, ttl time.Duration) (string, time.Time, error)
	Verify(token string) (*domain.Claims, error)
	TTL() time.Duration
}

// NewTokenManager builds the manager selected by cfg.TokenFormat.
func NewTokenManager(cfg config.AuthConfig) (TokenManager, error) {
	switch cfg.TokenFormat {
	case "", "jwt":
		return NewJWTManager(cfg.SecretKey, cfg.AccessTokenTTL()), nil
	case "paseto":
		return NewPasetoManager(cfg.SecretKey, cfg.AccessTokenTTL())
	default:
		return nil, fmt.Errorf("unsupported token format %q", cfg.TokenFormat)
	}
}

// JWTManager handles HS256 JWT tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTManager builds a new manager.
func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the default token lifetime.
func (m *JWTManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a JWT for subject. A non-positive ttl uses the default.
func (m *JWTManager) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = m.ttl
	}
	now := m.now()
	expiresAt := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify validates the signature, then expiry, and returns the claims.
func (m *JWTManager) Verify(tokenStr string) (*domain.Claims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	out := &domain.Claims{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// PasetoManager handles v4.local PASETO tokens.
type PasetoManager struct {
	key paseto.V4SymmetricKey
	ttl time.Duration
	now func() time.Time
}

// NewPasetoManager derives a 32-byte symmetric key from secret.
func NewPasetoManager(secret string, ttl time.Duration) (*PasetoManager, error) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	raw := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("auth-service paseto v4.local")), raw); err != nil {
		return nil, fmt.Errorf("derive paseto key: %w", err)
	}
	key, err := paseto.V4SymmetricKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("create symmetric key: %w", err)
	}
	return &PasetoManager{key: key, ttl: ttl, now: time.Now}, nil
}

// TTL returns the default token lifetime.
func (m *PasetoManager) TTL() time.Duration {
	return m.ttl
}

// Issue encrypts a token for subject. A non-positive ttl uses the default.
func (m *PasetoManager) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = m.ttl
	}
	now := m.now()
	expiresAt := now.Add(ttl)

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expiresAt)
	token.SetSubject(subject)

	return token.V4Encrypt(m.key, nil), expiresAt, nil
}

// Verify decrypts the token, then checks expiry against the manager clock.
func (m *PasetoManager) Verify(tokenStr string) (*domain.Claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	token, err := parser.ParseV4Local(m.key, tokenStr, nil)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	subject, err := token.GetSubject()
	if err != nil || subject == "" {
		return nil, ErrTokenInvalid
	}
	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if !m.now().Before(expiresAt) {
		return nil, ErrTokenExpired
	}

	out := &domain.Claims{Subject: subject, ExpiresAt: expiresAt}
	if issuedAt, err := token.GetIssuedAt(); err == nil {
		out.IssuedAt = issuedAt
	}
	return out, nil
}

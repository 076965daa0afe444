package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/config"
)

func newManagers(t *testing.T, secret string, ttl time.Duration) map[string]TokenManager {
	t.Helper()
	pasetoMgr, err := NewPasetoManager(secret, ttl)
	require.NoError(t, err)
	return map[string]TokenManager{
		"jwt":    NewJWTManager(secret, ttl),
		"paseto": pasetoMgr,
	}
}

func setClock(m TokenManager, now func() time.Time) {
	switch mgr := m.(type) {
	case *JWTManager:
		mgr.now = now
	case *PasetoManager:
		mgr.now = now
	}
}

func TestIssueAndVerify(t *testing.T) {
	for name, mgr := range newManagers(t, "super-secret", time.Hour) {
		t.Run(name, func(t *testing.T) {
			token, expiresAt, err := mgr.Issue("a@x.com", 0)
			require.NoError(t, err)
			require.NotEmpty(t, token)
			require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 2*time.Second)

			claims, err := mgr.Verify(token)
			require.NoError(t, err)
			require.Equal(t, "a@x.com", claims.Subject)
			require.WithinDuration(t, expiresAt, claims.ExpiresAt, time.Second)
			require.False(t, claims.IssuedAt.IsZero())
		})
	}
}

func TestVerifyExpired(t *testing.T) {
	for name, mgr := range newManagers(t, "super-secret", time.Minute) {
		t.Run(name, func(t *testing.T) {
			token, _, err := mgr.Issue("a@x.com", time.Minute)
			require.NoError(t, err)

			setClock(mgr, func() time.Time { return time.Now().Add(2 * time.Minute) })

			_, err = mgr.Verify(token)
			require.ErrorIs(t, err, ErrTokenExpired)
		})
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuers := newManagers(t, "right-secret", time.Hour)
	verifiers := newManagers(t, "wrong-secret", time.Hour)

	for name, issuer := range issuers {
		t.Run(name, func(t *testing.T) {
			token, _, err := issuer.Issue("a@x.com", 0)
			require.NoError(t, err)

			_, err = verifiers[name].Verify(token)
			require.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestVerifyExpiredWithWrongSecretIsInvalid(t *testing.T) {
	issuers := newManagers(t, "right-secret", time.Minute)
	verifiers := newManagers(t, "wrong-secret", time.Minute)

	for name, issuer := range issuers {
		t.Run(name, func(t *testing.T) {
			token, _, err := issuer.Issue("a@x.com", time.Minute)
			require.NoError(t, err)

			verifier := verifiers[name]
			setClock(verifier, func() time.Time { return time.Now().Add(time.Hour) })

			_, err = verifier.Verify(token)
			require.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestVerifyMalformed(t *testing.T) {
	for name, mgr := range newManagers(t, "k", time.Hour) {
		t.Run(name, func(t *testing.T) {
			for _, token := range []string{"", "not.a.jwt", "v4.local.garbage", strings.Repeat("x", 64)} {
				_, err := mgr.Verify(token)
				require.ErrorIs(t, err, ErrTokenInvalid, "token %q", token)
			}
		})
	}
}

func TestJWTRejectsTamperedPayload(t *testing.T) {
	mgr := NewJWTManager("secret", time.Hour)
	token, _, err := mgr.Issue("a@x.com", 0)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	other, _, err := mgr.Issue("admin@x.com", 0)
	require.NoError(t, err)
	forged := parts[0] + "." + strings.Split(other, ".")[1] + "." + parts[2]

	_, err = mgr.Verify(forged)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTRejectsNoneAlgorithm(t *testing.T) {
	mgr := NewJWTManager("secret", time.Hour)
	// {"alg":"none","typ":"JWT"} . {"sub":"a@x.com","exp":9999999999}
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJhQHguY29tIiwiZXhwIjo5OTk5OTk5OTk5fQ."

	_, err := mgr.Verify(unsigned)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNewTokenManagerSelectsFormat(t *testing.T) {
	mgr, err := NewTokenManager(config.AuthConfig{SecretKey: "s", TokenFormat: "jwt", AccessTokenTTLMinutes: 5})
	require.NoError(t, err)
	require.IsType(t, &JWTManager{}, mgr)
	require.Equal(t, 5*time.Minute, mgr.TTL())

	mgr, err = NewTokenManager(config.AuthConfig{SecretKey: "s", TokenFormat: "paseto"})
	require.NoError(t, err)
	require.IsType(t, &PasetoManager{}, mgr)
	require.Equal(t, 30*time.Minute, mgr.TTL())

	_, err = NewTokenManager(config.AuthConfig{SecretKey: "s", TokenFormat: "opaque"})
	require.Error(t, err)
}

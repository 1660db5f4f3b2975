package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatwire/internal/core/domain"
)

func signedToken(t *testing.T, secret, sub string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": sub,
		"iat": time.Now().Unix(),
		"exp": exp.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestTokenService_VerifiedInspect(t *testing.T) {
	svc := NewTokenService(discardLogger(), "top-secret")

	tok := signedToken(t, "top-secret", "user-1", time.Now().Add(time.Hour))
	claims, err := svc.Inspect(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)

	_, err = svc.Inspect(signedToken(t, "wrong-secret", "user-1", time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokenService_ExpiredTokenRejected(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{name: "verified", secret: "top-secret"},
		{name: "unverified", secret: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewTokenService(discardLogger(), tt.secret)
			tok := signedToken(t, "top-secret", "user-1", time.Now().Add(-time.Minute))
			_, err := svc.Inspect(tok)
			assert.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}
}

func TestTokenService_UnverifiedReadsSubject(t *testing.T) {
	// Without a configured secret the client trusts the server's signature
	// and only reads the claims.
	svc := NewTokenService(discardLogger(), "")
	tok := signedToken(t, "whatever", "user-7", time.Now().Add(time.Hour))

	claims, err := svc.Inspect(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-7", claims.Subject)
}

func TestTokenService_GarbageRejected(t *testing.T) {
	svc := NewTokenService(discardLogger(), "")
	_, err := svc.Inspect("not.a.token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestSessionService_TokenChangePublishesDiscreteUpdates(t *testing.T) {
	tokens := NewTokenService(discardLogger(), "")
	session := NewSessionService(discardLogger(), tokens)

	tokA := signedToken(t, "s", "user-1", time.Now().Add(time.Hour))
	require.NoError(t, session.SetToken(tokA))
	assert.Equal(t, "user-1", session.UserID())
	assert.Equal(t, tokA, session.Token())

	st := <-session.Updates()
	assert.True(t, st.Authenticated())

	session.Clear()
	st = <-session.Updates()
	assert.False(t, st.Authenticated())
	assert.Empty(t, session.UserID())
}

func TestSessionService_InvalidTokenActsAsLogout(t *testing.T) {
	tokens := NewTokenService(discardLogger(), "")
	session := NewSessionService(discardLogger(), tokens)

	require.Error(t, session.SetToken("garbage"))
	st := <-session.Updates()
	assert.False(t, st.Authenticated())
	assert.False(t, session.Current().Authenticated())
}

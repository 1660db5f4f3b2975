package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chatwire/internal/core/domain"
)

// TokenClaims is what the client needs out of a session token: who the
// current user is and when the token stops being usable.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

type TokenService struct {
	log       *slog.Logger
	secretKey []byte
}

// NewTokenService builds the token inspector. With an empty secret the
// signature is not checked (the server is the verifier of record); claims
// are still read so an expired token can be treated as a logout.
func NewTokenService(log *slog.Logger, secret string) *TokenService {
	return &TokenService{
		log:       log,
		secretKey: []byte(secret),
	}
}

// Inspect parses the session token and returns its claims. An expired,
// malformed or (when a secret is configured) badly signed token yields
// ErrInvalidToken.
func (s *TokenService) Inspect(tokenStr string) (TokenClaims, error) {
	var claims jwt.MapClaims
	if len(s.secretKey) > 0 {
		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secretKey, nil
		})
		if err != nil || !token.Valid {
			return TokenClaims{}, domain.ErrInvalidToken
		}
		var ok bool
		if claims, ok = token.Claims.(jwt.MapClaims); !ok {
			return TokenClaims{}, domain.ErrInvalidToken
		}
	} else {
		claims = jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
			return TokenClaims{}, domain.ErrInvalidToken
		}
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return TokenClaims{}, domain.ErrInvalidToken
	}
	out := TokenClaims{Subject: sub}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
		if time.Now().After(exp.Time) {
			return TokenClaims{}, domain.ErrInvalidToken
		}
	}
	return out, nil
}

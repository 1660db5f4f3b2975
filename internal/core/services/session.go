package services

import (
	"log/slog"
	"sync"

	"chatwire/internal/core/domain"
)

// SessionService owns the current authentication state and publishes every
// transition on its update feed. It is the AuthSource the connection
// lifecycle is keyed off: one live session at a time, and a token change
// always reaches the lifecycle as one discrete update.
type SessionService struct {
	log    *slog.Logger
	tokens *TokenService

	mu     sync.Mutex
	state  domain.AuthState
	userID string

	updates chan domain.AuthState
}

func NewSessionService(log *slog.Logger, tokens *TokenService) *SessionService {
	return &SessionService{
		log:     log,
		tokens:  tokens,
		state:   domain.AuthState{Status: domain.StatusUnauthenticated},
		updates: make(chan domain.AuthState, 16),
	}
}

// SetToken installs a new session token. An invalid or expired token is
// treated as a logout rather than an error state the transport could act on.
func (s *SessionService) SetToken(token string) error {
	claims, err := s.tokens.Inspect(token)
	if err != nil {
		s.log.Warn("session - set token - token rejected")
		s.Clear()
		return err
	}

	st := domain.AuthState{Status: domain.StatusAuthenticated, Token: token}
	s.mu.Lock()
	s.state = st
	s.userID = claims.Subject
	s.mu.Unlock()

	s.publish(st)
	s.log.Info("session - set token - session started", slog.String("user_id", claims.Subject))
	return nil
}

// Clear drops the session (logout).
func (s *SessionService) Clear() {
	st := domain.AuthState{Status: domain.StatusUnauthenticated}
	s.mu.Lock()
	s.state = st
	s.userID = ""
	s.mu.Unlock()

	s.publish(st)
	s.log.Info("session - clear - session ended")
}

func (s *SessionService) Current() domain.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UserID returns the subject of the current token, empty when logged out.
func (s *SessionService) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Token returns the current bearer token for request authentication.
func (s *SessionService) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

func (s *SessionService) Updates() <-chan domain.AuthState {
	return s.updates
}

// publish never blocks: if the consumer lags, the oldest update is dropped
// so only the latest states remain queued.
func (s *SessionService) publish(st domain.AuthState) {
	for {
		select {
		case s.updates <- st:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

package contracts

import "chatwire/internal/core/domain"

// AuthSource is the external authentication signal the lifecycle manager
// reacts to. Every login, logout and token refresh produces one update.
type AuthSource interface {
	Updates() <-chan domain.AuthState
	// Current returns the latest published state.
	Current() domain.AuthState
}

package stompws

import (
	"fmt"
	"net/url"
	"strings"

	"chatwire/internal/core/domain"
)

// Endpoint derives the websocket upgrade URL from an http(s) base URL:
// scheme substitution, trailing-slash strip, and the upgrade path suffix
// appended exactly once.
func Endpoint(baseURL, suffix string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidEndpoint, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", domain.ErrInvalidEndpoint)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	if !strings.HasSuffix(u.Path, suffix) {
		u.Path += suffix
	}
	return u.String(), nil
}

package domain

import "errors"

var (
	ErrNotConnected          = errors.New("realtime connection not established")
	ErrNoActiveSession       = errors.New("no active authenticated session")
	ErrInvalidToken          = errors.New("invalid token")
	ErrInvalidConversationID = errors.New("invalid conversation id")
	ErrMalformedFrame        = errors.New("malformed frame payload")
	ErrSendFailed            = errors.New("message send failed")
	ErrInvalidEndpoint       = errors.New("invalid base url")
)

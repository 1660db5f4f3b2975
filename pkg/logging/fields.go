package logging

import "log/slog"

// Domain identifiers

func Conversation(id string) slog.Attr {
	return slog.String("conversation_id", id)
}

func Sender(id string) slog.Attr {
	return slog.String("sender_id", id)
}

func MessageID(id string) slog.Attr {
	return slog.String("message_id", id)
}

func Destination(dest string) slog.Attr {
	return slog.String("destination", dest)
}

func Endpoint(url string) slog.Attr {
	return slog.String("endpoint", url)
}

// Error handling

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

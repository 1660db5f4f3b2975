package config

import (
	"os"
	"strconv"
	"time"

	"chatwire/internal/core/domain"
)

func Load() *Config {
	return &Config{
		Service: &ServiceConfig{
			Name: getEnv("SERVICE_NAME", "chatwire-client"),
			Env:  getEnv("SERVICE_ENV", "development"),
		},
		Server: &ServerConfig{
			BaseURL: getEnv("CHAT_BASE_URL", "http://localhost:8080"),
			WSPath:  getEnv("CHAT_WS_PATH", domain.WSPathSuffix),
		},
		Realtime: &RealtimeConfig{
			ReconnectDelay:  getEnvDuration("RT_RECONNECT_DELAY", 5*time.Second),
			HeartbeatSend:   getEnvDuration("RT_HEARTBEAT_SEND", 10*time.Second),
			HeartbeatRecv:   getEnvDuration("RT_HEARTBEAT_RECV", 10*time.Second),
			TypingTTL:       getEnvDuration("RT_TYPING_TTL", 3*time.Second),
			ScrollDelay:     getEnvDuration("RT_SCROLL_DELAY", 100*time.Millisecond),
			FrameBufferSize: getEnvInt("RT_FRAME_BUFFER", 256),
		},
		REST: &RESTConfig{
			Timeout:      getEnvDuration("REST_TIMEOUT", 10*time.Second),
			MaxConnsHost: getEnvInt("REST_MAX_CONNS", 8),
		},
		Logger: &LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "JSON"),
		},
		Tracer: &TracerConfig{
			Address: getEnv("OTLP_ADDR", "localhost:4317"),
			Enabled: getEnvBool("OTLP_ENABLED", false),
		},
		SecretToken: getEnv("JWT_SECRET", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

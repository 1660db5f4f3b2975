package config

import "time"

type Config struct {
	Service  *ServiceConfig
	Server   *ServerConfig
	Realtime *RealtimeConfig
	REST     *RESTConfig
	Logger   *LoggerConfig
	Tracer   *TracerConfig
	// SecretToken enables full signature verification of session tokens.
	// Empty means claims are read unverified (the server is the verifier).
	SecretToken string
}

type ServiceConfig struct {
	Name string
	Env  string
}

type ServerConfig struct {
	// BaseURL is the http(s) API origin; the websocket endpoint is derived
	// from it by scheme substitution.
	BaseURL string
	WSPath  string
}

type RealtimeConfig struct {
	ReconnectDelay  time.Duration
	HeartbeatSend   time.Duration
	HeartbeatRecv   time.Duration
	TypingTTL       time.Duration
	ScrollDelay     time.Duration
	FrameBufferSize int
}

type RESTConfig struct {
	Timeout      time.Duration
	MaxConnsHost int
}

type LoggerConfig struct {
	Level  string
	Format string
}

type TracerConfig struct {
	Address string
	Enabled bool
}

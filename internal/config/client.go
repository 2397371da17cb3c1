package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// ClientConfig configures the terminal conversation client.
type ClientConfig struct {
	Chat     Chat
	Realtime Realtime
	Logger   Logger
	Platform Platform
}

type Chat struct {
	BaseURL        string        `env:"CHAT_BASE_URL" env-default:"http://localhost:8080"`
	MeID           string        `env:"CHAT_ME_ID"`
	PollInterval   time.Duration `env:"CHAT_POLL_INTERVAL" env-default:"3s"`
	MaxBackoff     time.Duration `env:"CHAT_MAX_BACKOFF" env-default:"30s"`
	RequestTimeout time.Duration `env:"CHAT_REQUEST_TIMEOUT" env-default:"10s"`
	MetricsAddr    string        `env:"CHAT_METRICS_ADDR"`
}

// Realtime holds the push feed credentials. Both values are required;
// when either is missing the client runs in polling-only mode.
type Realtime struct {
	URL string `env:"REALTIME_URL"`
	Key string `env:"REALTIME_KEY"`
}

func (r Realtime) Enabled() bool {
	return r.URL != "" && r.Key != ""
}

func MustLoadClient() *ClientConfig {
	_ = godotenv.Load()

	cfg := &ClientConfig{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		log.Fatalf("failed to read env variables: %v", err)
	}

	return cfg
}

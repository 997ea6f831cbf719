package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// ClientConfig points the player at one backend. The bearer token is issued
// elsewhere; this client only forwards it.
type ClientConfig struct {
	APIBaseURL string `env:"API_BASE_URL,required,notEmpty"`
	WSURL      string `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	AuthToken  string `env:"AUTH_TOKEN"`

	BoardCells int `env:"BOARD_CELLS" envDefault:"25"`

	HTTPTimeoutMS   int `env:"HTTP_TIMEOUT_MS" envDefault:"10000"`
	ReconnectBaseMS int `env:"WS_RECONNECT_BASE_MS" envDefault:"500"`
	ReconnectMaxMS  int `env:"WS_RECONNECT_MAX_MS" envDefault:"30000"`
}

func LoadClient() (ClientConfig, error) {
	var cfg ClientConfig
	err := env.Parse(&cfg)
	return cfg, err
}

func (c ClientConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

func (c ClientConfig) ReconnectBase() time.Duration {
	return time.Duration(c.ReconnectBaseMS) * time.Millisecond
}

func (c ClientConfig) ReconnectMax() time.Duration {
	return time.Duration(c.ReconnectMaxMS) * time.Millisecond
}

package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type BotConfig struct {
	Stake           decimal.Decimal `env:"BOT_STAKE" envDefault:"1"`
	HazardCount     int             `env:"BOT_HAZARD_COUNT" envDefault:"3"`
	RevealsPerRound int             `env:"BOT_REVEALS_PER_ROUND" envDefault:"3"`
	Rounds          int             `env:"BOT_ROUNDS" envDefault:"0"`
	RoundDelayMS    int             `env:"BOT_ROUND_DELAY_MS" envDefault:"1500"`
	StatusAddr      string          `env:"STATUS_ADDR"`
	StatusAdminKey  string          `env:"STATUS_ADMIN_KEY"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}

func (c BotConfig) RoundDelay() time.Duration {
	return time.Duration(c.RoundDelayMS) * time.Millisecond
}

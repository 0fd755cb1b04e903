package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true" validate:"required"`

	// Worker settings
	Channel         string `envconfig:"QUEUE_CHANNEL" default:"new_message" validate:"required"`
	LockDurationSec int    `envconfig:"LOCK_DURATION_SEC" default:"60" validate:"min=1"`
	HandledBy       string `envconfig:"HANDLED_BY" default:"worker" validate:"required,max=50"`

	// DEBUG=1 switches logging to debug level.
	Debug bool `envconfig:"DEBUG"`
}

// LockDuration is the claim lease length, and therefore also the processing
// deadline budget for each claimed message.
func (c *Config) LockDuration() time.Duration {
	return time.Duration(c.LockDurationSec) * time.Second
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

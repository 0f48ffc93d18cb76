package config

import (
	"time"

	"github.com/quizfunnel/leadsync/internal/types"
)

// Webhook configures outbound lead lifecycle notifications
type Webhook struct {
	Enabled         bool              `mapstructure:"enabled"`
	Topic           string            `mapstructure:"topic"`
	PubSub          types.PubSubType  `mapstructure:"pubsub"`
	Endpoint        string            `mapstructure:"endpoint"`
	Headers         map[string]string `mapstructure:"headers"`
	ExcludedEvents  []string          `mapstructure:"excluded_events"`
	MaxRetries      int               `mapstructure:"max_retries"`
	InitialInterval time.Duration     `mapstructure:"initial_interval"`
	MaxInterval     time.Duration     `mapstructure:"max_interval"`
	Multiplier      float64           `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration     `mapstructure:"max_elapsed_time"`
	Svix            Svix              `mapstructure:"svix"`
}

// Svix delivers notifications through a hosted svix application
type Svix struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"base_url"`
	AuthToken string `mapstructure:"auth_token"`
	AppID     string `mapstructure:"app_id"`
}

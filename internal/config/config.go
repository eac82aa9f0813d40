// Package config holds the console's runtime configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/go-homedir"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config contains the settings shared by the console commands. Environment
// variables fill it first; the main package then overlays config file and
// flag values.
type Config struct {
	// Creature server
	ServerHost string `env:"CREATURE_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"CREATURE_SERVER_PORT" envDefault:"8000"`
	ServerTLS  bool   `env:"CREATURE_SERVER_TLS"`

	// Lip sync
	MsPerFrame int    `env:"CREATURE_MS_PER_FRAME" envDefault:"20"`
	CueDir     string `env:"CREATURE_CUE_DIR"`

	// Local track and log store
	StorePath string `env:"CREATURE_STORE_PATH"`

	// Joystick over MQTT
	MQTTBroker   string        `env:"CREATURE_MQTT_BROKER" envDefault:"tcp://localhost:1883"`
	MQTTTopic    string        `env:"CREATURE_MQTT_TOPIC"  envDefault:"creatures/joystick"`
	MQTTClientID string        `env:"CREATURE_MQTT_CLIENT_ID"`
	DisplayRate  float64       `env:"CREATURE_JOYSTICK_DISPLAY_HZ" envDefault:"10"`
	DialTimeout  time.Duration `env:"CREATURE_DIAL_TIMEOUT" envDefault:"5s"`

	Debug bool `env:"CREATURE_CONSOLE_DEBUG"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges and expands paths.
func (c *Config) Validate() error {
	if c.ServerHost == "" {
		return fmt.Errorf("%w: server host must not be empty", ErrInvalidConfig)
	}
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("%w: server port must be between 1 and 65535, got %d", ErrInvalidConfig, c.ServerPort)
	}
	if c.MsPerFrame < 1 || c.MsPerFrame > 1000 {
		return fmt.Errorf("%w: ms_per_frame must be between 1 and 1000, got %d", ErrInvalidConfig, c.MsPerFrame)
	}
	if c.DisplayRate <= 0 {
		return fmt.Errorf("%w: joystick display rate must be positive, got %.2f", ErrInvalidConfig, c.DisplayRate)
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("%w: dial timeout must be positive, got %s", ErrInvalidConfig, c.DialTimeout)
	}
	if _, err := url.Parse(c.MQTTBroker); err != nil {
		return fmt.Errorf("%w: mqtt broker: %w", ErrInvalidConfig, err)
	}

	var err error
	if c.StorePath, err = homedir.Expand(c.StorePath); err != nil {
		return fmt.Errorf("%w: store path: %w", ErrInvalidConfig, err)
	}
	if c.CueDir, err = homedir.Expand(c.CueDir); err != nil {
		return fmt.Errorf("%w: cue dir: %w", ErrInvalidConfig, err)
	}
	return nil
}

// WebsocketURL returns the creature server's websocket endpoint.
func (c *Config) WebsocketURL() string {
	scheme := "ws"
	if c.ServerTLS {
		scheme = "wss"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   c.ServerHost + ":" + strconv.Itoa(c.ServerPort),
		Path:   "/api/v1/websocket",
	}
	return u.String()
}

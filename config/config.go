// Package config loads the chaincode process settings from the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config controls how the chaincode process connects to its peer.
//
// With ServerAddress empty the process is launched by the peer and dials
// back to it. With ServerAddress set it runs as an external chaincode
// service listening on that address.
type Config struct {
	ServerAddress string `env:"CHAINCODE_SERVER_ADDRESS"`
	ChaincodeID   string `env:"CHAINCODE_ID"`
	TLSDisabled   bool   `env:"CHAINCODE_TLS_DISABLED"       envDefault:"true"`
	TLSKeyPath    string `env:"CHAINCODE_TLS_KEY"`
	TLSCertPath   string `env:"CHAINCODE_TLS_CERT"`
	ClientCAPath  string `env:"CHAINCODE_CLIENT_CA_CERT"`
	AdminMSPID    string `env:"CHAINCODE_ADMIN_MSPID"`
	LogLevel      string `env:"CORE_CHAINCODE_LOGGING_LEVEL" envDefault:"info"`
}

// ServerMode reports whether the chaincode runs as an external service.
func (c Config) ServerMode() bool {
	return c.ServerAddress != ""
}

// Validate checks the settings that depend on each other.
func (c Config) Validate() error {
	if !c.ServerMode() {
		return nil
	}
	if c.ChaincodeID == "" {
		return errors.New("CHAINCODE_ID is required when CHAINCODE_SERVER_ADDRESS is set")
	}
	if !c.TLSDisabled && (c.TLSKeyPath == "" || c.TLSCertPath == "") {
		return errors.New("CHAINCODE_TLS_KEY and CHAINCODE_TLS_CERT are required when TLS is enabled")
	}
	return nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the process configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

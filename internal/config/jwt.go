package config

import (
	"github.com/cockroachdb/errors"
)

// JWTConfig holds configuration for JWT token generation and validation.
type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
}

// NewJWTConfig builds a validated JWT configuration.
func NewJWTConfig(secret string, expirationHours int) (*JWTConfig, error) {
	c := &JWTConfig{Secret: secret, ExpirationHours: expirationHours}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	return c, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return errors.New("JWT_SECRET is required but not set")
	}
	if len(c.Secret) < 32 {
		return errors.Newf("JWT_SECRET must be at least 32 characters, got: %d", len(c.Secret))
	}
	if c.ExpirationHours < 1 {
		return errors.Newf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}

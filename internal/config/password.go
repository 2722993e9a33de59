package config

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// PasswordConfig holds configuration for password hashing and verification.
type PasswordConfig struct {
	BcryptCost int    `mapstructure:"bcrypt_cost"`
	Pepper     string `mapstructure:"pepper"` // optional global secret appended before hashing
}

// NewPasswordConfig builds a validated password configuration.
func NewPasswordConfig(cost int, pepper string) (*PasswordConfig, error) {
	c := &PasswordConfig{BcryptCost: cost, Pepper: pepper}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	return c, nil
}

// normalize validates the configuration.
func (c *PasswordConfig) normalize() error {
	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		return errors.Newf("bcrypt cost out of range: %d (must be 10-14)", c.BcryptCost)
	}
	return nil
}

// HashPassword hashes a password using bcrypt (with optional pepper).
func (c *PasswordConfig) HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw+c.Pepper), c.BcryptCost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a stored hash (with optional pepper).
func (c *PasswordConfig) VerifyPassword(pw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(pw+c.Pepper)) == nil
}

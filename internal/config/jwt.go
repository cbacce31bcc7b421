package config

import (
	"fmt"
	"time"
)

// JWTConfig holds configuration for JWT token generation and validation.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// NewJWTConfig builds a JWT configuration from the auth settings.
// JWT_SECRET is required.
func NewJWTConfig(auth AuthConfig) (*JWTConfig, error) {
	config := &JWTConfig{
		Secret: auth.JWTSecret,
		Issuer: auth.JWTIssuer,
		TTL:    auth.AccessTokenTTL,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.TTL < time.Minute {
		return fmt.Errorf("JWT_EXPIRATION must be at least 1 minute, got: %s", c.TTL)
	}
	return nil
}

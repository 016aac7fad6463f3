package sycksec

import (
	"fmt"
	"time"
)

// Config holds the configuration for token generation and verification.
//
// Fields:
//   - MasterSecret: keyed-hash secret, minimum 32 bytes
//   - DefaultTTL: token lifetime applied when a request does not specify one
//   - MaxTTL: upper bound for any requested lifetime
//   - EnableAuditLogging: whether engine operations emit audit events
//   - Debug: surfaces audit store errors instead of swallowing them
//
// The configuration is copied at construction and immutable afterwards.
type Config struct {
	MasterSecret       string
	DefaultTTL         time.Duration
	MaxTTL             time.Duration
	EnableAuditLogging bool
	Debug              bool
}

const minSecretLength = 32

// DefaultConfig returns a configuration with community defaults: one hour
// default TTL, 24 hour maximum, audit logging enabled.
func DefaultConfig(masterSecret string) Config {
	return Config{
		MasterSecret:       masterSecret,
		DefaultTTL:         time.Hour,
		MaxTTL:             24 * time.Hour,
		EnableAuditLogging: true,
	}
}

// validateConfig validates the configuration. Construction fails on any
// violation; there is no partially-initialized engine.
func validateConfig(config *Config) error {
	if len(config.MasterSecret) < minSecretLength {
		return fmt.Errorf("%w: master secret must be at least %d bytes", ErrConfigInvalid, minSecretLength)
	}
	if config.DefaultTTL <= 0 {
		return fmt.Errorf("%w: default ttl must be positive", ErrConfigInvalid)
	}
	if config.MaxTTL <= 0 {
		return fmt.Errorf("%w: max ttl must be positive", ErrConfigInvalid)
	}
	if config.DefaultTTL > config.MaxTTL {
		return fmt.Errorf("%w: default ttl %s exceeds max ttl %s", ErrConfigInvalid, config.DefaultTTL, config.MaxTTL)
	}
	return nil
}

// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gogama/idempotent"
	"github.com/gogama/idempotent/retry"
	"github.com/gogama/idempotent/timeout"

	"gopkg.in/yaml.v3"
)

// Names of the retry policies a Config can select.
const (
	Immediate          = "immediate"
	ExponentialBackoff = "exponential_backoff"
	Never              = "never"
)

// Config is the constructor-time configuration of a retry middleware.
type Config struct {
	// Policy selects the retry policy. Empty means Immediate.
	Policy string `yaml:"policy"`
	// MaxRetries is the maximum number of attempts in total. Zero means
	// retry.DefaultMaxRetries.
	MaxRetries int `yaml:"max_retries"`
	// MinRetryInterval is the first backoff delay of the
	// exponential_backoff policy. Zero means retry.DefaultMinRetryInterval.
	MinRetryInterval time.Duration `yaml:"min_retry_interval"`
	// MaxRetryInterval caps the backoff delay of the exponential_backoff
	// policy. Zero means retry.DefaultMaxRetryInterval.
	MaxRetryInterval time.Duration `yaml:"max_retry_interval"`
	// AttemptTimeout is the timeout of each individual attempt. Zero
	// means no per-attempt timeout.
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	// SafeStatusCodes replaces the retryable statuses of GET, HEAD,
	// OPTIONS and TRACE requests. Empty means retry.SafeStatusCodes().
	SafeStatusCodes []int `yaml:"safe_status_codes"`
	// UnsafeStatusCodes replaces the retryable statuses of all other
	// methods. Empty means retry.UnsafeStatusCodes().
	UnsafeStatusCodes []int `yaml:"unsafe_status_codes"`
}

// Load reads the YAML file at path, expanding environment variables,
// and returns the resulting configuration with defaults applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	return cfg, nil
}

// Parse parses a YAML document, expanding environment variables, and
// returns the resulting configuration with defaults applied. The
// configuration is validated.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Policy == "" {
		c.Policy = Immediate
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = retry.DefaultMaxRetries
	}
	if c.MinRetryInterval == 0 {
		c.MinRetryInterval = retry.DefaultMinRetryInterval
	}
	if c.MaxRetryInterval == 0 {
		c.MaxRetryInterval = retry.DefaultMaxRetryInterval
	}
	if len(c.SafeStatusCodes) == 0 {
		c.SafeStatusCodes = retry.SafeStatusCodes()
	}
	if len(c.UnsafeStatusCodes) == 0 {
		c.UnsafeStatusCodes = retry.UnsafeStatusCodes()
	}
}

// Validate reports every problem with the configuration, joined into a
// single error, or nil if there is none.
func (c *Config) Validate() error {
	var errs []error

	switch c.Policy {
	case Immediate, ExponentialBackoff, Never:
	default:
		errs = append(errs, fmt.Errorf("unknown policy %q", c.Policy))
	}
	if c.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries))
	}
	if c.MinRetryInterval < 0 {
		errs = append(errs, fmt.Errorf("min_retry_interval must not be negative, got %s", c.MinRetryInterval))
	}
	if c.MaxRetryInterval < c.MinRetryInterval {
		errs = append(errs, fmt.Errorf("max_retry_interval %s is less than min_retry_interval %s",
			c.MaxRetryInterval, c.MinRetryInterval))
	}
	if c.AttemptTimeout < 0 {
		errs = append(errs, fmt.Errorf("attempt_timeout must not be negative, got %s", c.AttemptTimeout))
	}
	errs = append(errs, validateStatusCodes("safe_status_codes", c.SafeStatusCodes)...)
	errs = append(errs, validateStatusCodes("unsafe_status_codes", c.UnsafeStatusCodes)...)

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	return nil
}

func validateStatusCodes(field string, codes []int) []error {
	var errs []error
	for _, code := range codes {
		if code < 100 || code > 599 {
			errs = append(errs, fmt.Errorf("%s: invalid status code %d", field, code))
		}
	}
	return errs
}

// RetryPolicy builds the retry policy the configuration selects.
func (c *Config) RetryPolicy() retry.Policy {
	switch c.Policy {
	case ExponentialBackoff:
		return retry.ExponentialBackoff(c.MaxRetries, c.MinRetryInterval, c.MaxRetryInterval)
	case Never:
		return retry.Never
	default:
		return retry.Immediate(c.MaxRetries)
	}
}

// TimeoutPolicy builds the per-attempt timeout policy.
func (c *Config) TimeoutPolicy() timeout.Policy {
	if c.AttemptTimeout <= 0 {
		return timeout.Infinite
	}
	return timeout.Fixed(c.AttemptTimeout)
}

// Classifier builds the outcome classifier from the configured status
// tables.
func (c *Config) Classifier() retry.Classifier {
	safe, unsafe := c.SafeStatusCodes, c.UnsafeStatusCodes
	if len(safe) == 0 {
		safe = retry.SafeStatusCodes()
	}
	if len(unsafe) == 0 {
		unsafe = retry.UnsafeStatusCodes()
	}
	return retry.NewClassifier(safe, unsafe)
}

// Wrap returns a Middleware configured from c which wraps h. Logging
// and event listeners may be set on the result before first use.
func (c *Config) Wrap(h idempotent.Handler) *idempotent.Middleware {
	if h == nil {
		panic("idempotent/config: nil handler")
	}

	return &idempotent.Middleware{
		Handler:       h,
		Classifier:    c.Classifier(),
		RetryPolicy:   c.RetryPolicy(),
		TimeoutPolicy: c.TimeoutPolicy(),
	}
}

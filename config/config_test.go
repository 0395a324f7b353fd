// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogama/idempotent"
	"github.com/gogama/idempotent/request"
	"github.com/gogama/idempotent/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Parse(nil)
		require.NoError(t, err)
		assert.Equal(t, &Config{
			Policy:            Immediate,
			MaxRetries:        retry.DefaultMaxRetries,
			MinRetryInterval:  retry.DefaultMinRetryInterval,
			MaxRetryInterval:  retry.DefaultMaxRetryInterval,
			SafeStatusCodes:   []int{408, 502, 503, 504},
			UnsafeStatusCodes: []int{502, 503, 504},
		}, cfg)
	})
	t.Run("custom", func(t *testing.T) {
		cfg, err := Parse([]byte(`
policy: exponential_backoff
max_retries: 50
min_retry_interval: 100ms
max_retry_interval: 24h
attempt_timeout: 2s
unsafe_status_codes: [503]
`))
		require.NoError(t, err)
		assert.Equal(t, ExponentialBackoff, cfg.Policy)
		assert.Equal(t, 50, cfg.MaxRetries)
		assert.Equal(t, 100*time.Millisecond, cfg.MinRetryInterval)
		assert.Equal(t, 24*time.Hour, cfg.MaxRetryInterval)
		assert.Equal(t, 2*time.Second, cfg.AttemptTimeout)
		assert.Equal(t, []int{408, 502, 503, 504}, cfg.SafeStatusCodes)
		assert.Equal(t, []int{503}, cfg.UnsafeStatusCodes)
	})
	t.Run("env expansion", func(t *testing.T) {
		t.Setenv("IDEMPOTENT_TEST_MAX_RETRIES", "7")
		t.Setenv("IDEMPOTENT_TEST_POLICY", "never")
		cfg, err := Parse([]byte("policy: ${IDEMPOTENT_TEST_POLICY}\nmax_retries: $IDEMPOTENT_TEST_MAX_RETRIES\n"))
		require.NoError(t, err)
		assert.Equal(t, Never, cfg.Policy)
		assert.Equal(t, 7, cfg.MaxRetries)
	})
	t.Run("malformed", func(t *testing.T) {
		_, err := Parse([]byte("max_retries: [1, 2"))
		assert.ErrorContains(t, err, "failed to parse config")
	})
	t.Run("integer interval", func(t *testing.T) {
		_, err := Parse([]byte("min_retry_interval: 1\n"))
		assert.ErrorContains(t, err, "failed to parse config")
	})
	t.Run("invalid", func(t *testing.T) {
		_, err := Parse([]byte(`
policy: sometimes
max_retries: -1
min_retry_interval: 2s
max_retry_interval: 1s
attempt_timeout: -1s
safe_status_codes: [99, 503]
`))
		require.Error(t, err)
		assert.ErrorContains(t, err, `unknown policy "sometimes"`)
		assert.ErrorContains(t, err, "max_retries must be at least 1, got -1")
		assert.ErrorContains(t, err, "max_retry_interval 1s is less than min_retry_interval 2s")
		assert.ErrorContains(t, err, "attempt_timeout must not be negative")
		assert.ErrorContains(t, err, "safe_status_codes: invalid status code 99")
	})
}

func TestLoad(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		t.Setenv("IDEMPOTENT_TEST_TIMEOUT", "750ms")
		path := filepath.Join(t.TempDir(), "idempotent.yaml")
		require.NoError(t, os.WriteFile(path, []byte("attempt_timeout: ${IDEMPOTENT_TEST_TIMEOUT}\n"), 0o600))
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 750*time.Millisecond, cfg.AttemptTimeout)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "failed to read config file")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_retries: -5\n"), 0o600))
		_, err := Load(path)
		assert.ErrorContains(t, err, path)
		assert.ErrorContains(t, err, "max_retries")
	})
}

func TestConfig_RetryPolicy(t *testing.T) {
	t.Run("immediate", func(t *testing.T) {
		cfg, err := Parse([]byte("max_retries: 3"))
		require.NoError(t, err)
		p := cfg.RetryPolicy()
		assert.Equal(t, retry.Continue(0), p.Decide(&request.Execution{Attempt: 2}))
		assert.Equal(t, retry.Stop, p.Decide(&request.Execution{Attempt: 3}))
	})
	t.Run("exponential backoff", func(t *testing.T) {
		cfg, err := Parse([]byte("policy: exponential_backoff\nmin_retry_interval: 1s\nmax_retry_interval: 3s\n"))
		require.NoError(t, err)
		p := cfg.RetryPolicy()
		assert.Equal(t, retry.Continue(time.Second), p.Decide(&request.Execution{Attempt: 1}))
		assert.Equal(t, retry.Continue(3*time.Second), p.Decide(&request.Execution{Attempt: 3, Wait: 2 * time.Second}))
		assert.Equal(t, retry.Stop, p.Decide(&request.Execution{Attempt: 5}))
	})
	t.Run("never", func(t *testing.T) {
		cfg, err := Parse([]byte("policy: never"))
		require.NoError(t, err)
		assert.Equal(t, retry.Stop, cfg.RetryPolicy().Decide(&request.Execution{Attempt: 1}))
	})
}

func TestConfig_TimeoutPolicy(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, time.Duration(math.MaxInt64), cfg.TimeoutPolicy().Timeout(&request.Execution{}))
	cfg.AttemptTimeout = time.Second
	assert.Equal(t, time.Second, cfg.TimeoutPolicy().Timeout(&request.Execution{}))
}

func TestConfig_Wrap(t *testing.T) {
	t.Run("nil handler", func(t *testing.T) {
		assert.PanicsWithValue(t, "idempotent/config: nil handler", func() {
			(&Config{}).Wrap(nil)
		})
	})
	t.Run("configured", func(t *testing.T) {
		cfg, err := Parse([]byte("max_retries: 2\nsafe_status_codes: [500]\n"))
		require.NoError(t, err)
		var calls int
		h := idempotent.HandlerFunc(func(env *request.Env) (*request.Result, error) {
			calls++
			return request.NewResult(500, nil), nil
		})
		mw := cfg.Wrap(h)
		env, err := request.NewEnv("GET", "http://example.com", nil)
		require.NoError(t, err)
		_, err = mw.Handle(env)
		var le *retry.LimitError
		require.ErrorAs(t, err, &le)
		assert.Len(t, le.Failures, 2)
		assert.Equal(t, 2, calls)
	})
	t.Run("zero value config", func(t *testing.T) {
		var calls int
		h := idempotent.HandlerFunc(func(env *request.Env) (*request.Result, error) {
			calls++
			return request.NewResult(503, nil), nil
		})
		mw := (&Config{}).Wrap(h)
		env, err := request.NewEnv("POST", "http://example.com", nil)
		require.NoError(t, err)
		_, err = mw.Handle(env)
		var le *retry.LimitError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, retry.DefaultMaxRetries, calls)
	})
}

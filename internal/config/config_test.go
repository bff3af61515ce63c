package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"CLASSIFY_DELAY", "CLASSIFY_SCOPE", "SORT_LOCALE", "MAX_BATCH_FILES", "NATS_URL", "SESSION_IDLE_TTL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, 2000*time.Millisecond, cfg.ClassifyDelay)
	assert.Equal(t, "catalog", cfg.ClassifyScope)
	assert.Equal(t, "en", cfg.SortLocale)
	assert.Equal(t, 100, cfg.MaxBatchFiles)
	assert.Empty(t, cfg.NATSURL)
	assert.Equal(t, "inbox.catalog.events", cfg.CatalogEventsSubject)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.True(t, cfg.ResilienceBreakerEnabled)
	assert.Equal(t, 0.5, cfg.ResilienceBreakerFailureRatio)
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("CLASSIFY_DELAY", "500ms")
	t.Setenv("CLASSIFY_SCOPE", "BATCH")
	t.Setenv("MAX_BATCH_FILES", "7")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("RESILIENCE_BREAKER_ENABLED", "false")
	t.Setenv("SESSION_SWEEP_INTERVAL", "15000")

	cfg := Load()
	assert.Equal(t, 500*time.Millisecond, cfg.ClassifyDelay)
	assert.Equal(t, "batch", cfg.ClassifyScope)
	assert.Equal(t, 7, cfg.MaxBatchFiles)
	assert.Equal(t, "nats://nats:4222", cfg.NATSURL)
	assert.Equal(t, 2.5, cfg.APIRateLimitRPS)
	assert.False(t, cfg.ResilienceBreakerEnabled)
	assert.Equal(t, 15*time.Second, cfg.SessionSweepInterval)
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("CLASSIFY_DELAY", "soon")
	t.Setenv("MAX_BATCH_FILES", "-3")
	t.Setenv("RESILIENCE_BREAKER_ENABLED", "maybe")

	cfg := Load()
	assert.Equal(t, 2*time.Second, cfg.ClassifyDelay)
	assert.Equal(t, 100, cfg.MaxBatchFiles)
	assert.True(t, cfg.ResilienceBreakerEnabled)
}

func TestPublishPolicyCarriesEveryResilienceKnob(t *testing.T) {
	t.Setenv("RESILIENCE_RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("RESILIENCE_RETRY_INITIAL_BACKOFF", "20ms")
	t.Setenv("RESILIENCE_RETRY_MAX_BACKOFF", "1s")
	t.Setenv("RESILIENCE_RETRY_MULTIPLIER", "3")
	t.Setenv("RESILIENCE_BREAKER_ENABLED", "true")
	t.Setenv("RESILIENCE_BREAKER_MIN_REQUESTS", "4")
	t.Setenv("RESILIENCE_BREAKER_FAILURE_RATIO", "0.75")
	t.Setenv("RESILIENCE_BREAKER_OPEN_TIMEOUT", "10s")
	t.Setenv("RESILIENCE_BREAKER_HALF_OPEN_MAX_CALLS", "6")

	policy := Load().PublishPolicy()
	assert.Equal(t, 5, policy.RetryMaxAttempts)
	assert.Equal(t, 20*time.Millisecond, policy.RetryInitialBackoff)
	assert.Equal(t, time.Second, policy.RetryMaxBackoff)
	assert.Equal(t, 3.0, policy.RetryMultiplier)
	assert.True(t, policy.BreakerEnabled)
	assert.Equal(t, uint32(4), policy.BreakerMinRequests)
	assert.Equal(t, 0.75, policy.BreakerFailureRatio)
	assert.Equal(t, 10*time.Second, policy.BreakerOpenTimeout)
	assert.Equal(t, uint32(6), policy.BreakerHalfOpenMaxCalls)
}

func TestPublishPolicyDefaults(t *testing.T) {
	for _, key := range []string{"RESILIENCE_RETRY_MULTIPLIER", "RESILIENCE_BREAKER_HALF_OPEN_MAX_CALLS", "RESILIENCE_BREAKER_FAILURE_RATIO"} {
		t.Setenv(key, "")
	}

	policy := Load().PublishPolicy()
	assert.Equal(t, 2.0, policy.RetryMultiplier)
	assert.Equal(t, uint32(2), policy.BreakerHalfOpenMaxCalls)
	assert.Equal(t, 300*time.Millisecond, policy.RetryBudget())
}

func TestPublishPolicyRejectsOutOfRangeFactors(t *testing.T) {
	t.Setenv("RESILIENCE_RETRY_MULTIPLIER", "0.5")
	t.Setenv("RESILIENCE_BREAKER_FAILURE_RATIO", "1.5")
	t.Setenv("RESILIENCE_BREAKER_HALF_OPEN_MAX_CALLS", "0")

	policy := Load().PublishPolicy()
	assert.Equal(t, 2.0, policy.RetryMultiplier)
	assert.Equal(t, 0.5, policy.BreakerFailureRatio)
	assert.Equal(t, uint32(2), policy.BreakerHalfOpenMaxCalls)
}

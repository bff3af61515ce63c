package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kirillkom/document-inbox/internal/infrastructure/resilience"
)

type Config struct {
	APIPort  string
	LogLevel string

	ClassifyDelay time.Duration
	ClassifyScope string
	SortLocale    string
	MaxBatchFiles int
	DefaultTheme  string

	SessionIdleTTL       time.Duration
	SessionMax           int
	SessionSweepInterval time.Duration

	NATSURL              string
	CatalogEventsSubject string

	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxInFlight    int
	APIOverloadWait   time.Duration
	APIMaxConnections int

	ResilienceRetryMaxAttempts    int
	ResilienceRetryInitialBackoff time.Duration
	ResilienceRetryMaxBackoff     time.Duration
	ResilienceRetryMultiplier     float64
	ResilienceBreakerEnabled      bool
	ResilienceBreakerMinRequests  int
	ResilienceBreakerFailureRatio float64
	ResilienceBreakerOpenTimeout  time.Duration

	ResilienceBreakerHalfOpenMaxCalls int

	WorkerMetricsPort string
}

var defaults = map[string]any{
	"API_PORT":  "8080",
	"LOG_LEVEL": "info",

	"CLASSIFY_DELAY":  "2000ms",
	"CLASSIFY_SCOPE":  "catalog",
	"SORT_LOCALE":     "en",
	"MAX_BATCH_FILES": 100,
	"DEFAULT_THEME":   "system",

	"SESSION_IDLE_TTL":       "30m",
	"SESSION_MAX":            1000,
	"SESSION_SWEEP_INTERVAL": "1m",

	"NATS_URL":               "",
	"CATALOG_EVENTS_SUBJECT": "inbox.catalog.events",

	"API_RATE_LIMIT_RPS":   50.0,
	"API_RATE_LIMIT_BURST": 100,
	"API_MAX_INFLIGHT":     64,
	"API_OVERLOAD_WAIT":    "250ms",
	"API_MAX_CONNECTIONS":  512,

	"RESILIENCE_RETRY_MAX_ATTEMPTS":    3,
	"RESILIENCE_RETRY_INITIAL_BACKOFF": "100ms",
	"RESILIENCE_RETRY_MAX_BACKOFF":     "400ms",
	"RESILIENCE_RETRY_MULTIPLIER":      2.0,
	"RESILIENCE_BREAKER_ENABLED":       true,
	"RESILIENCE_BREAKER_MIN_REQUESTS":  10,
	"RESILIENCE_BREAKER_FAILURE_RATIO": 0.5,
	"RESILIENCE_BREAKER_OPEN_TIMEOUT":  "30s",

	"RESILIENCE_BREAKER_HALF_OPEN_MAX_CALLS": 2,

	"WORKER_METRICS_PORT": "9090",
}

// Load reads configuration from the environment. Empty or unparsable values fall back
// to defaults.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return Config{
		APIPort:  str(v, "API_PORT"),
		LogLevel: str(v, "LOG_LEVEL"),

		ClassifyDelay: duration(v, "CLASSIFY_DELAY"),
		ClassifyScope: strings.ToLower(str(v, "CLASSIFY_SCOPE")),
		SortLocale:    str(v, "SORT_LOCALE"),
		MaxBatchFiles: positiveInt(v, "MAX_BATCH_FILES"),
		DefaultTheme:  strings.ToLower(str(v, "DEFAULT_THEME")),

		SessionIdleTTL:       duration(v, "SESSION_IDLE_TTL"),
		SessionMax:           positiveInt(v, "SESSION_MAX"),
		SessionSweepInterval: duration(v, "SESSION_SWEEP_INTERVAL"),

		NATSURL:              strings.TrimSpace(v.GetString("NATS_URL")),
		CatalogEventsSubject: str(v, "CATALOG_EVENTS_SUBJECT"),

		APIRateLimitRPS:   positiveFloat(v, "API_RATE_LIMIT_RPS"),
		APIRateLimitBurst: positiveInt(v, "API_RATE_LIMIT_BURST"),
		APIMaxInFlight:    positiveInt(v, "API_MAX_INFLIGHT"),
		APIOverloadWait:   duration(v, "API_OVERLOAD_WAIT"),
		APIMaxConnections: positiveInt(v, "API_MAX_CONNECTIONS"),

		ResilienceRetryMaxAttempts:    positiveInt(v, "RESILIENCE_RETRY_MAX_ATTEMPTS"),
		ResilienceRetryInitialBackoff: duration(v, "RESILIENCE_RETRY_INITIAL_BACKOFF"),
		ResilienceRetryMaxBackoff:     duration(v, "RESILIENCE_RETRY_MAX_BACKOFF"),
		ResilienceRetryMultiplier:     multiplier(v, "RESILIENCE_RETRY_MULTIPLIER"),
		ResilienceBreakerEnabled:      boolean(v, "RESILIENCE_BREAKER_ENABLED"),
		ResilienceBreakerMinRequests:  positiveInt(v, "RESILIENCE_BREAKER_MIN_REQUESTS"),
		ResilienceBreakerFailureRatio: ratio(v, "RESILIENCE_BREAKER_FAILURE_RATIO"),
		ResilienceBreakerOpenTimeout:  duration(v, "RESILIENCE_BREAKER_OPEN_TIMEOUT"),

		ResilienceBreakerHalfOpenMaxCalls: positiveInt(v, "RESILIENCE_BREAKER_HALF_OPEN_MAX_CALLS"),

		WorkerMetricsPort: str(v, "WORKER_METRICS_PORT"),
	}
}

func str(v *viper.Viper, key string) string {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return defaults[key].(string)
	}
	return s
}

func positiveInt(v *viper.Viper, key string) int {
	if n := v.GetInt(key); n > 0 {
		return n
	}
	return defaults[key].(int)
}

func positiveFloat(v *viper.Viper, key string) float64 {
	if f := v.GetFloat64(key); f > 0 {
		return f
	}
	return defaults[key].(float64)
}

// multiplier rejects factors below 1, which would shrink the backoff.
func multiplier(v *viper.Viper, key string) float64 {
	if f := v.GetFloat64(key); f >= 1 {
		return f
	}
	return defaults[key].(float64)
}

// ratio accepts values in (0, 1].
func ratio(v *viper.Viper, key string) float64 {
	if f := v.GetFloat64(key); f > 0 && f <= 1 {
		return f
	}
	return defaults[key].(float64)
}

// duration accepts Go duration strings; a bare integer is read as milliseconds.
func duration(v *viper.Viper, key string) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if n := v.GetInt64(key); n > 0 {
		return time.Duration(n) * time.Millisecond
	}
	d, _ := time.ParseDuration(defaults[key].(string))
	return d
}

func boolean(v *viper.Viper, key string) bool {
	switch strings.ToLower(strings.TrimSpace(v.GetString(key))) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return defaults[key].(bool)
	}
}

// PublishPolicy is the retry and breaker policy for catalog event publishing.
func (c Config) PublishPolicy() resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:    c.ResilienceRetryMaxAttempts,
		RetryInitialBackoff: c.ResilienceRetryInitialBackoff,
		RetryMaxBackoff:     c.ResilienceRetryMaxBackoff,
		RetryMultiplier:     c.ResilienceRetryMultiplier,

		BreakerEnabled:          c.ResilienceBreakerEnabled,
		BreakerMinRequests:      uint32(c.ResilienceBreakerMinRequests),
		BreakerFailureRatio:     c.ResilienceBreakerFailureRatio,
		BreakerOpenTimeout:      c.ResilienceBreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: uint32(c.ResilienceBreakerHalfOpenMaxCalls),
	}
}

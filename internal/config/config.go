package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the pitch scoring service.
type Config struct {
	AppName                 string
	AppEnv                  string
	AppPort                 string
	DatabaseURL             string
	DatabaseCredential      string
	RedisURL                string
	NATSURL                 string
	EventChannel            string
	CloudinaryCloudName     string
	CloudinaryAPIKey        string
	CloudinaryAPISecret     string
	CloudinaryVideoFolder   string
	AIGatewayURL            string
	AIAPIKey                string
	AIModel                 string
	AITemperature           float32
	AIMaxTokens             int
	AIRequestTimeout        time.Duration
	CompetitionRoundStart   time.Time
	EvaluationLockTTL       time.Duration
	EvaluationRateLimit     int
	EvaluationRateLimitSpan time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// ScorerConfigured reports whether an LLM gateway credential is available.
func (c Config) ScorerConfigured() bool {
	return strings.TrimSpace(c.AIAPIKey) != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PITCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "GEMA Pitch API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.channel", "gema:pitch")
	v.SetDefault("cloudinary.folder", "gema/pitches")
	v.SetDefault("ai.gateway_url", "https://ai.gateway.lovable.dev/v1")
	v.SetDefault("ai.model", "google/gemini-2.5-flash")
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.max_tokens", 1024)
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("evaluation.lock_ttl", "2m")
	v.SetDefault("evaluation.rate_limit", 20)
	v.SetDefault("evaluation.rate_window", "1m")

	timeout, err := parseDuration(v, "ai.timeout", time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid ai timeout: %w", err)
	}

	lockTTL, err := parseDuration(v, "evaluation.lock_ttl", 2*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid evaluation lock ttl: %w", err)
	}

	rateWindow, err := parseDuration(v, "evaluation.rate_window", time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid evaluation rate window: %w", err)
	}

	var roundStart time.Time
	if raw := strings.TrimSpace(v.GetString("competition.round_start")); raw != "" {
		roundStart, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid competition round start: %w", err)
		}
	}

	cfg := Config{
		AppName:                 v.GetString("app.name"),
		AppEnv:                  v.GetString("app.env"),
		AppPort:                 v.GetString("app.port"),
		DatabaseURL:             v.GetString("database.url"),
		DatabaseCredential:      v.GetString("database.credential"),
		RedisURL:                v.GetString("redis.url"),
		NATSURL:                 v.GetString("nats.url"),
		EventChannel:            v.GetString("events.channel"),
		CloudinaryCloudName:     v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:        v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:     v.GetString("cloudinary.api_secret"),
		CloudinaryVideoFolder:   v.GetString("cloudinary.folder"),
		AIGatewayURL:            strings.TrimRight(v.GetString("ai.gateway_url"), "/"),
		AIAPIKey:                v.GetString("ai.api_key"),
		AIModel:                 v.GetString("ai.model"),
		AITemperature:           float32(v.GetFloat64("ai.temperature")),
		AIMaxTokens:             v.GetInt("ai.max_tokens"),
		AIRequestTimeout:        timeout,
		CompetitionRoundStart:   roundStart,
		EvaluationLockTTL:       lockTTL,
		EvaluationRateLimit:     v.GetInt("evaluation.rate_limit"),
		EvaluationRateLimitSpan: rateWindow,
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.AITemperature < 0 || cfg.AITemperature > 2 {
		return Config{}, fmt.Errorf("ai temperature must be between 0 and 2")
	}

	if cfg.AIMaxTokens <= 0 {
		cfg.AIMaxTokens = 1024
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return fallback, nil
	}
	return d, nil
}

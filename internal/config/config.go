// Package config provides configuration loading and validation for the API
// server and CLI.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	LLM       LLMConfig       `yaml:"llm"`
	Prompt    PromptConfig    `yaml:"prompt"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
	AllowedOrigins  string        `yaml:"allowed_origins"  env:"CORS_ALLOWED_ORIGINS"    env-default:"*"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string        `yaml:"url"                env:"DATABASE_URL"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"    env:"DATABASE_CONNECT_TIMEOUT"    env-default:"30s"`
}

// AuthConfig holds password hashing and token settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"JWT_SECRET"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"JWT_ISSUER"       env-default:"sonder"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"JWT_EXPIRATION"   env-default:"30m"`
	BcryptCost     int           `yaml:"bcrypt_cost"      env:"BCRYPT_COST"      env-default:"12"`
	PasswordPepper string        `yaml:"password_pepper"  env:"PASSWORD_PEPPER"`
}

// LLMConfig selects and tunes the text generation provider.
type LLMConfig struct {
	Provider        string        `yaml:"provider"          env:"LLM_PROVIDER"          env-default:"gemini"`
	Model           string        `yaml:"model"             env:"LLM_MODEL"`
	GeminiAPIKey    string        `yaml:"gemini_api_key"    env:"GEMINI_API_KEY"`
	OllamaHost      string        `yaml:"ollama_host"       env:"OLLAMA_HOST"`
	Timeout         time.Duration `yaml:"timeout"           env:"LLM_TIMEOUT"           env-default:"15s"`
	Temperature     float32       `yaml:"temperature"       env:"LLM_TEMPERATURE"       env-default:"0.7"`
	TopK            int32         `yaml:"top_k"             env:"LLM_TOP_K"             env-default:"40"`
	TopP            float32       `yaml:"top_p"             env:"LLM_TOP_P"             env-default:"0.95"`
	MaxOutputTokens int32         `yaml:"max_output_tokens" env:"LLM_MAX_OUTPUT_TOKENS" env-default:"100"`
}

// PromptConfig holds normalizer settings.
type PromptConfig struct {
	MaxWords        int    `yaml:"max_words"        env:"PROMPT_MAX_WORDS"        env-default:"12"`
	DefaultQuestion string `yaml:"default_question" env:"PROMPT_DEFAULT_QUESTION"`
}

// SchedulerConfig controls the daily prompt job.
type SchedulerConfig struct {
	Enabled  bool   `yaml:"enabled"  env:"SCHEDULER_ENABLED"  env-default:"true"`
	Spec     string `yaml:"spec"     env:"SCHEDULER_SPEC"     env-default:"0 0 * * *"`
	Timezone string `yaml:"timezone" env:"SCHEDULER_TIMEZONE" env-default:"UTC"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// RateLimitConfig holds request rate limiting settings.
type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled"          env:"RATE_LIMIT_ENABLED"          env-default:"true"`
	DefaultLimit    int           `yaml:"default_limit"    env:"RATE_LIMIT_DEFAULT_LIMIT"    env-default:"1000"`
	DefaultWindow   time.Duration `yaml:"default_window"   env:"RATE_LIMIT_DEFAULT_WINDOW"   env-default:"1m"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"RATE_LIMIT_CLEANUP_INTERVAL" env-default:"5m"`
	Whitelist       string        `yaml:"whitelist"        env:"RATE_LIMIT_WHITELIST"`
	Blacklist       string        `yaml:"blacklist"        env:"RATE_LIMIT_BLACKLIST"`
}

// Validate checks value ranges. Secrets and URLs that only some commands need
// are checked by the constructors that consume them.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	if c.Database.MinConns < 0 || c.Database.MaxConns < 1 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("invalid database pool size: min %d, max %d", c.Database.MinConns, c.Database.MaxConns)
	}
	if err := validateBcryptCost(c.Auth.BcryptCost); err != nil {
		return err
	}
	if c.Auth.AccessTokenTTL < time.Minute {
		return fmt.Errorf("JWT_EXPIRATION must be at least 1 minute, got: %s", c.Auth.AccessTokenTTL)
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini", "ollama", "none":
	default:
		return fmt.Errorf("unknown llm provider %q (want gemini, ollama or none)", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm timeout must be positive, got: %s", c.LLM.Timeout)
	}
	if c.Prompt.MaxWords < 3 {
		return fmt.Errorf("prompt max words must be at least 3, got: %d", c.Prompt.MaxWords)
	}
	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.Spec); err != nil {
			return fmt.Errorf("invalid scheduler spec %q: %w", c.Scheduler.Spec, err)
		}
		if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
			return fmt.Errorf("invalid scheduler timezone %q: %w", c.Scheduler.Timezone, err)
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}
	if c.RateLimit.Enabled && (c.RateLimit.DefaultLimit < 1 || c.RateLimit.DefaultWindow <= 0) {
		return fmt.Errorf("rate limit requires a positive default limit and window")
	}
	return nil
}

// RequireDatabase reports an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required but not set")
	}
	return nil
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	SnapshotCacheTTL  time.Duration
	HelpJobTTL        time.Duration
	AnalysisTimeout   time.Duration
	PracticeCount     int
	DockerHost        string
	ExecutionTimeout  time.Duration
	CodeRunMemoryMB   int
	CodeRunCPUShares  int
	AIProvider        string
	AIModel           string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("COACH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Debug Coach API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("snapshot.cache_ttl", "30s")
	v.SetDefault("help.job_ttl", "3m")
	v.SetDefault("help.analysis_timeout", "90s")
	v.SetDefault("practice.count", 3)
	v.SetDefault("execution_timeout_ms", 5000)
	v.SetDefault("code_run_memory_mb", 256)
	v.SetDefault("code_run_cpu_shares", 512)
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("rate_limit.requests", 30)
	v.SetDefault("rate_limit.window", "1m")

	snapshotTTL, err := parseDuration(v.GetString("snapshot.cache_ttl"), "snapshot cache ttl")
	if err != nil {
		return Config{}, err
	}
	helpJobTTL, err := parseDuration(v.GetString("help.job_ttl"), "help job ttl")
	if err != nil {
		return Config{}, err
	}
	analysisTimeout, err := parseDuration(v.GetString("help.analysis_timeout"), "analysis timeout")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v.GetString("rate_limit.window"), "rate limit window")
	if err != nil {
		return Config{}, err
	}

	timeoutMs := v.GetInt("execution_timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 5000
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		SnapshotCacheTTL:  snapshotTTL,
		HelpJobTTL:        helpJobTTL,
		AnalysisTimeout:   analysisTimeout,
		PracticeCount:     v.GetInt("practice.count"),
		DockerHost:        v.GetString("docker_host"),
		ExecutionTimeout:  time.Duration(timeoutMs) * time.Millisecond,
		CodeRunMemoryMB:   v.GetInt("code_run_memory_mb"),
		CodeRunCPUShares:  v.GetInt("code_run_cpu_shares"),
		AIProvider:        strings.ToLower(v.GetString("ai.provider")),
		AIModel:           v.GetString("ai.model"),
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		AnthropicAPIKey:   v.GetString("anthropic_api_key"),
		RateLimitRequests: v.GetInt("rate_limit.requests"),
		RateLimitWindow:   rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.CodeRunMemoryMB <= 0 {
		cfg.CodeRunMemoryMB = 256
	}

	if cfg.CodeRunCPUShares <= 0 {
		cfg.CodeRunCPUShares = 512
	}

	if cfg.PracticeCount <= 0 {
		cfg.PracticeCount = 3
	}

	return cfg, nil
}

func parseDuration(value, label string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("missing %s", label)
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", label, err)
	}
	return parsed, nil
}

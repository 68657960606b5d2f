package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/simpliearn/simpliearn-backend/internal/data/db"
	"github.com/simpliearn/simpliearn-backend/internal/jobs/worker"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp"
	"github.com/simpliearn/simpliearn-backend/internal/platform/inference"
	"github.com/simpliearn/simpliearn-backend/internal/platform/llm"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

const (
	RoleAll    = "all"
	RoleAPI    = "api"
	RoleWorker = "worker"
)

type Config struct {
	LogMode     string
	Port        string
	Role        string
	Environment string
	Version     string

	DB        db.Config
	Storage   gcp.StorageConfig
	LLM       llm.Config
	Inference inference.Config
	Worker    worker.Config

	YouTubeAPIKey string
	FinnhubAPIKey string
	RedisAddr     string
	RedisChannel  string
	MetricsAddr   string
}

// LoadConfig reads an optional .env file, then resolves every key through viper: process
// env first, then simpliearn.yaml (or the file named by SIMPLIEARN_CONFIG), then defaults.
func LoadConfig(log *logger.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("Ignoring unreadable .env file", "error", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if path := strings.TrimSpace(v.GetString("SIMPLIEARN_CONFIG")); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("simpliearn")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		log.Info("Config file loaded", "path", v.ConfigFileUsed())
	}
	return configFrom(v)
}

func setDefaults(v *viper.Viper) {
	for k, val := range map[string]any{
		"LOG_MODE":              "development",
		"PORT":                  "8080",
		"APP_ROLE":              RoleAll,
		"APP_ENV":               "development",
		"DB_DRIVER":             db.DriverPostgres,
		"POSTGRES_HOST":         "localhost",
		"POSTGRES_PORT":         "5432",
		"POSTGRES_USER":         "postgres",
		"POSTGRES_NAME":         "simpliearn",
		"POSTGRES_SSLMODE":      "disable",
		"SQLITE_PATH":           "simpliearn.db",
		"LLM_PROVIDER":          llm.ProviderOpenAI,
		"OPENAI_MODEL":          "gpt-4o-mini",
		"ANTHROPIC_MODEL":       "claude-haiku-4-5",
		"LLM_MAX_TOKENS":        1024,
		"LLM_TIMEOUT_SECONDS":   60,
		"HF_INFERENCE_BASE_URL": inference.DefaultBaseURL,
		"HF_HUB_BASE_URL":       inference.DefaultHubBaseURL,
		"HF_TIMEOUT_SECONDS":    120,
		"WORKER_CONCURRENCY":    2,
		"WORKER_POLL_SECONDS":   3,
		"JOB_TIMEOUT_MINUTES":   30,
		"JOB_RETENTION_HOURS":   168,
		"METRICS_ADDR":          ":9090",
	} {
		v.SetDefault(k, val)
	}
}

func configFrom(v *viper.Viper) (Config, error) {
	role := strings.ToLower(strings.TrimSpace(v.GetString("APP_ROLE")))
	switch role {
	case RoleAll, RoleAPI, RoleWorker:
	default:
		return Config{}, fmt.Errorf("invalid APP_ROLE %q (allowed: %s, %s, %s)", role, RoleAll, RoleAPI, RoleWorker)
	}

	storage, err := gcp.StorageConfigFrom(v.GetString)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		LogMode:     v.GetString("LOG_MODE"),
		Port:        v.GetString("PORT"),
		Role:        role,
		Environment: v.GetString("APP_ENV"),
		Version:     v.GetString("APP_VERSION"),
		DB: db.Config{
			Driver:     v.GetString("DB_DRIVER"),
			Host:       v.GetString("POSTGRES_HOST"),
			Port:       v.GetString("POSTGRES_PORT"),
			User:       v.GetString("POSTGRES_USER"),
			Password:   v.GetString("POSTGRES_PASSWORD"),
			Name:       v.GetString("POSTGRES_NAME"),
			SSLMode:    v.GetString("POSTGRES_SSLMODE"),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		Storage: storage,
		LLM: llm.Config{
			Provider:        strings.ToLower(v.GetString("LLM_PROVIDER")),
			OpenAIKey:       v.GetString("OPENAI_API_KEY"),
			OpenAIModel:     v.GetString("OPENAI_MODEL"),
			AnthropicKey:    v.GetString("ANTHROPIC_API_KEY"),
			AnthropicModel:  v.GetString("ANTHROPIC_MODEL"),
			MaxTokens:       v.GetInt("LLM_MAX_TOKENS"),
			Temperature:     0.3,
			TimeoutDuration: time.Duration(v.GetInt("LLM_TIMEOUT_SECONDS")) * time.Second,
		},
		Inference: inference.Config{
			BaseURL:    v.GetString("HF_INFERENCE_BASE_URL"),
			HubBaseURL: v.GetString("HF_HUB_BASE_URL"),
			Token:      v.GetString("HF_TOKEN"),
			Timeout:    time.Duration(v.GetInt("HF_TIMEOUT_SECONDS")) * time.Second,
		},
		Worker: worker.Config{
			Concurrency:  v.GetInt("WORKER_CONCURRENCY"),
			PollInterval: time.Duration(v.GetInt("WORKER_POLL_SECONDS")) * time.Second,
			JobTimeout:   time.Duration(v.GetInt("JOB_TIMEOUT_MINUTES")) * time.Minute,
			Retention:    time.Duration(v.GetInt("JOB_RETENTION_HOURS")) * time.Hour,
			ReapInterval: time.Minute,
		},
		YouTubeAPIKey: v.GetString("YOUTUBE_API_KEY"),
		FinnhubAPIKey: v.GetString("FINNHUB_API_KEY"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisChannel:  v.GetString("REDIS_JOB_CHANNEL"),
		MetricsAddr:   v.GetString("METRICS_ADDR"),
	}
	if !strings.HasPrefix(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
	return cfg, nil
}

func (c Config) RunsAPI() bool    { return c.Role == RoleAll || c.Role == RoleAPI }
func (c Config) RunsWorker() bool { return c.Role == RoleAll || c.Role == RoleWorker }

// Package config loads the bot's runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram settings
	TelegramToken   string
	TelegramChannel string

	// Digest settings
	Language          string // ru | en
	LexiconPath       string // optional YAML lexicon overriding the built-ins
	Schedule          string // HH:MM, digest delivery time
	Timezone          string
	MaxTotalArticles  int // ranked articles kept per digest
	TopNewsLimit      int // entries rendered in the top-news section
	CrossSourceDedupe bool

	// Source settings
	SourcesPath    string
	PerSourceLimit int
	SourceDelay    time.Duration
	RequestTimeout time.Duration
	FetchRetries   int

	// AI settings
	GeminiAPIKey      string
	GeminiModel       string
	OpenAIAPIKey      string
	OpenAIModel       string
	RankStrategies    []string // tried in order: gemini | heuristic
	SummaryStrategies []string // tried in order: gemini | openai
	SummaryTimeout    time.Duration
	MaxAIRequests     int // daily request budget per provider

	// History settings
	DatabaseURL     string
	SQLitePath      string
	HistoryFilePath string
	HistoryTTL      time.Duration

	// App settings
	RunMode          string // serve | once
	Debug            bool
	EnableMonitoring bool
	MonitorPort      int
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		TelegramChannel:   getEnvOrDefault("TELEGRAM_CHANNEL_ID", "@agriculture_digest"),
		Language:          getEnvOrDefault("LANGUAGE", "ru"),
		Schedule:          getEnvOrDefault("DIGEST_SCHEDULE", "08:00"),
		Timezone:          getEnvOrDefault("TIMEZONE", "UTC"),
		MaxTotalArticles:  getEnvIntOrDefault("MAX_TOTAL_ARTICLES", 8),
		TopNewsLimit:      getEnvIntOrDefault("TOP_NEWS_LIMIT", 10),
		CrossSourceDedupe: getEnvOrDefault("CROSS_SOURCE_DEDUPE", "true") != "false",
		SourcesPath:       getEnvOrDefault("SOURCES_CONFIG_PATH", "configs/sources.yaml"),
		PerSourceLimit:    getEnvIntOrDefault("MAX_ARTICLES_PER_SOURCE", 10),
		SourceDelay:       2 * time.Second,
		RequestTimeout:    30 * time.Second,
		FetchRetries:      3,
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIModel:       getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		SummaryTimeout:    time.Duration(getEnvIntOrDefault("SUMMARY_TIMEOUT_SECONDS", 20)) * time.Second,
		MaxAIRequests:     getEnvIntOrDefault("MAX_AI_REQUESTS", 50),
		HistoryFilePath:   getEnvOrDefault("HISTORY_FILE_PATH", "sent_news.json"),
		HistoryTTL:        time.Duration(getEnvIntOrDefault("HISTORY_TTL_HOURS", 72)) * time.Hour,
		RunMode:           getEnvOrDefault("RUN_MODE", "serve"),
		MonitorPort:       getEnvIntOrDefault("PORT", 8080),
	}

	// Load from environment
	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.SQLitePath = os.Getenv("SQLITE_PATH")
	cfg.LexiconPath = os.Getenv("LEXICON_PATH")

	cfg.RankStrategies = splitList(getEnvOrDefault("RANK_STRATEGIES", "gemini,heuristic"))
	cfg.SummaryStrategies = splitList(getEnvOrDefault("SUMMARY_STRATEGIES", "gemini,openai"))

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}
	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		cfg.EnableMonitoring = true
	}

	return cfg, cfg.Validate()
}

// HistoryBackend picks the storage backend from what is configured:
// PostgreSQL when DATABASE_URL is set, SQLite when SQLITE_PATH is set, the
// JSON file otherwise.
func (c *Config) HistoryBackend() string {
	switch {
	case c.DatabaseURL != "":
		return "postgres"
	case c.SQLitePath != "":
		return "sqlite"
	default:
		return "file"
	}
}

var scheduleRe = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.TelegramChannel == "" {
		return fmt.Errorf("TELEGRAM_CHANNEL_ID is required")
	}
	if c.Language != "ru" && c.Language != "en" {
		return fmt.Errorf("LANGUAGE must be 'ru' or 'en', got %q", c.Language)
	}
	if !scheduleRe.MatchString(c.Schedule) {
		return fmt.Errorf("DIGEST_SCHEDULE must be HH:MM, got %q", c.Schedule)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	if c.RunMode != "serve" && c.RunMode != "once" {
		return fmt.Errorf("RUN_MODE must be 'serve' or 'once', got %q", c.RunMode)
	}
	if c.MaxTotalArticles <= 0 || c.TopNewsLimit <= 0 || c.PerSourceLimit <= 0 {
		return fmt.Errorf("article limits must be positive")
	}
	for _, s := range c.RankStrategies {
		if s != "gemini" && s != "heuristic" {
			return fmt.Errorf("unknown rank strategy %q", s)
		}
	}
	for _, s := range c.SummaryStrategies {
		if s != "gemini" && s != "openai" {
			return fmt.Errorf("unknown summary strategy %q", s)
		}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAssistantPrompt = "You are a friendly portfolio assistant who answers questions about my work, experience, and projects."
	DefaultGreeting        = "Hi, I'm your portfolio assistant! How can I help you today?"
	DefaultSecretsFile     = "secrets.toml"

	MissingCredentialMessage = "No OpenAI API key provided. Please set it in your .env file or in your secrets file."
)

type Config struct {
	OpenAIKey         string
	CredentialSource  string
	CredentialWarning string
	OpenAIBaseURL     string
	Model             string
	Temperature       float32
	AssistantPrompt   string
	Greeting          string

	Port        string
	ContentFile string
	SecretsFile string
	SessionTTL  time.Duration

	LogLevel slog.Level
	LogFile  string

	TelegramToken  string
	AdminUserIDs   []int64
	AllowedUserIDs []int64

	// Warnings collects non-fatal problems found while loading, for the
	// caller to log once a logger exists.
	Warnings []string
}

// Load reads configuration from the environment after merging in the .env
// file at path. A missing credential is not an error.
func Load(path string) (Config, error) {
	var warnings []string
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			warnings = append(warnings, "could not read "+path+": "+err.Error())
		}
	}

	cfg := Config{
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		Model:           getenvDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		Temperature:     getenvFloatDefault("OPENAI_TEMPERATURE", 0.6),
		AssistantPrompt: getenvDefault("ASSISTANT_PROMPT", DefaultAssistantPrompt),
		Greeting:        getenvDefault("ASSISTANT_GREETING", DefaultGreeting),
		Port:            getenvDefault("PORT", "8080"),
		ContentFile:     os.Getenv("PORTFOLIO_CONTENT"),
		SecretsFile:     getenvDefault("SECRETS_FILE", DefaultSecretsFile),
		SessionTTL:      time.Duration(getenvIntDefault("SESSION_TTL_MINUTES", 24*60)) * time.Minute,
		LogLevel:        parseLogLevel(getenvDefault("LOG_LEVEL", "INFO")),
		LogFile:         os.Getenv("LOG_FILE"),
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return cfg, errors.New("OPENAI_TEMPERATURE must be between 0 and 2")
	}

	providers, err := DefaultCredentialProviders(cfg.SecretsFile)
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	cred, err := ResolveCredential(providers...)
	if err != nil {
		cfg.CredentialWarning = MissingCredentialMessage
		warnings = append(warnings, MissingCredentialMessage)
	} else {
		cfg.OpenAIKey = cred.Value
		cfg.CredentialSource = cred.Source
	}

	cfg.AdminUserIDs, warnings = parseIDs(os.Getenv("ADMIN_USER_IDS"), warnings)
	cfg.AllowedUserIDs, warnings = parseIDs(os.Getenv("ALLOWED_TELEGRAM_USER_IDS"), warnings)
	cfg.Warnings = warnings

	return cfg, nil
}

func parseIDs(raw string, warnings []string) ([]int64, []string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, warnings
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			warnings = append(warnings, "skipping user id "+strconv.Quote(p)+": "+err.Error())
			continue
		}
		ids = append(ids, v)
	}
	return ids, warnings
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvFloatDefault(key string, def float32) float32 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return def
	}
	return float32(f)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

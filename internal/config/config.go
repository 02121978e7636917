package config

import (
	"os"
	"strings"
)

type Mode string

const (
	ModeLive Mode = "live" // Groq + Supabase, credentials required
	ModeDev  Mode = "dev"  // echo completer + in-memory history, no external client
)

const (
	DefaultAddr         = ":8080"
	DefaultSecretsFile  = ".secrets/secrets.toml"
	DefaultGroqBaseURL  = "https://api.groq.com/openai/v1"
	DefaultHistoryTable = "chat_history"
)

type Config struct {
	Mode Mode

	Addr string

	SecretsFile string

	GroqBaseURL  string
	HistoryTable string

	LogLevel string
	LogFile  string // tui only; empty = discard
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// Load reads all env vars and builds the config. Command-line flags
// override these values afterwards.
func Load() *Config {
	mode := ModeLive
	if getBoolEnv("CHATRELAY_DEV", false) {
		mode = ModeDev
	}

	addr := getEnv("CHATRELAY_ADDR", "")
	if addr == "" {
		// hosting platforms hand out a bare port
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = DefaultAddr
		}
	}

	return &Config{
		Mode: mode,

		Addr: addr,

		SecretsFile: getEnv("CHATRELAY_SECRETS_FILE", DefaultSecretsFile),

		GroqBaseURL:  getEnv("CHATRELAY_GROQ_BASE_URL", DefaultGroqBaseURL),
		HistoryTable: getEnv("CHATRELAY_HISTORY_TABLE", DefaultHistoryTable),

		LogLevel: getEnv("CHATRELAY_LOG_LEVEL", "info"),
		LogFile:  getEnv("CHATRELAY_LOG_FILE", ""),
	}
}

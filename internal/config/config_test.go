package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/chatrelay/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"CHATRELAY_DEV", "CHATRELAY_ADDR", "PORT", "CHATRELAY_SECRETS_FILE",
		"CHATRELAY_GROQ_BASE_URL", "CHATRELAY_HISTORY_TABLE", "CHATRELAY_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}

	cfg := config.Load()

	assert.Equal(t, config.ModeLive, cfg.Mode)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, config.DefaultSecretsFile, cfg.SecretsFile)
	assert.Equal(t, config.DefaultGroqBaseURL, cfg.GroqBaseURL)
	assert.Equal(t, "chat_history", cfg.HistoryTable)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CHATRELAY_DEV", "true")
	t.Setenv("CHATRELAY_ADDR", "")
	t.Setenv("PORT", "10000")
	t.Setenv("CHATRELAY_HISTORY_TABLE", "audit")

	cfg := config.Load()

	assert.Equal(t, config.ModeDev, cfg.Mode)
	assert.Equal(t, ":10000", cfg.Addr)
	assert.Equal(t, "audit", cfg.HistoryTable)

	t.Setenv("CHATRELAY_ADDR", "127.0.0.1:9000")
	assert.Equal(t, "127.0.0.1:9000", config.Load().Addr)
}

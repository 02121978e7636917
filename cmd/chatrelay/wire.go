package main

import (
	"github.com/PabloGalante/chatrelay/internal/adapters/llm"
	"github.com/PabloGalante/chatrelay/internal/adapters/storage/memory"
	"github.com/PabloGalante/chatrelay/internal/adapters/storage/supabase"
	"github.com/PabloGalante/chatrelay/internal/app/conversation"
	"github.com/PabloGalante/chatrelay/internal/config"
	"github.com/PabloGalante/chatrelay/internal/domain"
	"github.com/PabloGalante/chatrelay/internal/observability"
)

// newSession builds the adapters for cfg.Mode and the session around them.
// In live mode all credentials are resolved before any client is created.
func newSession(cfg *config.Config) (*conversation.Session, error) {
	log := observability.Logger()

	var (
		completer domain.Completer
		recorder  domain.HistoryRecorder
	)

	switch cfg.Mode {
	case config.ModeDev:
		log.Info("using echo completer and in-memory history (dev mode)")
		completer = llm.NewEchoCompleter()
		recorder = memory.NewHistoryStore()

	default:
		creds, err := config.ResolveCredentials(config.DefaultResolver(cfg.SecretsFile))
		if err != nil {
			return nil, err
		}

		groq, err := llm.NewGroqClient(creds.CompletionAPIKey, cfg.GroqBaseURL)
		if err != nil {
			return nil, err
		}
		store, err := supabase.NewStore(creds.StoreURL, creds.StoreKey, cfg.HistoryTable)
		if err != nil {
			return nil, err
		}

		log.Info("using groq completer and supabase history", "base_url", cfg.GroqBaseURL, "table", cfg.HistoryTable)
		completer = groq
		recorder = store
	}

	return conversation.NewSession(completer, recorder), nil
}

package supabase

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/supabase-community/supabase-go"

	"github.com/PabloGalante/chatrelay/internal/domain"
	"github.com/PabloGalante/chatrelay/internal/observability"
)

const DefaultTable = "chat_history"

// Store writes chat history rows through Supabase's REST (PostgREST) API.
// It never reads them back.
type Store struct {
	client *supabase.Client
	table  string
}

// NewStore creates a Supabase store for the project at url, authenticated
// with key. An empty table selects DefaultTable.
func NewStore(url, key, table string) (*Store, error) {
	if url == "" || key == "" {
		return nil, errors.New("supabase url and key are required")
	}
	if table == "" {
		table = DefaultTable
	}

	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{Schema: "public"})
	if err != nil {
		return nil, errors.Wrap(err, "creating supabase client")
	}

	return &Store{client: client, table: table}, nil
}

// ─────────────────────────────────────────
// Row types
// ─────────────────────────────────────────

type historyRow struct {
	UserName string `json:"user_name"`
	Message  string `json:"message"`
	Response string `json:"response"`
}

func toHistoryRow(rec domain.ChatHistoryRecord) historyRow {
	return historyRow{
		UserName: rec.UserName,
		Message:  rec.Message,
		Response: rec.Response,
	}
}

// ─────────────────────────────────────────
// HistoryRecorder implementation
// ─────────────────────────────────────────

// Record inserts one row. Exactly one attempt.
func (s *Store) Record(ctx context.Context, rec domain.ChatHistoryRecord) error {
	log := observability.LoggerFromContext(ctx).With("table", s.table, "user_name", rec.UserName)

	start := time.Now()
	_, _, err := s.client.From(s.table).
		Insert(toHistoryRow(rec), false, "", "minimal", "").
		Execute()
	elapsed := time.Since(start)
	if err != nil {
		log.Error("supabase insert failed", "error", err, "elapsed_ms", elapsed.Milliseconds())
		return errors.Wrapf(err, "supabase insert into %s", s.table)
	}

	log.Info("chat history saved", "elapsed_ms", elapsed.Milliseconds())
	return nil
}

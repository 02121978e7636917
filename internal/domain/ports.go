package domain

import "context"

// Completer defines how the core application asks a chat-completion service
// for the next assistant message. messages already carry the system prefix.
type Completer interface {
	Complete(ctx context.Context, messages []Turn, cfg GenerationConfig) (string, error)
}

// HistoryRecorder defines the write-only audit sink for finished turns.
type HistoryRecorder interface {
	Record(ctx context.Context, rec ChatHistoryRecord) error
}

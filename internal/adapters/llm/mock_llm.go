package llm

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/PabloGalante/chatrelay/internal/domain"
)

// EchoCompleter answers without any network call. Used in dev mode.
type EchoCompleter struct{}

func NewEchoCompleter() *EchoCompleter {
	return &EchoCompleter{}
}

func (m *EchoCompleter) Complete(_ context.Context, messages []domain.Turn, cfg domain.GenerationConfig) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("echo completer: no messages")
	}
	last := messages[len(messages)-1]
	return fmt.Sprintf("You said %q (model=%s, temperature=%.1f, %d turns of context).",
		last.Content, cfg.Model, cfg.Temperature, len(messages)-1), nil
}

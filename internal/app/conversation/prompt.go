package conversation

import "github.com/PabloGalante/chatrelay/internal/domain"

const SystemInstruction = "You are a helpful assistant."

// DefaultWindowSize bounds how many transcript turns go into one request.
const DefaultWindowSize = 10

// BuildMessages prefixes the fixed system instruction to a transcript window.
func BuildMessages(window []domain.Turn) []domain.Turn {
	msgs := make([]domain.Turn, 0, len(window)+1)
	msgs = append(msgs, domain.Turn{Role: domain.RoleSystem, Content: SystemInstruction})
	return append(msgs, window...)
}

package domain

// Transcript is the ordered, in-memory history of one session.
// Insertion order is conversation order. It is not safe for concurrent
// use; the owning session serializes access.
type Transcript struct {
	turns []Turn
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds a turn at the end. There is no size limit.
func (t *Transcript) Append(turn Turn) {
	t.turns = append(t.turns, turn)
}

// Window returns a copy of the last n turns in original order.
// If n <= 0 or n exceeds the length, the whole transcript is returned.
func (t *Transcript) Window(n int) []Turn {
	start := 0
	if n > 0 && len(t.turns) > n {
		start = len(t.turns) - n
	}
	out := make([]Turn, len(t.turns)-start)
	copy(out, t.turns[start:])
	return out
}

// Turns returns a copy of the full transcript.
func (t *Transcript) Turns() []Turn {
	return t.Window(0)
}

func (t *Transcript) Len() int {
	return len(t.turns)
}

// Clear replaces the transcript with an empty one.
func (t *Transcript) Clear() {
	t.turns = nil
}

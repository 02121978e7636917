package conversation

import "github.com/PabloGalante/chatrelay/internal/domain"

// State is where the session is in the current exchange.
type State string

const (
	StateIdle               State = "idle"
	StateAwaitingCompletion State = "awaiting_completion"
	StateAwaitingPersist    State = "awaiting_persist"
)

type BannerLevel string

const (
	BannerSuccess BannerLevel = "success"
	BannerError   BannerLevel = "error"
)

// Banner is a one-line notice the surface shows after a step.
type Banner struct {
	Level   BannerLevel `json:"level"`
	Message string      `json:"message"`
}

type EventKind string

const (
	EventState    EventKind = "state"
	EventTurn     EventKind = "turn"
	EventBanner   EventKind = "banner"
	EventCleared  EventKind = "cleared"
	EventSettings EventKind = "settings"
)

// Event describes one observable change. Only the field matching Kind is set.
type Event struct {
	Kind     EventKind        `json:"kind"`
	State    State            `json:"state,omitempty"`
	Turn     *domain.Turn     `json:"turn,omitempty"`
	Banner   *Banner          `json:"banner,omitempty"`
	Settings *domain.Settings `json:"settings,omitempty"`
}

// Listener observes session events. Listeners run synchronously on the
// turn's goroutine; they must not block and must not call Submit or Clear.
type Listener func(Event)

package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/PabloGalante/chatrelay/internal/domain"
	"github.com/PabloGalante/chatrelay/internal/observability"
)

var ErrEmptyInput = errors.New("message text is empty")

// Session is the single chat session of the process: transcript, settings
// and the two adapters. Turns are serialized; Snapshot never waits for an
// in-flight network call.
type Session struct {
	id         string
	completer  domain.Completer
	recorder   domain.HistoryRecorder
	windowSize int
	now        func() time.Time

	turnMu sync.Mutex // held for a whole exchange and for Clear

	mu         sync.Mutex // guards the fields below
	transcript *domain.Transcript
	settings   domain.Settings
	state      State
	startedAt  time.Time

	listenersMu sync.RWMutex
	listeners   map[int]Listener
	nextID      int
}

type Option func(*Session)

// WithWindowSize overrides DefaultWindowSize. n <= 0 is ignored.
func WithWindowSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.windowSize = n
		}
	}
}

// WithSettings sets the initial settings; invalid settings are ignored.
func WithSettings(settings domain.Settings) Option {
	return func(s *Session) {
		if settings.Validate() == nil {
			s.settings = normalizeSettings(settings)
		}
	}
}

func NewSession(completer domain.Completer, recorder domain.HistoryRecorder, opts ...Option) *Session {
	s := &Session{
		id:         uuid.NewString(),
		completer:  completer,
		recorder:   recorder,
		windowSize: DefaultWindowSize,
		now:        time.Now,
		transcript: domain.NewTranscript(),
		settings:   domain.DefaultSettings(),
		state:      StateIdle,
		listeners:  make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	return s
}

func (s *Session) ID() string {
	return s.id
}

// TurnOutcome reports what one Submit did.
type TurnOutcome struct {
	UserTurn      domain.Turn
	AssistantTurn *domain.Turn // nil when the completion failed
	CompletionErr error
	PersistErr    error
	Banners       []Banner
}

// Submit runs one exchange: append the user turn, ask the completer for a
// reply over the windowed transcript, append the reply, record the pair.
// Adapter failures are reported in the outcome, not as the returned error;
// the returned error is only ErrEmptyInput.
func (s *Session) Submit(ctx context.Context, text string) (*TurnOutcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.mu.Lock()
	settings := s.settings
	s.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With(
		"session_id", s.id,
		"user_name", settings.UserName,
		"model", settings.Generation.Model,
	)
	log.Info("turn started", "chars", len(text))

	out := &TurnOutcome{UserTurn: domain.NewUserTurn(text)}

	s.mu.Lock()
	s.transcript.Append(out.UserTurn)
	window := s.transcript.Window(s.windowSize)
	s.mu.Unlock()
	s.emit(Event{Kind: EventTurn, Turn: &out.UserTurn})

	s.setState(StateAwaitingCompletion)

	start := time.Now()
	reply, err := s.completer.Complete(ctx, BuildMessages(window), settings.Generation)
	if err != nil {
		log.Error("completion failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		out.CompletionErr = err
		s.banner(out, BannerError, "Completion request failed: "+err.Error())
		s.setState(StateIdle)
		return out, nil
	}
	log.Info("completion received", "elapsed_ms", time.Since(start).Milliseconds(), "window", len(window))

	assistant := domain.NewAssistantTurn(reply)
	out.AssistantTurn = &assistant
	s.mu.Lock()
	s.transcript.Append(assistant)
	s.mu.Unlock()
	s.emit(Event{Kind: EventTurn, Turn: &assistant})

	s.setState(StateAwaitingPersist)

	rec := domain.ChatHistoryRecord{
		UserName: settings.UserName,
		Message:  text,
		Response: reply,
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		log.Error("history record failed", "error", err)
		out.PersistErr = err
		s.banner(out, BannerError, "Failed to save: "+err.Error())
	} else {
		s.banner(out, BannerSuccess, "Saved to database")
	}

	s.setState(StateIdle)
	log.Info("turn finished", "persisted", out.PersistErr == nil)
	return out, nil
}

// Clear empties the transcript. It waits for an in-flight turn.
func (s *Session) Clear() {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.mu.Lock()
	dropped := s.transcript.Len()
	s.transcript.Clear()
	s.mu.Unlock()

	observability.Logger().Info("transcript cleared", "session_id", s.id, "dropped_turns", dropped)
	s.emit(Event{Kind: EventCleared})
}

func (s *Session) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings validates and applies new settings. A turn already in
// flight keeps the settings it started with.
func (s *Session) UpdateSettings(settings domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	settings = normalizeSettings(settings)

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	s.emit(Event{Kind: EventSettings, Settings: &settings})
	return nil
}

func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.UserName = strings.TrimSpace(settings.UserName)
	if settings.UserName == "" {
		settings.UserName = domain.DefaultUserName
	}
	return settings
}

// Snapshot is a consistent copy of the session for rendering.
type Snapshot struct {
	ID        string          `json:"id"`
	State     State           `json:"state"`
	Settings  domain.Settings `json:"settings"`
	Turns     []domain.Turn   `json:"turns"`
	StartedAt time.Time       `json:"started_at"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.id,
		State:     s.state,
		Settings:  s.settings,
		Turns:     s.transcript.Turns(),
		StartedAt: s.startedAt,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers l and returns a function that removes it.
func (s *Session) Subscribe(l Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.emit(Event{Kind: EventState, State: st})
}

func (s *Session) banner(out *TurnOutcome, level BannerLevel, msg string) {
	b := Banner{Level: level, Message: msg}
	out.Banners = append(out.Banners, b)
	s.emit(Event{Kind: EventBanner, Banner: &b})
}

func (s *Session) emit(ev Event) {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()
	for _, l := range s.listeners {
		l(ev)
	}
}

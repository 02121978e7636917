package httpadapter

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/PabloGalante/chatrelay/internal/app/conversation"
	"github.com/PabloGalante/chatrelay/internal/domain"
	"github.com/PabloGalante/chatrelay/internal/observability"
)

//go:embed web/index.html
var webFS embed.FS

var pageTemplate = template.Must(template.ParseFS(webFS, "web/index.html"))

type Server struct {
	session *conversation.Session
	events  *eventFeed
}

func NewServer(session *conversation.Session) http.Handler {
	s := &Server{
		session: session,
		events:  newEventFeed(session),
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handlePage)
	mux.HandleFunc("/healthz", s.handleHealthz)

	// /api/session  → GET: transcript + settings
	// /api/settings → PUT: replace settings
	// /api/messages → POST: submit one turn
	// /api/clear    → POST: clear transcript
	// /api/events   → GET: websocket feed of session events
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/messages", s.handleMessages)
	mux.HandleFunc("/api/clear", s.handleClear)
	mux.HandleFunc("/api/events", s.events.ServeHTTP)

	return chainMiddlewares(mux, withCORS, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type turnResponse struct {
	Role    string        `json:"role"`
	Content string        `json:"content"`
	HTML    template.HTML `json:"html"`
}

type settingsPayload struct {
	UserName    string  `json:"user_name"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type limitsResponse struct {
	Models          []string `json:"models"`
	MinTemperature  float64  `json:"min_temperature"`
	MaxTemperature  float64  `json:"max_temperature"`
	TemperatureStep float64  `json:"temperature_step"`
	MinMaxTokens    int      `json:"min_max_tokens"`
	MaxMaxTokens    int      `json:"max_max_tokens"`
	MaxTokensStep   int      `json:"max_tokens_step"`
}

type sessionResponse struct {
	ID       string          `json:"id"`
	State    string          `json:"state"`
	Settings settingsPayload `json:"settings"`
	Turns    []turnResponse  `json:"turns"`
	Limits   limitsResponse  `json:"limits"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	UserTurn        turnResponse          `json:"user_turn"`
	AssistantTurn   *turnResponse         `json:"assistant_turn,omitempty"`
	Banners         []conversation.Banner `json:"banners"`
	CompletionError string                `json:"completion_error,omitempty"`
	PersistError    string                `json:"persist_error,omitempty"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

type pageData struct {
	Session sessionResponse
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, pageData{Session: toSessionResponse(s.session.Snapshot())}); err != nil {
		observability.LoggerFromContext(r.Context()).Error("render page", "error", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s.session.Snapshot()))
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, toSettingsPayload(s.session.Settings()))
	case http.MethodPut:
		s.handleUpdateSettings(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if err := s.session.UpdateSettings(fromSettingsPayload(req)); err != nil {
		if errors.Is(err, domain.ErrInvalidSettings) {
			badRequest(w, err.Error())
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSettingsPayload(s.session.Settings()))
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}

	// an issued turn runs to completion even if the browser goes away
	ctx := context.WithoutCancel(r.Context())

	out, err := s.session.Submit(ctx, req.Text)
	if err != nil {
		if errors.Is(err, conversation.ErrEmptyInput) {
			badRequest(w, "text is required")
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSendMessageResponse(out))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.session.Clear()
	writeJSON(w, http.StatusOK, toSessionResponse(s.session.Snapshot()))
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func toTurnResponse(t domain.Turn) turnResponse {
	return turnResponse{
		Role:    string(t.Role),
		Content: t.Content,
		HTML:    renderTurn(t),
	}
}

func toTurnsResponse(turns []domain.Turn) []turnResponse {
	out := make([]turnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, toTurnResponse(t))
	}
	return out
}

func toSettingsPayload(s domain.Settings) settingsPayload {
	return settingsPayload{
		UserName:    s.UserName,
		Model:       s.Generation.Model,
		Temperature: s.Generation.Temperature,
		MaxTokens:   s.Generation.MaxTokens,
	}
}

func fromSettingsPayload(p settingsPayload) domain.Settings {
	return domain.Settings{
		UserName: p.UserName,
		Generation: domain.GenerationConfig{
			Model:       p.Model,
			Temperature: p.Temperature,
			MaxTokens:   p.MaxTokens,
		},
	}
}

func currentLimits() limitsResponse {
	return limitsResponse{
		Models:          domain.AllowedModels,
		MinTemperature:  domain.MinTemperature,
		MaxTemperature:  domain.MaxTemperature,
		TemperatureStep: domain.TemperatureStep,
		MinMaxTokens:    domain.MinMaxTokens,
		MaxMaxTokens:    domain.MaxMaxTokens,
		MaxTokensStep:   domain.MaxTokensStep,
	}
}

func toSessionResponse(snap conversation.Snapshot) sessionResponse {
	return sessionResponse{
		ID:       snap.ID,
		State:    string(snap.State),
		Settings: toSettingsPayload(snap.Settings),
		Turns:    toTurnsResponse(snap.Turns),
		Limits:   currentLimits(),
	}
}

func toSendMessageResponse(out *conversation.TurnOutcome) sendMessageResponse {
	resp := sendMessageResponse{
		UserTurn: toTurnResponse(out.UserTurn),
		Banners:  out.Banners,
	}
	if out.AssistantTurn != nil {
		t := toTurnResponse(*out.AssistantTurn)
		resp.AssistantTurn = &t
	}
	if out.CompletionErr != nil {
		resp.CompletionError = out.CompletionErr.Error()
	}
	if out.PersistErr != nil {
		resp.PersistError = out.PersistErr.Error()
	}
	return resp
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}

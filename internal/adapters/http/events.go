package httpadapter

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PabloGalante/chatrelay/internal/app/conversation"
	"github.com/PabloGalante/chatrelay/internal/observability"
)

const (
	eventBuffer  = 64
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// eventMessage is the websocket frame sent for every session event.
type eventMessage struct {
	Kind     conversation.EventKind `json:"kind"`
	State    conversation.State     `json:"state,omitempty"`
	Turn     *turnResponse          `json:"turn,omitempty"`
	Banner   *conversation.Banner   `json:"banner,omitempty"`
	Settings *settingsPayload       `json:"settings,omitempty"`
	Session  *sessionResponse       `json:"session,omitempty"`
}

const eventSnapshot conversation.EventKind = "snapshot"

// eventFeed pushes session events to websocket clients.
type eventFeed struct {
	session  *conversation.Session
	upgrader websocket.Upgrader
}

func newEventFeed(session *conversation.Session) *eventFeed {
	return &eventFeed{
		session: session,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (f *eventFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := observability.LoggerFromContext(r.Context())

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	out := make(chan eventMessage, eventBuffer)
	unsubscribe := f.session.Subscribe(func(ev conversation.Event) {
		select {
		case out <- toEventMessage(ev):
		default:
			// slow client; it resyncs from the next snapshot
		}
	})
	defer unsubscribe()

	snap := toSessionResponse(f.session.Snapshot())
	out <- eventMessage{Kind: eventSnapshot, Session: &snap}

	// the read loop only exists to notice the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Info("event feed attached")
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			log.Info("event feed detached")
			return
		case msg := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn("event feed write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func toEventMessage(ev conversation.Event) eventMessage {
	msg := eventMessage{Kind: ev.Kind, State: ev.State, Banner: ev.Banner}
	if ev.Turn != nil {
		t := toTurnResponse(*ev.Turn)
		msg.Turn = &t
	}
	if ev.Settings != nil {
		p := toSettingsPayload(*ev.Settings)
		msg.Settings = &p
	}
	return msg
}

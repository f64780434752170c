package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/auth"
	"trivia-live-service/internal/domain"
)

// WSHandler upgrades connections and wires them into the session use cases.
// Participants join with a display name (or reconnect with their participant
// id); hosts connect with a token and may issue control commands.
type WSHandler struct {
	service  *app.SessionService
	tokens   *auth.TokenService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService, tokens *auth.TokenService) *WSHandler {
	return &WSHandler{
		service: service,
		tokens:  tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID  string `json:"questionId"`
	Answer      string `json:"answer"`
	TimeSpentMs int64  `json:"timeSpentMs"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS handles GET /ws/{code}. Query parameters: name (join),
// participantId (reconnect), token (host).
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	name := r.URL.Query().Get("name")
	participantID := r.URL.Query().Get("participantId")
	token := r.URL.Query().Get("token")

	if code == "" || (token == "" && name == "" && participantID == "") {
		http.Error(w, "missing code and one of name, participantId, token", http.StatusBadRequest)
		return
	}

	sess, err := h.service.Snapshot(r.Context(), code)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	var callerID string
	isHost := false
	switch {
	case token != "":
		hostID, err := h.tokens.ValidateHostToken(token)
		if err != nil || hostID != sess.HostID {
			http.Error(w, "invalid host token", http.StatusUnauthorized)
			return
		}
		callerID = hostID
		isHost = true
	case participantID != "":
		if _, ok := sess.Participants[participantID]; !ok {
			http.Error(w, "unknown participant", http.StatusNotFound)
			return
		}
		callerID = participantID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if !isHost && callerID == "" {
		joined, err := h.service.Join(r.Context(), code, app.JoinRequest{
			DisplayName: name,
			Anonymous:   r.URL.Query().Get("anonymous") == "true",
			IdentityRef: r.URL.Query().Get("identityRef"),
		})
		if err != nil {
			_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
		callerID = joined.ID
		_ = conn.WriteJSON(outboundMessage{Type: "joined", Payload: joined})
	} else if !isHost {
		// Reconnect: a heartbeat flips the participant back to connected
		// and triggers the resync snapshot.
		if err := h.service.Heartbeat(r.Context(), code, callerID); err != nil {
			_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
	}

	events, cancel, err := h.service.Subscribe(code, callerID, isHost)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	if !isHost {
		defer func() {
			ctx, cancelDisconnect := context.WithTimeout(context.Background(), internalTimeout)
			defer cancelDisconnect()
			_ = h.service.MarkDisconnected(ctx, code, callerID)
		}()
	}

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: string(ev.Type), Payload: ev.Payload}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r.Context(), code, callerID, isHost, inbound, send)
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, code, callerID string, isHost bool, inbound inboundMessage, send chan<- outboundMessage) {
	fail := func(err error) {
		send <- outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}

	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid answer payload"))
			return
		}
		resp, err := h.service.SubmitAnswer(ctx, code, callerID, payload.QuestionID, payload.Answer, payload.TimeSpentMs)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage{Type: "answerResult", Payload: resp}
	case "heartbeat":
		if err := h.service.Heartbeat(ctx, code, callerID); err != nil {
			fail(err)
		}
	case "start", "pause", "resume", "end", "cancel", "next", "previous":
		if !isHost {
			fail(domain.ErrUnauthorized)
			return
		}
		if err := h.control(ctx, code, callerID, inbound.Type); err != nil {
			fail(err)
		}
	default:
		fail(errors.New("unsupported message type"))
	}
}

func (h *WSHandler) control(ctx context.Context, code, callerID, command string) error {
	switch command {
	case "start":
		_, err := h.service.Start(ctx, code, callerID)
		return err
	case "pause":
		return h.service.Pause(ctx, code, callerID)
	case "resume":
		return h.service.Resume(ctx, code, callerID)
	case "end":
		_, err := h.service.End(ctx, code, callerID)
		return err
	case "cancel":
		return h.service.Cancel(ctx, code, callerID)
	case "next":
		return h.service.Next(ctx, code, callerID)
	case "previous":
		return h.service.Previous(ctx, code, callerID)
	default:
		return errors.New("unsupported command")
	}
}

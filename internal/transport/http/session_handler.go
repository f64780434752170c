package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/auth"
	"trivia-live-service/internal/domain"
)

const internalTimeout = 5 * time.Second

// SessionHandler exposes the session REST surface: hosts create sessions,
// anyone can look up a lobby by its join code.
type SessionHandler struct {
	service *app.SessionService
	tokens  *auth.TokenService
}

func NewSessionHandler(service *app.SessionService, tokens *auth.TokenService) *SessionHandler {
	return &SessionHandler{service: service, tokens: tokens}
}

type createSessionRequest struct {
	QuizID   string          `json:"quizId"`
	Title    string          `json:"title"`
	Settings domain.Settings `json:"settings"`
}

type sessionView struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	Title         string          `json:"title"`
	Status        domain.Status   `json:"status"`
	Settings      domain.Settings `json:"settings"`
	RosterSize    int             `json:"rosterSize"`
	QuestionIndex *int            `json:"questionIndex,omitempty"`
}

// CreateSession handles POST /sessions. Requires a host token.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	hostID, err := h.tokens.ValidateHostToken(bearerToken(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or missing token")
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.service.CreateSession(r.Context(), hostID, req.QuizID, req.Title, req.Settings)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

// GetSession handles GET /sessions/{code}: the public lobby view, no answer
// keys and no per-participant detail.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	sess, err := h.service.Snapshot(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func viewOf(sess domain.Session) sessionView {
	return sessionView{
		ID:            sess.ID,
		Code:          sess.Code,
		Title:         sess.Title,
		Status:        sess.Status,
		Settings:      sess.Settings,
		RosterSize:    len(sess.Participants),
		QuestionIndex: sess.CurrentQuestion,
	}
}

// NewRouter wires the HTTP surface.
func NewRouter(service *app.SessionService, tokens *auth.TokenService) *mux.Router {
	sessions := NewSessionHandler(service, tokens)
	ws := NewWSHandler(service, tokens)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/sessions", sessions.CreateSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{code}", sessions.GetSession).Methods(http.MethodGet)
	r.HandleFunc("/ws/{code}", ws.ServeWS)
	return r
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound), errors.Is(err, domain.ErrParticipantNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNameTaken), errors.Is(err, domain.ErrDuplicateParticipant),
		errors.Is(err, domain.ErrDuplicateResponse), errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrSessionNotJoinable), errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, domain.ErrNoParticipants), errors.Is(err, domain.ErrStaleSubmission):
		status = http.StatusConflict
	}
	writeError(w, status, err.Error())
}

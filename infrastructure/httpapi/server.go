// Package httpapi exposes the challenge lifecycle and the notification
// inbox over REST. Transport concerns only; every rule lives in the
// services layer.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	goerrors "errors"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"fitstake/auth"
	"fitstake/contract"
	"fitstake/domain"
	"fitstake/errors"
	"fitstake/observability"
	"fitstake/services"
)

const defaultSearchLimit = 20

type Server struct {
	log           *slog.Logger
	challenges    services.IChallengeService
	notifications services.INotificationService
	registry      contract.IRegistry
	stats         *observability.DispatchStats
	tokens        *auth.TokenManager
}

func NewServer(
	log *slog.Logger,
	challenges services.IChallengeService,
	notifications services.INotificationService,
	registry contract.IRegistry,
	stats *observability.DispatchStats,
	tokens *auth.TokenManager,
) *Server {
	return &Server{
		log:           log,
		challenges:    challenges,
		notifications: notifications,
		registry:      registry,
		stats:         stats,
		tokens:        tokens,
	}
}

// Router wires every route. The websocket handler is passed in so the
// realtime package stays free of REST concerns.
func (s *Server) Router(ws http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/challenges", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/challenges/search", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/challenges/{challengeID}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/challenges/{challengeID}/join", s.handleJoin).Methods(http.MethodPost)
	api.HandleFunc("/challenges/{challengeID}/accept", s.handleAccept).Methods(http.MethodPost)
	api.HandleFunc("/challenges/{challengeID}/complete", s.handleComplete).Methods(http.MethodPost)
	api.HandleFunc("/communities/{communityID}/challenges", s.handleListByCommunity).Methods(http.MethodGet)

	// Inbox routes take their identity from the token, never the body
	inbox := api.PathPrefix("/notifications").Subrouter()
	inbox.Use(s.tokens.Middleware)
	inbox.HandleFunc("", s.handleInbox).Methods(http.MethodGet)
	inbox.HandleFunc("/{notificationID}/read", s.handleMarkRead).Methods(http.MethodPost)

	if ws != nil {
		r.Handle("/ws", ws)
	}
	return r
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var cmd services.CreateChallengeCommand
	if !s.decode(w, r, &cmd) {
		return
	}

	challenge, err := s.challenges.Create(r.Context(), cmd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, challenge)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	challenge, err := s.challenges.Get(r.Context(), mux.Vars(r)["challengeID"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, challenge)
}

func (s *Server) handleListByCommunity(w http.ResponseWriter, r *http.Request) {
	challenges, err := s.challenges.ListByCommunity(r.Context(), mux.Vars(r)["communityID"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	if challenges == nil {
		challenges = []domain.Challenge{}
	}
	s.writeJSON(w, http.StatusOK, challenges)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeJSON(w, http.StatusOK, []domain.Challenge{})
		return
	}
	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_limit", Message: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	challenges, err := s.challenges.Search(r.Context(), query, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if challenges == nil {
		challenges = []domain.Challenge{}
	}
	s.writeJSON(w, http.StatusOK, challenges)
}

// participantRequest is the shared body of join/accept/complete.
type participantRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.challenges.Join)
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.challenges.Accept)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.challenges.Complete)
}

// transition factors the common shape of the three participant routes.
func (s *Server) transition(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, challengeID, userID string) (domain.Challenge, error)) {
	var body participantRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.UserID == "" {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing_user_id", Message: "userId is required"})
		return
	}

	challenge, err := op(r.Context(), mux.Vars(r)["challengeID"], body.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, challenge)
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		s.writeError(w, errors.ErrUnauthorized)
		return
	}

	var cursor *string
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor = &raw
	}

	notifications, next, err := s.notifications.List(r.Context(), userID, cursor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inboxResponse{Notifications: notifications, Cursor: next})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		s.writeError(w, errors.ErrUnauthorized)
		return
	}

	if err := s.notifications.MarkRead(r.Context(), userID, mux.Vars(r)["notificationID"]); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		LiveSessions: s.registry.Len(),
		Dispatch:     s.stats.Snapshot(),
	})
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type inboxResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	Cursor        *string               `json:"cursor,omitempty"`
}

type healthResponse struct {
	Status       string                         `json:"status"`
	LiveSessions int                            `json:"live_sessions"`
	Dispatch     observability.DispatchSnapshot `json:"dispatch"`
}

// decode parses the JSON body, answering 400 on garbage itself.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_body", Message: "request body is not valid JSON"})
		return false
	}
	return true
}

// writeError maps a domain error onto the transport envelope.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if goerrors.As(err, &validationErrs) {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation_failed", Message: err.Error()})
		return
	}

	status := errors.MapToHTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", slog.Any("error", err))
	}
	s.writeJSON(w, status, errorBody{Error: errors.Code(err), Message: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Response encoding failed", slog.Any("error", err))
	}
}

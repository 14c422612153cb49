package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"fitstake/auth"
	"fitstake/contract"
	"fitstake/domain"
	"fitstake/services"
)

// Handler upgrades authenticated requests and ties the connection's
// lifecycle to the session registry: registered after the upgrade,
// unregistered when the read loop ends.
type Handler struct {
	log        *slog.Logger
	upgrader   websocket.Upgrader
	registry   contract.IRegistry
	tokens     *auth.TokenManager
	workouts   *services.WorkoutService
	sendBuffer int
}

func NewHandler(
	log *slog.Logger,
	registry contract.IRegistry,
	tokens *auth.TokenManager,
	workouts *services.WorkoutService,
	sendBuffer int,
) *Handler {
	return &Handler{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients come from the app's own origin; the JWT is
			// the access control, not the Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		registry:   registry,
		tokens:     tokens,
		workouts:   workouts,
		sendBuffer: sendBuffer,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on websocket requests, so the token
	// usually arrives as ?token=; the middleware handles both.
	claims, err := h.identify(r)
	if err != nil {
		http.Error(w, "invalid or missing token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("Upgrade failed", slog.Any("error", err))
		return
	}

	session := newSession(conn, h.sendBuffer, h.log)
	h.registry.Register(claims.UserID, session)
	h.log.Info("Session opened",
		slog.String("user_id", claims.UserID),
		slog.String("session_id", session.SessionID()))

	go session.writePump()
	h.readLoop(claims.UserID, session)
}

func (h *Handler) identify(r *http.Request) (*auth.CustomClaims, error) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		tokenStr = r.Header.Get("Authorization")
		if len(tokenStr) > 7 && tokenStr[:7] == "Bearer " {
			tokenStr = tokenStr[7:]
		}
	}
	return h.tokens.Validate(tokenStr)
}

// inboundFrame defers payload decoding until the event is known.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type workoutStart struct {
	Exercise string `json:"exercise"`
}

// readLoop consumes client frames until the connection dies, then tears
// the session down. The stale-handle guard in the registry makes the
// deferred unregister safe even when the user already reconnected.
func (h *Handler) readLoop(userID string, session *Session) {
	defer func() {
		h.registry.Unregister(userID, session)
		h.workouts.Drop(session.SessionID())
		session.close()
		h.log.Info("Session closed",
			slog.String("user_id", userID),
			slog.String("session_id", session.SessionID()))
	}()

	_ = session.conn.SetReadDeadline(time.Now().Add(pongWait))
	session.conn.SetPongHandler(func(string) error {
		return session.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f inboundFrame
		if err := session.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("Read failed", slog.String("session_id", session.SessionID()), slog.Any("error", err))
			}
			return
		}
		h.dispatch(session, f)
	}
}

func (h *Handler) dispatch(session *Session, f inboundFrame) {
	switch f.Event {
	case contract.EventWorkoutStart:
		var start workoutStart
		if err := json.Unmarshal(f.Data, &start); err != nil {
			h.log.Debug("Bad workout_start payload", slog.Any("error", err))
			return
		}
		h.workouts.Start(session, start.Exercise)
	case contract.EventWorkoutSample:
		var sample domain.WorkoutSample
		if err := json.Unmarshal(f.Data, &sample); err != nil {
			h.log.Debug("Bad workout_sample payload", slog.Any("error", err))
			return
		}
		h.workouts.Sample(session, sample)
	case contract.EventWorkoutStop:
		h.workouts.Stop(session)
	default:
		h.log.Debug("Unknown client event", slog.String("event", f.Event))
	}
}

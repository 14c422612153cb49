package ws

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"fitstake/auth"
	"fitstake/contract"
	"fitstake/domain"
	"fitstake/runtime"
	"fitstake/services"
)

func newTestHandler(t *testing.T) (*Handler, *runtime.Registry, *auth.TokenManager) {
	t.Helper()
	log := slog.Default()
	registry := runtime.NewRegistry()
	tokens := auth.NewTokenManager("test_secret_which_is_long_enough", "fitstake", time.Hour)
	workouts := services.NewWorkoutService(log)
	return NewHandler(log, registry, tokens, workouts, 16), registry, tokens
}

func dial(t *testing.T, serverURL, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type receivedFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) receivedFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f receivedFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHandler_Rejects_Missing_Token(t *testing.T) {
	req := require.New(t)
	handler, _, _ := newTestHandler(t)
	server := httptest.NewServer(handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	req.Error(err)
	req.Equal(401, resp.StatusCode)
}

func TestHandler_Registers_And_Delivers_Push(t *testing.T) {
	req := require.New(t)
	handler, registry, tokens := newTestHandler(t)
	server := httptest.NewServer(handler)
	defer server.Close()

	token, err := tokens.Generate("u1")
	req.NoError(err)
	conn := dial(t, server.URL, token)

	// The session lands in the registry shortly after the upgrade
	req.Eventually(func() bool { return registry.Len() == 1 }, time.Second, 10*time.Millisecond)

	ch, ok := registry.Lookup("u1")
	req.True(ok)
	req.NoError(ch.Send(contract.EventNewNotification, domain.Notification{ID: "n1", UserID: "u1"}))

	f := readFrame(t, conn)
	req.Equal("new_notification", f.Event)
	var pushed domain.Notification
	req.NoError(json.Unmarshal(f.Data, &pushed))
	req.Equal("n1", pushed.ID)
}

func TestHandler_Unregisters_On_Disconnect(t *testing.T) {
	req := require.New(t)
	handler, registry, tokens := newTestHandler(t)
	server := httptest.NewServer(handler)
	defer server.Close()

	token, err := tokens.Generate("u1")
	req.NoError(err)
	conn := dial(t, server.URL, token)
	req.Eventually(func() bool { return registry.Len() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	req.Eventually(func() bool { return registry.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHandler_Workout_Round_Trip(t *testing.T) {
	req := require.New(t)
	handler, _, tokens := newTestHandler(t)
	server := httptest.NewServer(handler)
	defer server.Close()

	token, err := tokens.Generate("u1")
	req.NoError(err)
	conn := dial(t, server.URL, token)

	req.NoError(conn.WriteJSON(frame{Event: contract.EventWorkoutStart, Data: workoutStart{Exercise: "squat"}}))

	f := readFrame(t, conn)
	req.Equal("squat_status", f.Event)
	var status services.StatusUpdate
	req.NoError(json.Unmarshal(f.Data, &status))
	req.Equal(domain.StatusReady, status.Status)

	// Down then up through the median window counts one rep
	angles := []float64{170, 170, 170, 170, 170, 90, 90, 90, 90, 90, 170, 170, 170, 170, 170}
	for _, angle := range angles {
		sample := domain.WorkoutSample{Angle: lo.ToPtr(angle), Person: true, Upright: true}
		req.NoError(conn.WriteJSON(frame{Event: contract.EventWorkoutSample, Data: sample}))
	}

	var count services.CountUpdate
	for {
		f = readFrame(t, conn)
		if f.Event == contract.EventSquatCount {
			req.NoError(json.Unmarshal(f.Data, &count))
			break
		}
		req.Equal(contract.EventSquatStatus, f.Event)
	}
	req.Equal(1, count.Count)
}

package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"practicecoach/internal/model"
	"practicecoach/internal/service"
)

type stubAuth struct{}

func (stubAuth) ValidateToken(token string) (*model.UserClaims, error) {
	if token == "bad" {
		return nil, service.ErrInvalidToken
	}
	return &model.UserClaims{UserID: token}, nil
}

// stubSessions knows one session owned by u1.
type stubSessions struct{}

func (stubSessions) GetSession(_ context.Context, id string, caller model.Identity) (*model.Session, error) {
	if id != "s1" {
		return nil, &service.Error{Kind: service.KindNotFound, Message: "session not found"}
	}
	if caller.UserID != "u1" {
		return nil, &service.Error{Kind: service.KindUnauthorized, Message: "session belongs to another user"}
	}
	return &model.Session{ID: id, OwnerID: "u1"}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	t.Cleanup(hub.Close)

	h := NewHandler(hub, stubAuth{}, stubSessions{}, func(string) bool { return true }, zap.NewNop())
	r := mux.NewRouter()
	r.HandleFunc("/v1/ws/sessions/{sessionId}", h.SessionWS)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func TestSessionWSReceivesEvents(t *testing.T) {
	srv, hub := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/sessions/s1?token=u1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers("s1") == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Events of other sessions are not delivered.
	if err := hub.Deliver(context.Background(), &model.Event{Type: model.EventSessionStarted, SessionID: "s2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = hub.Deliver(context.Background(), &model.Event{
		Type:      model.EventQuestionAnswered,
		SessionID: "s1",
		Payload:   map[string]any{"order": 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != MsgQuestionAnswered || msg.SessionID != "s1" || string(msg.Payload) != `{"order":2}` {
		t.Fatalf("unexpected message: %+v (%s)", msg, msg.Payload)
	}
}

func TestSessionWSRejects(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "invalid token", path: "/v1/ws/sessions/s1?token=bad", status: http.StatusUnauthorized},
		{name: "other user", path: "/v1/ws/sessions/s1?token=u2", status: http.StatusForbidden},
		{name: "guest on owned session", path: "/v1/ws/sessions/s1", status: http.StatusForbidden},
		{name: "unknown session", path: "/v1/ws/sessions/nope?token=u1", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "ws" + strings.TrimPrefix(srv.URL, "http") + tt.path
			_, resp, err := websocket.DefaultDialer.Dial(url, nil)
			if err == nil {
				t.Fatalf("expected handshake to fail")
			}
			if resp == nil || resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %v", tt.status, resp)
			}
		})
	}
}

func TestHubDeliverWithoutSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := hub.Deliver(ctx, &model.Event{Type: model.EventSessionStarted, SessionID: "nobody"}); err != nil {
		t.Fatalf("events without subscribers are skipped, got %v", err)
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	conn := &Connection{SessionID: "s1", Send: make(chan []byte, 1)}
	hub.Register(conn)
	hub.Unregister(conn)

	select {
	case _, ok := <-conn.Send:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("send channel was not closed")
	}
	if hub.Subscribers("s1") != 0 {
		t.Fatalf("expected no subscribers")
	}
}

func TestMessageType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		event model.EventType
		want  MessageType
		ok    bool
	}{
		{event: model.EventSessionStarted, want: MsgSessionStarted, ok: true},
		{event: model.EventQuestionAnswered, want: MsgQuestionAnswered, ok: true},
		{event: model.EventCoachingViewed, want: MsgCoachingViewed, ok: true},
		{event: "draft_saved", ok: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			t.Parallel()
			got, ok := messageType(tt.event)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("messageType(%q) = %q, %v; want %q, %v", tt.event, got, ok, tt.want, tt.ok)
			}
		})
	}
}

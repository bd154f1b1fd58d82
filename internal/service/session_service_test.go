package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"practicecoach/internal/model"
)

func newTestSessionService(sessions *memSessions, events Publisher) *SessionService {
	svc := NewSessionService(sessions, events, 2, time.UTC, zap.NewNop())
	svc.now = clock
	return svc
}

func TestCreateSessionValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     model.CreateSessionRequest
		message string
	}{
		{name: "too few questions", req: model.CreateSessionRequest{Mode: model.ModeText, QuestionCount: 2}},
		{name: "too many questions", req: model.CreateSessionRequest{Mode: model.ModeText, QuestionCount: 11}},
		{name: "unknown mode", req: model.CreateSessionRequest{Mode: "video", QuestionCount: 5}},
		{
			name:    "gentle with five questions",
			req:     model.CreateSessionRequest{Mode: model.ModeAudio, QuestionCount: 5, LowAnxietyEnabled: true},
			message: "Low-Anxiety Mode requires exactly 3 questions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newTestSessionService(newMemSessions(), nil)

			_, err := svc.CreateSession(context.Background(), tt.req, model.Guest())
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tt.message != "" && MessageOf(err) != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, MessageOf(err))
			}
		})
	}
}

func TestCreateSessionEchoesConfiguration(t *testing.T) {
	sessions := newMemSessions()
	events := &recordingPublisher{}
	svc := newTestSessionService(sessions, events)

	resp, err := svc.CreateSession(context.Background(), model.CreateSessionRequest{Mode: model.ModeText, QuestionCount: 8}, model.Guest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.SessionID == "" || resp.Mode != model.ModeText || resp.QuestionCount != 8 || resp.LowAnxietyEnabled {
		t.Fatalf("unexpected response: %+v", resp)
	}

	stored, _ := sessions.GetByID(context.Background(), resp.SessionID)
	if stored == nil {
		t.Fatalf("expected session to be stored")
	}
	if stored.CompletionRate != 0 || stored.IsCompleted() || stored.OwnerID != "" {
		t.Fatalf("unexpected stored session: %+v", stored)
	}
	if got := events.types(); len(got) != 1 || got[0] != model.EventSessionStarted {
		t.Fatalf("expected one session_started event, got %v", got)
	}
}

func TestCreateSessionDefaultsToText(t *testing.T) {
	svc := newTestSessionService(newMemSessions(), nil)

	resp, err := svc.CreateSession(context.Background(), model.CreateSessionRequest{QuestionCount: 3, LowAnxietyEnabled: true}, model.Guest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Mode != model.ModeText || !resp.LowAnxietyEnabled {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateSessionDailyLimit(t *testing.T) {
	sessions := newMemSessions()
	svc := newTestSessionService(sessions, nil)
	ctx := context.Background()
	req := model.CreateSessionRequest{Mode: model.ModeText, QuestionCount: 3}

	// Yesterday's session does not count against today.
	_ = sessions.Create(ctx, &model.Session{ID: "old", OwnerID: "u1", StartedAt: fixedNow.Add(-24 * time.Hour)})

	for i := range 2 {
		if _, err := svc.CreateSession(ctx, req, candidate("u1")); err != nil {
			t.Fatalf("session %d: unexpected error: %v", i+1, err)
		}
	}

	_, err := svc.CreateSession(ctx, req, candidate("u1"))
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate limited on third session, got %v", err)
	}

	if _, err := svc.CreateSession(ctx, req, candidate("u2")); err != nil {
		t.Fatalf("other user should not be limited: %v", err)
	}
	for range 3 {
		if _, err := svc.CreateSession(ctx, req, model.Guest()); err != nil {
			t.Fatalf("guests are not rate limited: %v", err)
		}
	}
}

func TestGetSessionOwnership(t *testing.T) {
	sessions := newMemSessions()
	svc := newTestSessionService(sessions, nil)
	ctx := context.Background()

	_ = sessions.Create(ctx, &model.Session{ID: "owned", OwnerID: "u1"})
	_ = sessions.Create(ctx, &model.Session{ID: "guest"})

	if _, err := svc.GetSession(ctx, "owned", candidate("u1")); err != nil {
		t.Fatalf("owner should read session: %v", err)
	}
	if _, err := svc.GetSession(ctx, "owned", candidate("u2")); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for other user, got %v", err)
	}
	if _, err := svc.GetSession(ctx, "owned", model.Guest()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for guest, got %v", err)
	}
	if _, err := svc.GetSession(ctx, "guest", candidate("u2")); err != nil {
		t.Fatalf("guest sessions are open to anyone with the id: %v", err)
	}
	if _, err := svc.GetSession(ctx, "missing", model.Guest()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

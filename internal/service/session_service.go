package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"practicecoach/internal/logger"
	"practicecoach/internal/model"
	"practicecoach/internal/repository"
)

// SessionService is the session registry.
type SessionService struct {
	sessions   repository.SessionRepo
	events     Publisher
	dailyLimit int
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

func NewSessionService(sessions repository.SessionRepo, events Publisher, dailyLimit int, loc *time.Location, log *zap.Logger) *SessionService {
	if events == nil {
		events = nopPublisher{}
	}
	return &SessionService{
		sessions:   sessions,
		events:     events,
		dailyLimit: dailyLimit,
		loc:        loc,
		now:        time.Now,
		logger:     logger.Component(log, "sessions"),
	}
}

// CreateSession validates the configuration, applies the daily quota to
// identified callers and stores a new session.
func (s *SessionService) CreateSession(ctx context.Context, req model.CreateSessionRequest, caller model.Identity) (*model.CreateSessionResponse, error) {
	if req.Mode == "" {
		req.Mode = model.ModeText
	}
	if !req.Mode.Valid() {
		return nil, validationError(fmt.Sprintf("mode must be %q or %q", model.ModeAudio, model.ModeText))
	}
	if req.QuestionCount < model.MinQuestionCount || req.QuestionCount > model.MaxQuestionCount {
		return nil, validationError(fmt.Sprintf("questionCount must be between %d and %d", model.MinQuestionCount, model.MaxQuestionCount))
	}
	if req.LowAnxietyEnabled && req.QuestionCount != model.GentleQuestionCount {
		return nil, validationError("Low-Anxiety Mode requires exactly 3 questions")
	}

	now := s.now()
	if !caller.IsGuest() {
		count, err := s.sessions.CountOwnedSince(ctx, caller.UserID, s.startOfDay(now))
		if err != nil {
			return nil, fmt.Errorf("count sessions: %w", err)
		}
		if count >= int64(s.dailyLimit) {
			return nil, newError(KindRateLimited, fmt.Sprintf("daily limit of %d sessions reached", s.dailyLimit), nil)
		}
	}

	session := &model.Session{
		ID:                uuid.NewString(),
		OwnerID:           caller.UserID,
		Mode:              req.Mode,
		QuestionCount:     req.QuestionCount,
		LowAnxietyEnabled: req.LowAnxietyEnabled,
		CompletionRate:    0,
		StartedAt:         now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("session started",
		zap.String("session_id", session.ID),
		zap.Bool("guest", caller.IsGuest()),
		zap.Int("question_count", session.QuestionCount),
	)
	emit(s.events, model.EventSessionStarted, session, caller.UserID, map[string]any{
		"mode":              string(session.Mode),
		"questionCount":     session.QuestionCount,
		"lowAnxietyEnabled": session.LowAnxietyEnabled,
	}, now)

	return &model.CreateSessionResponse{
		SessionID:         session.ID,
		Mode:              session.Mode,
		QuestionCount:     session.QuestionCount,
		LowAnxietyEnabled: session.LowAnxietyEnabled,
	}, nil
}

// GetSession returns a session the caller may access.
func (s *SessionService) GetSession(ctx context.Context, sessionID string, caller model.Identity) (*model.Session, error) {
	return loadAuthorized(ctx, s.sessions, sessionID, caller)
}

func (s *SessionService) startOfDay(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

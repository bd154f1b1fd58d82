package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"practicecoach/internal/logger"
	"practicecoach/internal/model"
	"practicecoach/internal/repository"
)

const (
	MinAnswerLength    = 10
	MaxAnswerLength    = 5000
	MaxDurationSeconds = 210

	// Each used extension grants ExtensionSeconds of extra answer time; a
	// session may use at most MaxExtensionSeconds in total.
	ExtensionSeconds    = 30
	MaxExtensionSeconds = 240
)

// AnswerService is the answer intake.
type AnswerService struct {
	sessions  repository.SessionRepo
	questions repository.QuestionRepo
	answers   repository.AnswerRepo
	events    Publisher
	now       func() time.Time
	logger    *zap.Logger
}

func NewAnswerService(sessions repository.SessionRepo, questions repository.QuestionRepo, answers repository.AnswerRepo, events Publisher, log *zap.Logger) *AnswerService {
	if events == nil {
		events = nopPublisher{}
	}
	return &AnswerService{
		sessions:  sessions,
		questions: questions,
		answers:   answers,
		events:    events,
		now:       time.Now,
		logger:    logger.Component(log, "answers"),
	}
}

// SubmitAnswer stores the one answer a question may have and refreshes the
// session's completion rate. Returns the answer id.
func (s *AnswerService) SubmitAnswer(ctx context.Context, sessionID string, req model.SubmitAnswerRequest, caller model.Identity) (string, error) {
	text := strings.TrimSpace(req.Text)
	if n := utf8.RuneCountInString(text); n < MinAnswerLength || n > MaxAnswerLength {
		return "", validationError(fmt.Sprintf("answer text must be between %d and %d characters", MinAnswerLength, MaxAnswerLength))
	}
	if d := req.DurationSeconds; d != nil && (*d < 0 || *d > MaxDurationSeconds) {
		return "", validationError(fmt.Sprintf("durationSeconds must be between 0 and %d", MaxDurationSeconds))
	}

	session, err := loadAuthorized(ctx, s.sessions, sessionID, caller)
	if err != nil {
		return "", err
	}

	question, err := s.questions.GetByID(ctx, req.QuestionID)
	if err != nil {
		return "", fmt.Errorf("load question: %w", err)
	}
	if question == nil || question.SessionID != sessionID {
		return "", notFound("question not found in session")
	}

	if (req.RetakeUsed || req.ExtensionUsed) && session.Mode != model.ModeAudio {
		return "", validationError("retake and extension are only available in audio mode")
	}
	if req.ExtensionUsed {
		if err := s.checkExtensionBudget(ctx, sessionID); err != nil {
			return "", err
		}
	}

	existing, err := s.answers.GetByQuestionID(ctx, question.ID)
	if err != nil {
		return "", fmt.Errorf("check existing answer: %w", err)
	}
	if existing != nil {
		return "", conflict("question already answered")
	}

	answer := &model.Answer{
		ID:              uuid.NewString(),
		QuestionID:      question.ID,
		SessionID:       sessionID,
		Text:            text,
		DurationSeconds: req.DurationSeconds,
		RetakeUsed:      req.RetakeUsed,
		ExtensionUsed:   req.ExtensionUsed,
		CreatedAt:       s.now(),
	}
	// The unique index on questionId is authoritative for concurrent submissions.
	if err := s.answers.Create(ctx, answer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", conflict("question already answered")
		}
		return "", fmt.Errorf("insert answer: %w", err)
	}

	rate, err := s.refreshCompletion(ctx, session)
	if err != nil {
		return "", err
	}

	emit(s.events, model.EventQuestionAnswered, session, caller.UserID, map[string]any{
		"questionId":     question.ID,
		"order":          question.Order,
		"completionRate": rate,
	}, answer.CreatedAt)

	return answer.ID, nil
}

func (s *AnswerService) checkExtensionBudget(ctx context.Context, sessionID string) error {
	answers, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("list answers: %w", err)
	}
	used := 0
	for _, a := range answers {
		if a.ExtensionUsed {
			used += ExtensionSeconds
		}
	}
	if used+ExtensionSeconds > MaxExtensionSeconds {
		return validationError(fmt.Sprintf("extension budget of %d seconds per session exhausted", MaxExtensionSeconds))
	}
	return nil
}

func (s *AnswerService) refreshCompletion(ctx context.Context, session *model.Session) (float64, error) {
	count, err := s.answers.CountBySession(ctx, session.ID)
	if err != nil {
		return 0, fmt.Errorf("count answers: %w", err)
	}
	rate := CompletionRate(count, session.QuestionCount)
	if err := s.sessions.UpdateCompletionRate(ctx, session.ID, rate); err != nil {
		return 0, fmt.Errorf("update completion rate: %w", err)
	}
	return rate, nil
}

// CompletionRate is answered/total clamped to [0,1].
func CompletionRate(answered int64, total int) float64 {
	if total <= 0 || answered <= 0 {
		return 0
	}
	return math.Min(1, float64(answered)/float64(total))
}

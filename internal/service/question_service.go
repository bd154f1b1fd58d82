package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"practicecoach/internal/logger"
	"practicecoach/internal/model"
	"practicecoach/internal/repository"
)

const provisionReadAttempts = 5

// BankSource lists the question bank.
type BankSource interface {
	List(ctx context.Context) ([]model.BankItem, error)
}

// QuestionService is the question provisioner.
type QuestionService struct {
	sessions   repository.SessionRepo
	questions  repository.QuestionRepo
	bank       BankSource
	shuffle    func(n int, swap func(i, j int))
	retryDelay time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

func NewQuestionService(sessions repository.SessionRepo, questions repository.QuestionRepo, bank BankSource, log *zap.Logger) *QuestionService {
	return &QuestionService{
		sessions:   sessions,
		questions:  questions,
		bank:       bank,
		shuffle:    rand.Shuffle,
		retryDelay: 20 * time.Millisecond,
		now:        time.Now,
		logger:     logger.Component(log, "questions"),
	}
}

// EnsureQuestions returns the session's questions, provisioning them from
// the bank on first call. Repeated and concurrent calls return the same set.
func (s *QuestionService) EnsureQuestions(ctx context.Context, sessionID string, caller model.Identity) ([]*model.Question, error) {
	session, err := loadAuthorized(ctx, s.sessions, sessionID, caller)
	if err != nil {
		return nil, err
	}

	existing, err := s.questions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	pool, err := s.bank.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list question bank: %w", err)
	}

	picked := SelectQuestions(pool, session.QuestionCount, session.LowAnxietyEnabled, s.shuffle)
	if len(picked) == 0 {
		return []*model.Question{}, nil
	}

	now := s.now()
	questions := make([]*model.Question, len(picked))
	for i, item := range picked {
		questions[i] = &model.Question{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Order:     i + 1,
			Text:      item.Text,
			Category:  item.Category,
			Gentle:    item.Gentle,
			BankID:    item.ID,
			CreatedAt: now,
		}
	}

	err = s.questions.InsertMany(ctx, questions)
	if errors.Is(err, repository.ErrDuplicate) {
		// Another request provisioned this session first.
		s.logger.Debug("questions provisioned concurrently, re-reading", zap.String("session_id", sessionID))
		return s.awaitQuestions(ctx, sessionID, len(questions))
	}
	if err != nil {
		return nil, fmt.Errorf("insert questions: %w", err)
	}

	if len(questions) < session.QuestionCount {
		s.logger.Warn("question bank smaller than requested count",
			zap.String("session_id", sessionID),
			zap.Int("requested", session.QuestionCount),
			zap.Int("provisioned", len(questions)),
		)
	}
	return questions, nil
}

// awaitQuestions re-reads a set another request is still inserting until
// want questions are visible or the attempts run out.
func (s *QuestionService) awaitQuestions(ctx context.Context, sessionID string, want int) ([]*model.Question, error) {
	var (
		questions []*model.Question
		err       error
	)
	for attempt := 0; attempt < provisionReadAttempts; attempt++ {
		questions, err = s.questions.ListBySession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("list questions: %w", err)
		}
		if len(questions) >= want {
			return questions, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}

	s.logger.Warn("concurrently provisioned set still incomplete",
		zap.String("session_id", sessionID),
		zap.Int("want", want),
		zap.Int("got", len(questions)),
	)
	return questions, nil
}

// SelectQuestions picks up to count distinct items. Gentle sessions draw
// only from gentle items. The pool is not modified.
func SelectQuestions(pool []model.BankItem, count int, gentle bool, shuffle func(n int, swap func(i, j int))) []model.BankItem {
	if count <= 0 {
		return nil
	}

	candidates := make([]model.BankItem, 0, len(pool))
	for _, item := range pool {
		if gentle && !item.Gentle {
			continue
		}
		candidates = append(candidates, item)
	}

	shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates
}

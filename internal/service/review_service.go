package service

import (
	"context"
	"fmt"

	"practicecoach/internal/model"
	"practicecoach/internal/repository"
	"practicecoach/internal/scoring"
)

// ReviewService shows sessions to reviewers. Raw answer text is only
// revealed when the session clears the access threshold.
type ReviewService struct {
	sessions  repository.SessionRepo
	questions repository.QuestionRepo
	answers   repository.AnswerRepo
}

func NewReviewService(sessions repository.SessionRepo, questions repository.QuestionRepo, answers repository.AnswerRepo) *ReviewService {
	return &ReviewService{
		sessions:  sessions,
		questions: questions,
		answers:   answers,
	}
}

func (s *ReviewService) GetSessionReview(ctx context.Context, sessionID string, caller model.Identity) (*model.SessionReview, error) {
	if !caller.IsReviewer() {
		return nil, newError(KindUnauthorized, "reviewer role required", nil)
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, notFound("session not found")
	}

	questions, err := s.questions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	answers, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	byQuestion := make(map[string]*model.Answer, len(answers))
	var scores []model.STARScores
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
		if a.IsScored() {
			scores = append(scores, *a.Scores)
		}
	}

	means := scoring.ElementMeans(scores)
	visible := len(scores) > 0 && scoring.MeansMeetAccessThreshold(means, session.CompletionRate)

	review := &model.SessionReview{
		SessionID:      session.ID,
		CompletionRate: session.CompletionRate,
		AvgScore:       session.AvgScore,
		ElementMeans:   means,
		Average:        scoring.AverageOfMeans(means),
		AnswersVisible: visible,
		Items:          make([]model.ReviewItem, 0, len(questions)),
	}
	for _, q := range questions {
		item := model.ReviewItem{QuestionID: q.ID, Order: q.Order, Question: q.Text}
		if a, ok := byQuestion[q.ID]; ok {
			item.Answered = true
			item.Scores = a.Scores
			if visible {
				item.Text = a.Text
			}
		}
		review.Items = append(review.Items, item)
	}
	return review, nil
}

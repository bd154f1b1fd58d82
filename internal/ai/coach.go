// Package ai defines the coaching collaborator the orchestrator talks to.
package ai

import (
	"context"

	"practicecoach/internal/model"
)

// Operations reported in Usage.
const (
	OperationCoach     = "coach_answer"
	OperationSummarize = "summarize_session"
)

// CoachingRequest is one question/answer pair to score.
type CoachingRequest struct {
	Question string
	Answer   string
	Category string
}

// RawScores are element scores exactly as the model returned them.
type RawScores struct {
	Situation float64
	Task      float64
	Action    float64
	Result    float64
}

type CoachingFeedback struct {
	Scores         RawScores
	Tags           model.AnswerTags
	NeedsFollowUp  bool
	Narrative      string
	ExampleRewrite string
}

// SummaryItem is one scored answer handed to the session summary.
type SummaryItem struct {
	Question  string
	Answer    string
	Category  string
	Scores    model.STARScores
	Narrative string
}

type SessionSummary struct {
	Strengths      []model.Strength
	Clarifications []model.Clarification
}

// Usage describes what a call consumed. Zero tokens means nothing was billed.
type Usage struct {
	Model        string
	Operation    string
	PromptTokens int64
	OutputTokens int64
}

func (u Usage) Billable() bool {
	return u.Model != "" && (u.PromptTokens > 0 || u.OutputTokens > 0)
}

// Coach scores single answers and summarizes a whole session.
type Coach interface {
	CoachAnswer(ctx context.Context, req CoachingRequest) (*CoachingFeedback, Usage, error)
	Summarize(ctx context.Context, items []SummaryItem) (*SessionSummary, Usage, error)
}

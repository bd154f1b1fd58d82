package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"practicecoach/internal/model"
)

// MockCoach scores answers from simple text heuristics. It is used when no
// AI provider is configured and costs nothing.
type MockCoach struct{}

func NewMockCoach() *MockCoach {
	return &MockCoach{}
}

func (m *MockCoach) CoachAnswer(_ context.Context, req CoachingRequest) (*CoachingFeedback, Usage, error) {
	text := strings.TrimSpace(req.Answer)
	if text == "" {
		return nil, Usage{}, errors.New("answer text is required")
	}

	words := strings.Fields(text)
	lower := strings.ToLower(text)

	// Length carries situation and task; ownership words and numbers carry
	// action and result.
	base := 1 + float64(len(words))/40
	action := base
	if strings.Contains(lower, " i ") || strings.HasPrefix(lower, "i ") {
		action++
	}
	result := base
	if strings.IndexFunc(text, unicode.IsDigit) >= 0 {
		result += 1.5
	}

	fb := &CoachingFeedback{
		Scores: RawScores{
			Situation: base + 0.5,
			Task:      base,
			Action:    action,
			Result:    result,
		},
		NeedsFollowUp:  len(words) < 40,
		Narrative:      fmt.Sprintf("Mock coaching based on response length (%d words).", len(words)),
		ExampleRewrite: "Start with the situation, state your task, describe the actions you took, and close with a measurable result.",
	}
	return fb, Usage{Operation: OperationCoach}, nil
}

func (m *MockCoach) Summarize(_ context.Context, items []SummaryItem) (*SessionSummary, Usage, error) {
	if len(items) == 0 {
		return nil, Usage{}, errors.New("at least one scored item is required")
	}

	summary := &SessionSummary{
		Strengths: []model.Strength{
			{Text: "You answered every question you attempted", Evidence: fmt.Sprintf("%d answers were scored", len(items))},
			{Text: "Your answers stay on topic", Evidence: items[0].Question},
			{Text: "You describe your own actions", Evidence: "Action scores across the session"},
		},
		Clarifications: []model.Clarification{
			{Suggestion: "Quantify your results", Rationale: "Numbers make the impact of your work concrete"},
			{Suggestion: "Set the scene briefly", Rationale: "A short situation leaves more time for actions"},
			{Suggestion: "Say what you learned", Rationale: "Reflection shows growth"},
		},
	}
	return summary, Usage{Operation: OperationSummarize}, nil
}

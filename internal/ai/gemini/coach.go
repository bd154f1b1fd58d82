package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"practicecoach/internal/ai"
	"practicecoach/internal/logger"
	"practicecoach/internal/model"
)

const (
	provider            = "gemini"
	defaultMaxLogLength = 200
	summaryItems        = 3
)

//go:embed coach_prompt.md
var coachTemplate string

//go:embed summary_prompt.md
var summaryTemplate string

type contentGenerator interface {
	GenerateJSON(ctx context.Context, model, prompt string) (*Generation, error)
}

// Models selects the model per call kind.
type Models struct {
	Coach   string
	Summary string
}

// Coach implements ai.Coach on top of Gemini.
type Coach struct {
	generator contentGenerator
	models    Models
	timeout   time.Duration
	logger    *zap.Logger
	maxLogLen int
}

func NewCoach(generator contentGenerator, models Models, timeout time.Duration, log *zap.Logger, maxLogLength int) *Coach {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Coach{
		generator: generator,
		models:    models,
		timeout:   timeout,
		logger:    logger.Component(log, "gemini_coach"),
		maxLogLen: maxLogLength,
	}
}

func (c *Coach) CoachAnswer(ctx context.Context, req ai.CoachingRequest) (*ai.CoachingFeedback, ai.Usage, error) {
	prompt := strings.NewReplacer(
		"{{CATEGORY}}", orNone(req.Category),
		"{{QUESTION}}", req.Question,
		"{{ANSWER}}", req.Answer,
	).Replace(coachTemplate)

	gen, usage, err := c.generate(ctx, c.models.Coach, ai.OperationCoach, prompt)
	if err != nil {
		return nil, usage, err
	}

	fb, err := parseCoaching(gen.Text)
	return fb, usage, err
}

func (c *Coach) Summarize(ctx context.Context, items []ai.SummaryItem) (*ai.SessionSummary, ai.Usage, error) {
	if len(items) == 0 {
		return nil, ai.Usage{}, errors.New("at least one scored item is required")
	}

	payload, err := json.MarshalIndent(summaryPayload(items), "", "  ")
	if err != nil {
		return nil, ai.Usage{}, fmt.Errorf("marshal summary payload: %w", err)
	}
	prompt := strings.ReplaceAll(summaryTemplate, "{{ITEMS}}", string(payload))

	gen, usage, err := c.generate(ctx, c.models.Summary, ai.OperationSummarize, prompt)
	if err != nil {
		return nil, usage, err
	}

	summary, err := parseSummary(gen.Text)
	return summary, usage, err
}

func (c *Coach) generate(ctx context.Context, modelName, operation, prompt string) (*Generation, ai.Usage, error) {
	usage := ai.Usage{Model: modelName, Operation: operation}
	log := logger.WithCommonFields(c.logger, provider, modelName)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log.Debug("gemini generate content request",
		zap.String("operation", operation),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, c.maxLogLen)),
	)

	gen, err := c.generator.GenerateJSON(ctx, modelName, prompt)
	if err != nil {
		return nil, usage, err
	}

	usage.PromptTokens = gen.PromptTokens
	usage.OutputTokens = gen.OutputTokens

	log.Debug("gemini generate content response",
		zap.String("operation", operation),
		zap.Int64("prompt_tokens", gen.PromptTokens),
		zap.Int64("output_tokens", gen.OutputTokens),
		zap.Int("response_length", utf8.RuneCountInString(gen.Text)),
		zap.String("response_preview", logger.TruncateForLog(gen.Text, c.maxLogLen)),
	)

	return gen, usage, nil
}

type summaryEntry struct {
	Question  string           `json:"question"`
	Category  string           `json:"category,omitempty"`
	Answer    string           `json:"answer"`
	Scores    model.STARScores `json:"scores"`
	Narrative string           `json:"coachNotes,omitempty"`
}

func summaryPayload(items []ai.SummaryItem) []summaryEntry {
	entries := make([]summaryEntry, len(items))
	for i, item := range items {
		entries[i] = summaryEntry{
			Question:  item.Question,
			Category:  item.Category,
			Answer:    item.Answer,
			Scores:    item.Scores,
			Narrative: item.Narrative,
		}
	}
	return entries
}

func parseCoaching(raw string) (*ai.CoachingFeedback, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("parse gemini coaching response: %w", err)
	}

	scores := ai.RawScores{
		Situation: coerceFloat(data["situation"]),
		Task:      coerceFloat(data["task"]),
		Action:    coerceFloat(data["action"]),
		Result:    coerceFloat(data["result"]),
	}
	for _, v := range []float64{scores.Situation, scores.Task, scores.Action, scores.Result} {
		if math.IsNaN(v) {
			return nil, errors.New("gemini coaching response is missing element scores")
		}
	}

	return &ai.CoachingFeedback{
		Scores: scores,
		Tags: model.AnswerTags{
			SituationClarity:     coerceString(data["situationClarity"]),
			ActionOwnership:      coerceString(data["actionOwnership"]),
			ResultQuantification: coerceString(data["resultQuantification"]),
		},
		NeedsFollowUp:  coerceBool(data["needsFollowUp"]),
		Narrative:      coerceString(data["narrative"]),
		ExampleRewrite: coerceString(data["exampleRewrite"]),
	}, nil
}

func parseSummary(raw string) (*ai.SessionSummary, error) {
	var data struct {
		Strengths      []model.Strength      `json:"strengths"`
		Clarifications []model.Clarification `json:"clarifications"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("parse gemini summary response: %w", err)
	}
	if len(data.Strengths) < summaryItems || len(data.Clarifications) < summaryItems {
		return nil, fmt.Errorf("gemini summary returned %d strengths and %d clarifications, want %d each",
			len(data.Strengths), len(data.Clarifications), summaryItems)
	}

	return &ai.SessionSummary{
		Strengths:      data.Strengths[:summaryItems],
		Clarifications: data.Clarifications[:summaryItems],
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

// coerceFloat returns NaN when v carries no number.
func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}

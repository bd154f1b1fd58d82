package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"

	"practicecoach/internal/model"
)

type answerFixture struct {
	sessions  *memSessions
	questions *memQuestions
	answers   *memAnswers
	events    *recordingPublisher
	svc       *AnswerService
}

func newAnswerFixture() *answerFixture {
	f := &answerFixture{
		sessions:  newMemSessions(),
		questions: newMemQuestions(),
		answers:   newMemAnswers(),
		events:    &recordingPublisher{},
	}
	f.svc = NewAnswerService(f.sessions, f.questions, f.answers, f.events, zap.NewNop())
	f.svc.now = clock
	return f
}

const validAnswer = "I led the migration and cut latency by 40%."

func intPtr(v int) *int { return &v }

func TestSubmitAnswerValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  model.SubmitAnswerRequest
	}{
		{name: "nine characters", req: model.SubmitAnswerRequest{QuestionID: "s1-q1", Text: "123456789"}},
		{name: "padded short text", req: model.SubmitAnswerRequest{QuestionID: "s1-q1", Text: "   short   "}},
		{name: "too long", req: model.SubmitAnswerRequest{QuestionID: "s1-q1", Text: strings.Repeat("a", MaxAnswerLength+1)}},
		{name: "duration over limit", req: model.SubmitAnswerRequest{QuestionID: "s1-q1", Text: validAnswer, DurationSeconds: intPtr(211)}},
		{name: "negative duration", req: model.SubmitAnswerRequest{QuestionID: "s1-q1", Text: validAnswer, DurationSeconds: intPtr(-1)}},
		{name: "retake in text mode", req: model.SubmitAnswerRequest{QuestionID: "s1-q1", Text: validAnswer, RetakeUsed: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newAnswerFixture()
			seedSession(f.sessions, f.questions, &model.Session{ID: "s1", Mode: model.ModeText, QuestionCount: 3}, 3)

			_, err := f.svc.SubmitAnswer(context.Background(), "s1", tt.req, model.Guest())
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSubmitAnswerBoundaryLengths(t *testing.T) {
	f := newAnswerFixture()
	ids := seedSession(f.sessions, f.questions, &model.Session{ID: "s1", Mode: model.ModeText, QuestionCount: 3}, 3)
	ctx := context.Background()

	if _, err := f.svc.SubmitAnswer(ctx, "s1", model.SubmitAnswerRequest{QuestionID: ids[0], Text: "1234567890"}, model.Guest()); err != nil {
		t.Fatalf("ten characters should be accepted: %v", err)
	}
	long := strings.Repeat("é", MaxAnswerLength)
	if _, err := f.svc.SubmitAnswer(ctx, "s1", model.SubmitAnswerRequest{QuestionID: ids[1], Text: long, DurationSeconds: intPtr(210)}, model.Guest()); err != nil {
		t.Fatalf("5000 runes should be accepted: %v", err)
	}
}

func TestSubmitAnswerUpdatesCompletion(t *testing.T) {
	f := newAnswerFixture()
	ids := seedSession(f.sessions, f.questions, &model.Session{ID: "s1", OwnerID: "u1", Mode: model.ModeText, QuestionCount: 3}, 3)
	ctx := context.Background()

	id, err := f.svc.SubmitAnswer(ctx, "s1", model.SubmitAnswerRequest{QuestionID: ids[0], Text: "  " + validAnswer + "  "}, candidate("u1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := f.answers.GetByQuestionID(ctx, ids[0])
	if stored == nil || stored.ID != id || stored.Text != validAnswer {
		t.Fatalf("expected trimmed answer to be stored, got %+v", stored)
	}
	if stored.IsScored() {
		t.Fatalf("new answers are unscored")
	}

	session, _ := f.sessions.GetByID(ctx, "s1")
	if math.Abs(session.CompletionRate-1.0/3) > 1e-9 {
		t.Fatalf("expected completion 1/3, got %v", session.CompletionRate)
	}
	if got := f.events.types(); len(got) != 1 || got[0] != model.EventQuestionAnswered {
		t.Fatalf("expected question_answered event, got %v", got)
	}
}

func TestSubmitAnswerConflicts(t *testing.T) {
	f := newAnswerFixture()
	ids := seedSession(f.sessions, f.questions, &model.Session{ID: "s1", Mode: model.ModeText, QuestionCount: 3}, 3)
	ctx := context.Background()
	req := model.SubmitAnswerRequest{QuestionID: ids[0], Text: validAnswer}

	if _, err := f.svc.SubmitAnswer(ctx, "s1", req, model.Guest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := f.svc.SubmitAnswer(ctx, "s1", req, model.Guest())
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on second answer, got %v", err)
	}
	if n, _ := f.answers.CountBySession(ctx, "s1"); n != 1 {
		t.Fatalf("expected exactly one stored answer, got %d", n)
	}
}

// blindAnswers hides existing answers from the pre-check so the insert
// itself reports the duplicate, as with two concurrent submissions.
type blindAnswers struct {
	*memAnswers
}

func (blindAnswers) GetByQuestionID(context.Context, string) (*model.Answer, error) {
	return nil, nil
}

func TestSubmitAnswerConcurrentDuplicate(t *testing.T) {
	f := newAnswerFixture()
	ids := seedSession(f.sessions, f.questions, &model.Session{ID: "s1", Mode: model.ModeText, QuestionCount: 3}, 3)
	svc := NewAnswerService(f.sessions, f.questions, blindAnswers{f.answers}, nil, zap.NewNop())
	ctx := context.Background()
	req := model.SubmitAnswerRequest{QuestionID: ids[0], Text: validAnswer}

	if _, err := svc.SubmitAnswer(ctx, "s1", req, model.Guest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SubmitAnswer(ctx, "s1", req, model.Guest()); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict from insert, got %v", err)
	}
}

func TestSubmitAnswerQuestionMustBelongToSession(t *testing.T) {
	f := newAnswerFixture()
	seedSession(f.sessions, f.questions, &model.Session{ID: "s1", QuestionCount: 3}, 3)
	other := seedSession(f.sessions, f.questions, &model.Session{ID: "s2", QuestionCount: 3}, 3)

	_, err := f.svc.SubmitAnswer(context.Background(), "s1", model.SubmitAnswerRequest{QuestionID: other[0], Text: validAnswer}, model.Guest())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubmitAnswerAuthorizesBeforeQuestionLookup(t *testing.T) {
	f := newAnswerFixture()
	seedSession(f.sessions, f.questions, &model.Session{ID: "s1", OwnerID: "u1", QuestionCount: 3}, 3)

	_, err := f.svc.SubmitAnswer(context.Background(), "s1", model.SubmitAnswerRequest{QuestionID: "unknown", Text: validAnswer}, candidate("u2"))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestSubmitAnswerExtensionBudget(t *testing.T) {
	f := newAnswerFixture()
	ids := seedSession(f.sessions, f.questions, &model.Session{ID: "s1", Mode: model.ModeAudio, QuestionCount: 10}, 10)
	ctx := context.Background()

	allowed := MaxExtensionSeconds / ExtensionSeconds
	for i := range allowed {
		req := model.SubmitAnswerRequest{QuestionID: ids[i], Text: validAnswer, ExtensionUsed: true, RetakeUsed: i == 0}
		if _, err := f.svc.SubmitAnswer(ctx, "s1", req, model.Guest()); err != nil {
			t.Fatalf("extension %d: unexpected error: %v", i+1, err)
		}
	}

	req := model.SubmitAnswerRequest{QuestionID: ids[allowed], Text: validAnswer, ExtensionUsed: true}
	if _, err := f.svc.SubmitAnswer(ctx, "s1", req, model.Guest()); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected exhausted extension budget, got %v", err)
	}

	req.ExtensionUsed = false
	if _, err := f.svc.SubmitAnswer(ctx, "s1", req, model.Guest()); err != nil {
		t.Fatalf("answer without extension should be accepted: %v", err)
	}
}

func TestCompletionRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		answered int64
		total    int
		want     float64
	}{
		{answered: 0, total: 3, want: 0},
		{answered: 2, total: 4, want: 0.5},
		{answered: 3, total: 3, want: 1},
		{answered: 5, total: 3, want: 1},
		{answered: 1, total: 0, want: 0},
	}

	for _, tt := range tests {
		if got := CompletionRate(tt.answered, tt.total); got != tt.want {
			t.Fatalf("CompletionRate(%d, %d) = %v, want %v", tt.answered, tt.total, got, tt.want)
		}
	}
}

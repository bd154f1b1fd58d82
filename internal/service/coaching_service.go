package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"practicecoach/internal/ai"
	"practicecoach/internal/cache"
	"practicecoach/internal/logger"
	"practicecoach/internal/model"
	"practicecoach/internal/repository"
	"practicecoach/internal/scoring"
)

const lockReleaseTimeout = 5 * time.Second

// CoachingOptions bound a report generation run.
type CoachingOptions struct {
	// Concurrency caps in-flight per-answer coaching calls.
	Concurrency int
	// Timeout bounds the whole run, independent of the caller's request.
	Timeout time.Duration
}

// CoachingService is the coaching orchestrator: it scores every answered
// question, summarizes the session and stores the report.
type CoachingService struct {
	sessions  repository.SessionRepo
	questions repository.QuestionRepo
	answers   repository.AnswerRepo
	reports   repository.ReportRepo
	drafts    cache.DraftCache
	locker    cache.SessionLocker
	coach     ai.Coach
	events    Publisher
	opts      CoachingOptions
	now       func() time.Time
	logger    *zap.Logger
}

func NewCoachingService(
	sessions repository.SessionRepo,
	questions repository.QuestionRepo,
	answers repository.AnswerRepo,
	reports repository.ReportRepo,
	drafts cache.DraftCache,
	locker cache.SessionLocker,
	coach ai.Coach,
	events Publisher,
	opts CoachingOptions,
	log *zap.Logger,
) *CoachingService {
	if events == nil {
		events = nopPublisher{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &CoachingService{
		sessions:  sessions,
		questions: questions,
		answers:   answers,
		reports:   reports,
		drafts:    drafts,
		locker:    locker,
		coach:     coach,
		events:    events,
		opts:      opts,
		now:       time.Now,
		logger:    logger.Component(log, "coaching"),
	}
}

// scoredItem is one answered question that the coach scored successfully.
type scoredItem struct {
	question *model.Question
	answer   *model.Answer
	feedback *ai.CoachingFeedback
	scores   model.STARScores
	tags     model.AnswerTags
}

// GenerateCoaching produces the session report, or returns the existing one.
// A stored report is never regenerated.
func (s *CoachingService) GenerateCoaching(ctx context.Context, sessionID string, caller model.Identity) (*model.CoachingResult, error) {
	session, err := loadAuthorized(ctx, s.sessions, sessionID, caller)
	if err != nil {
		return nil, err
	}

	if existing, err := s.reports.GetBySession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	} else if existing != nil {
		return coachingResult(existing), nil
	}

	// Once started, a run is not cancelled by the caller going away.
	ctx = context.WithoutCancel(ctx)
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	release, err := s.locker.Acquire(ctx, sessionID)
	if errors.Is(err, cache.ErrLockHeld) {
		return nil, conflict("coaching generation already in progress")
	}
	if err != nil {
		return nil, fmt.Errorf("acquire coaching lock: %w", err)
	}
	defer func() {
		// The run's context may be past its deadline by now.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			s.logger.Warn("failed to release coaching lock", zap.String("session_id", sessionID), zap.Error(err))
		}
	}()

	// A run that held the lock before us may have finished in between.
	if existing, err := s.reports.GetBySession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	} else if existing != nil {
		return coachingResult(existing), nil
	}

	return s.generate(ctx, session, caller)
}

// GetReport returns the stored report of a session.
func (s *CoachingService) GetReport(ctx context.Context, sessionID string, caller model.Identity) (*model.Report, error) {
	if _, err := loadAuthorized(ctx, s.sessions, sessionID, caller); err != nil {
		return nil, err
	}
	report, err := s.reports.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	if report == nil {
		return nil, notFound("report not found")
	}
	return report, nil
}

func (s *CoachingService) generate(ctx context.Context, session *model.Session, caller model.Identity) (*model.CoachingResult, error) {
	log := s.logger.With(logger.Session(session.ID)...)

	jobs, err := s.answeredQuestions(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, validationError("session has no answered questions")
	}

	log.Info("coaching started", zap.Int("answered", len(jobs)))
	scored := s.scoreAll(ctx, log, jobs)
	if len(scored) == 0 {
		return nil, newError(KindUpstream, "coaching failed for every answer", nil)
	}

	scores := make([]model.STARScores, len(scored))
	items := make([]ai.SummaryItem, len(scored))
	for i, item := range scored {
		scores[i] = item.scores
		items[i] = ai.SummaryItem{
			Question:  item.question.Text,
			Answer:    item.answer.Text,
			Category:  item.question.Category,
			Scores:    item.scores,
			Narrative: item.feedback.Narrative,
		}
	}
	avg := scoring.SessionAverage(scores)

	summary, _, err := s.coach.Summarize(ctx, items)
	if err != nil {
		log.Warn("session summary failed", zap.Error(err))
		return nil, newError(KindUpstream, "coaching summary failed", err)
	}

	// Answer scores are written only once the summary exists.
	now := s.now()
	for _, item := range scored {
		if err := s.answers.SaveCoaching(ctx, item.answer.ID, item.scores, item.tags, item.feedback.NeedsFollowUp, now); err != nil {
			return nil, fmt.Errorf("store answer scores: %w", err)
		}
	}

	report := &model.Report{
		ID:             uuid.NewString(),
		SessionID:      session.ID,
		AvgScore:       avg,
		Label:          scoring.QualitativeLabel(avg),
		Strengths:      summary.Strengths,
		Clarifications: summary.Clarifications,
		Feedback:       feedbackFor(scored),
		CreatedAt:      now,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("store report: %w", err)
		}
		// Another run finished first after our lock expired; keep its report.
		log.Info("report already stored by another run")
		existing, getErr := s.reports.GetBySession(ctx, session.ID)
		if getErr != nil || existing == nil {
			return nil, fmt.Errorf("store report: %w", err)
		}
		return coachingResult(existing), nil
	}

	if err := s.sessions.MarkCompleted(ctx, session.ID, avg, now); err != nil {
		return nil, fmt.Errorf("mark session completed: %w", err)
	}

	if err := s.drafts.Clear(ctx, session.ID); err != nil {
		log.Warn("failed to clear draft", zap.Error(err))
	}

	log.Info("coaching completed",
		zap.Float64("avg_score", avg),
		zap.Int("scored", len(scored)),
		zap.Int("failed", len(jobs)-len(scored)),
	)
	emit(s.events, model.EventCoachingViewed, session, caller.UserID, map[string]any{
		"avgScore":    avg,
		"scoredCount": len(scored),
	}, now)

	return coachingResult(report), nil
}

type coachingJob struct {
	question *model.Question
	answer   *model.Answer
}

// answeredQuestions pairs questions with their answers in question order,
// skipping unanswered ones.
func (s *CoachingService) answeredQuestions(ctx context.Context, sessionID string) ([]coachingJob, error) {
	questions, err := s.questions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	answers, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	byQuestion := make(map[string]*model.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	jobs := make([]coachingJob, 0, len(questions))
	for _, q := range questions {
		if a, ok := byQuestion[q.ID]; ok {
			jobs = append(jobs, coachingJob{question: q, answer: a})
		}
	}
	return jobs, nil
}

// scoreAll coaches every job with bounded concurrency and normalizes the
// results. A failed call is logged and skipped; it never cancels the others.
func (s *CoachingService) scoreAll(ctx context.Context, log *zap.Logger, jobs []coachingJob) []scoredItem {
	feedback := make([]*ai.CoachingFeedback, len(jobs))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			fb, _, err := s.coach.CoachAnswer(ctx, ai.CoachingRequest{
				Question: job.question.Text,
				Answer:   job.answer.Text,
				Category: job.question.Category,
			})
			if err != nil {
				log.Warn("coaching call failed",
					zap.String("question_id", job.question.ID),
					zap.Int("order", job.question.Order),
					zap.Error(err),
				)
				return nil
			}
			feedback[i] = fb
			return nil
		})
	}
	_ = g.Wait()

	scored := make([]scoredItem, 0, len(jobs))
	for i, job := range jobs {
		fb := feedback[i]
		if fb == nil {
			continue
		}
		scores := scoring.Clamp(fb.Scores.Situation, fb.Scores.Task, fb.Scores.Action, fb.Scores.Result)
		scored = append(scored, scoredItem{
			question: job.question,
			answer:   job.answer,
			feedback: fb,
			scores:   scores,
			tags:     scoring.Tags(fb.Tags, scores),
		})
	}
	return scored
}

func feedbackFor(scored []scoredItem) []model.QuestionFeedback {
	out := make([]model.QuestionFeedback, len(scored))
	for i, item := range scored {
		avg := scoring.AverageOfFour(item.scores)
		out[i] = model.QuestionFeedback{
			QuestionID:     item.question.ID,
			Order:          item.question.Order,
			QuestionText:   item.question.Text,
			Scores:         item.scores,
			Average:        avg,
			Label:          scoring.QualitativeLabel(avg),
			Missing:        scoring.MissingElements(item.scores),
			Tags:           item.tags,
			NeedsFollowUp:  item.feedback.NeedsFollowUp,
			Narrative:      item.feedback.Narrative,
			ExampleRewrite: item.feedback.ExampleRewrite,
		}
	}
	return out
}

func coachingResult(report *model.Report) *model.CoachingResult {
	return &model.CoachingResult{
		ReportID:  report.ID,
		SessionID: report.SessionID,
		Completed: true,
	}
}

package service

import (
	"context"

	"go.uber.org/zap"

	"practicecoach/internal/ai"
	"practicecoach/internal/logger"
)

// UsageRecorder is notified of every billable AI call.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, usage ai.Usage) error
}

// MeteredCoach wraps a coach and records the usage of each call, including
// calls whose response could not be used.
type MeteredCoach struct {
	next     ai.Coach
	recorder UsageRecorder
	logger   *zap.Logger
}

func NewMeteredCoach(next ai.Coach, recorder UsageRecorder, log *zap.Logger) *MeteredCoach {
	return &MeteredCoach{
		next:     next,
		recorder: recorder,
		logger:   logger.Component(log, "metering"),
	}
}

func (m *MeteredCoach) CoachAnswer(ctx context.Context, req ai.CoachingRequest) (*ai.CoachingFeedback, ai.Usage, error) {
	fb, usage, err := m.next.CoachAnswer(ctx, req)
	m.record(ctx, usage)
	return fb, usage, err
}

func (m *MeteredCoach) Summarize(ctx context.Context, items []ai.SummaryItem) (*ai.SessionSummary, ai.Usage, error) {
	summary, usage, err := m.next.Summarize(ctx, items)
	m.record(ctx, usage)
	return summary, usage, err
}

func (m *MeteredCoach) record(ctx context.Context, usage ai.Usage) {
	if !usage.Billable() {
		return
	}
	if err := m.recorder.RecordUsage(ctx, usage); err != nil {
		m.logger.Warn("failed to record ai usage",
			zap.String("model", usage.Model),
			zap.String("operation", usage.Operation),
			zap.Error(err),
		)
	}
}

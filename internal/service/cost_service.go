package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"practicecoach/internal/ai"
	"practicecoach/internal/config"
	"practicecoach/internal/logger"
	"practicecoach/internal/model"
	"practicecoach/internal/repository"
)

// Pricer estimates the cost of a call from its token usage.
type Pricer interface {
	EstimateCost(model string, promptTokens, outputTokens int64) float64
}

// CostService is the cost governor: it records paid calls and keeps the
// premium capability flag in line with spend for the calendar month.
type CostService struct {
	costs     repository.CostRepo
	flags     repository.CapabilityRepo
	pricer    Pricer
	threshold float64
	flagKey   string
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

func NewCostService(costs repository.CostRepo, flags repository.CapabilityRepo, pricer Pricer, cfg config.CostConfig, loc *time.Location, log *zap.Logger) *CostService {
	return &CostService{
		costs:     costs,
		flags:     flags,
		pricer:    pricer,
		threshold: cfg.MonthlyThreshold,
		flagKey:   cfg.FlagKey,
		loc:       loc,
		now:       time.Now,
		logger:    logger.Component(log, "cost_governor"),
	}
}

// EnforceCapabilityGate enables the flag iff this month's spend is strictly
// below the threshold, and audits the decision either way.
func (s *CostService) EnforceCapabilityGate(ctx context.Context) (*model.CapabilityAudit, error) {
	from, to := s.monthBounds()
	total, err := s.costs.SumPeriodStartingIn(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum monthly cost: %w", err)
	}

	enabled := total < s.threshold
	audit, err := s.setFlag(ctx, enabled, total, model.AuditReasonEnforce)
	if err != nil {
		return nil, err
	}

	s.logger.Info("capability gate enforced",
		zap.String("flag", s.flagKey),
		zap.Bool("enabled", enabled),
		zap.Float64("total", total),
		zap.Float64("threshold", s.threshold),
	)
	return audit, nil
}

// ResetCapability enables the flag regardless of spend. Runs at the start
// of each billing period.
func (s *CostService) ResetCapability(ctx context.Context) (*model.CapabilityAudit, error) {
	from, to := s.monthBounds()
	total, err := s.costs.SumPeriodStartingIn(ctx, from, to)
	if err != nil {
		// The audit total is informational only.
		s.logger.Warn("failed to sum monthly cost for reset audit", zap.Error(err))
		total = 0
	}

	audit, err := s.setFlag(ctx, true, total, model.AuditReasonReset)
	if err != nil {
		return nil, err
	}
	s.logger.Info("capability reset", zap.String("flag", s.flagKey))
	return audit, nil
}

// RecordUsage appends a cost record for a paid call and re-evaluates the gate.
func (s *CostService) RecordUsage(ctx context.Context, usage ai.Usage) error {
	if !usage.Billable() {
		return nil
	}

	from, to := s.monthBounds()
	record := &model.CostRecord{
		ID:            uuid.NewString(),
		Model:         usage.Model,
		Operation:     usage.Operation,
		PromptTokens:  usage.PromptTokens,
		OutputTokens:  usage.OutputTokens,
		EstimatedCost: s.pricer.EstimateCost(usage.Model, usage.PromptTokens, usage.OutputTokens),
		PeriodStart:   from,
		PeriodEnd:     to,
		CreatedAt:     s.now(),
	}
	if err := s.costs.Insert(ctx, record); err != nil {
		return fmt.Errorf("insert cost record: %w", err)
	}

	_, err := s.EnforceCapabilityGate(ctx)
	return err
}

// Capabilities reads the flag. A flag that was never written is enabled.
func (s *CostService) Capabilities(ctx context.Context) (*model.Capabilities, error) {
	flag, err := s.flags.GetFlag(ctx, s.flagKey)
	if err != nil {
		return nil, fmt.Errorf("read capability flag: %w", err)
	}
	if flag == nil {
		return &model.Capabilities{PremiumModeEnabled: true}, nil
	}
	return &model.Capabilities{PremiumModeEnabled: flag.Enabled}, nil
}

func (s *CostService) setFlag(ctx context.Context, enabled bool, total float64, reason string) (*model.CapabilityAudit, error) {
	now := s.now()
	if err := s.flags.SetFlag(ctx, &model.CapabilityFlag{Key: s.flagKey, Enabled: enabled, UpdatedAt: now}); err != nil {
		return nil, fmt.Errorf("write capability flag: %w", err)
	}

	audit := &model.CapabilityAudit{
		ID:        uuid.NewString(),
		Key:       s.flagKey,
		Enabled:   enabled,
		Total:     total,
		Threshold: s.threshold,
		Reason:    reason,
		CreatedAt: now,
	}
	if err := s.flags.InsertAudit(ctx, audit); err != nil {
		return nil, fmt.Errorf("write capability audit: %w", err)
	}
	return audit, nil
}

// monthBounds returns [start of this month, start of next month) in the
// configured location.
func (s *CostService) monthBounds() (time.Time, time.Time) {
	now := s.now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 1, 0)
}

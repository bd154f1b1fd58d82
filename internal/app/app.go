// Package app wires repositories, caches and services into one graph.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"practicecoach/internal/ai"
	"practicecoach/internal/ai/gemini"
	"practicecoach/internal/cache"
	"practicecoach/internal/config"
	"practicecoach/internal/events"
	"practicecoach/internal/model"
	"practicecoach/internal/questionbank"
	"practicecoach/internal/repository"
	"practicecoach/internal/service"
	"practicecoach/internal/transport/rest"
	"practicecoach/internal/transport/ws"
)

const pingTimeout = 5 * time.Second

// Repos are the Mongo backed stores
type Repos struct {
	Sessions     repository.SessionRepo
	Questions    repository.QuestionRepo
	Bank         repository.BankRepo
	Answers      repository.AnswerRepo
	Reports      repository.ReportRepo
	Costs        repository.CostRepo
	Capabilities repository.CapabilityRepo
	Events       repository.EventRepo
}

// NewRepos builds every repository on db
func NewRepos(db *mongo.Database) *Repos {
	return &Repos{
		Sessions:     repository.NewSessionRepo(db),
		Questions:    repository.NewQuestionRepo(db),
		Bank:         repository.NewBankRepo(db),
		Answers:      repository.NewAnswerRepo(db),
		Reports:      repository.NewReportRepo(db),
		Costs:        repository.NewCostRepo(db),
		Capabilities: repository.NewCapabilityRepo(db),
		Events:       repository.NewEventRepo(db),
	}
}

// App is the full serving graph
type App struct {
	Repos *Repos

	Auth      *service.AuthService
	Sessions  *service.SessionService
	Questions *service.QuestionService
	Answers   *service.AnswerService
	Drafts    *service.DraftService
	Coaching  *service.CoachingService
	Cost      *service.CostService
	Reviews   *service.ReviewService

	Hub        *ws.Hub
	Dispatcher *events.Dispatcher

	cfg    *config.Config
	logger *zap.Logger
}

// New builds the serving graph. coach is wrapped with usage metering.
func New(cfg *config.Config, db *mongo.Database, rdb *redis.Client, coach ai.Coach, logger *zap.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	repos := NewRepos(db)
	drafts := cache.NewDraftCache(rdb, cfg.Drafts.TTL)
	locker := cache.NewSessionLocker(rdb, cfg.Sessions.LockTTL)

	hub := ws.NewHub(logger)
	dispatcher := events.NewDispatcher(cfg.Events.BufferSize, logger, events.NewStoreSink(repos.Events), hub)

	cost := NewCostService(cfg, repos, loc, logger)
	metered := service.NewMeteredCoach(coach, cost, logger)

	return &App{
		Repos:     repos,
		Auth:      service.NewAuthService(cfg.Auth.JWTSecret),
		Sessions:  service.NewSessionService(repos.Sessions, dispatcher, cfg.Sessions.DailyLimit, loc, logger),
		Questions: service.NewQuestionService(repos.Sessions, repos.Questions, repos.Bank, logger),
		Answers:   service.NewAnswerService(repos.Sessions, repos.Questions, repos.Answers, dispatcher, logger),
		Drafts:    service.NewDraftService(repos.Sessions, drafts, cfg.Drafts.MaxTextLength),
		Coaching: service.NewCoachingService(repos.Sessions, repos.Questions, repos.Answers, repos.Reports, drafts, locker, metered, dispatcher,
			service.CoachingOptions{Concurrency: cfg.AI.MaxConcurrency, Timeout: cfg.Sessions.CoachingTimeout}, logger),
		Cost:       cost,
		Reviews:    service.NewReviewService(repos.Sessions, repos.Questions, repos.Answers),
		Hub:        hub,
		Dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// NewCostService builds the cost governor alone, for jobs that only touch the gate.
func NewCostService(cfg *config.Config, repos *Repos, loc *time.Location, logger *zap.Logger) *service.CostService {
	return service.NewCostService(repos.Costs, repos.Capabilities, &cfg.AI, cfg.Cost, loc, logger)
}

// Container exposes the graph to the HTTP router
func (a *App) Container() *rest.Container {
	return &rest.Container{
		Auth:           a.Auth,
		Sessions:       a.Sessions,
		Questions:      a.Questions,
		Answers:        a.Answers,
		Drafts:         a.Drafts,
		Coaching:       a.Coaching,
		Capabilities:   a.Cost,
		Reviews:        a.Reviews,
		WSHub:          a.Hub,
		AllowedOrigins: a.cfg.HTTP.AllowedOrigins,
		Logger:         a.logger,
	}
}

// Close drains pending events and stops the hub.
func (a *App) Close(ctx context.Context) error {
	err := a.Dispatcher.Close(ctx)
	a.Hub.Close()
	return err
}

// NewCoach returns the Gemini coach when an API key is configured and the
// heuristic mock otherwise.
func NewCoach(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (ai.Coach, error) {
	if !cfg.IsEnabled() {
		logger.Warn("GEMINI_API_KEY not set, using mock coach")
		return ai.NewMockCoach(), nil
	}

	generator, err := gemini.NewGenerator(ctx, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	models := gemini.Models{Coach: cfg.Models.Coach, Summary: cfg.Models.Summary}
	return gemini.NewCoach(generator, models, cfg.Timeout, logger, cfg.MaxLogLength), nil
}

// ConnectMongo connects and pings MongoDB.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}

// ConnectRedis connects and pings Redis.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// SeedBank upserts items into the bank. With onlyIfEmpty it leaves an
// existing bank alone.
func SeedBank(ctx context.Context, bank repository.BankRepo, items []model.BankItem, onlyIfEmpty bool) (int64, error) {
	if onlyIfEmpty {
		n, err := bank.Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("count question bank: %w", err)
		}
		if n > 0 {
			return 0, nil
		}
	}
	return bank.Upsert(ctx, items)
}

// DefaultBank is the embedded question bank.
func DefaultBank() ([]model.BankItem, error) {
	return questionbank.Default()
}

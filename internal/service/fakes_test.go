package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"practicecoach/internal/ai"
	"practicecoach/internal/cache"
	"practicecoach/internal/model"
	"practicecoach/internal/repository"
)

type memSessions struct {
	mu    sync.Mutex
	items map[string]*model.Session
}

func newMemSessions() *memSessions {
	return &memSessions{items: make(map[string]*model.Session)}
}

func (m *memSessions) Create(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) CountOwnedSince(_ context.Context, ownerID string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.items {
		if s.OwnerID == ownerID && !s.StartedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memSessions) UpdateCompletionRate(_ context.Context, id string, rate float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.items[id]; ok {
		s.CompletionRate = rate
	}
	return nil
}

func (m *memSessions) MarkCompleted(_ context.Context, id string, avg float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.items[id]; ok {
		s.AvgScore = &avg
		s.CompletedAt = &at
	}
	return nil
}

type memQuestions struct {
	mu    sync.Mutex
	items map[string]*model.Question
}

func newMemQuestions() *memQuestions {
	return &memQuestions{items: make(map[string]*model.Question)}
}

func (m *memQuestions) ListBySession(_ context.Context, sessionID string) ([]*model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Question{}
	for _, q := range m.items {
		if q.SessionID == sessionID {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *memQuestions) GetByID(_ context.Context, id string) (*model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (m *memQuestions) InsertMany(_ context.Context, questions []*model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range questions {
		for _, existing := range m.items {
			if existing.SessionID == q.SessionID && existing.Order == q.Order {
				return repository.ErrDuplicate
			}
		}
	}
	for _, q := range questions {
		cp := *q
		m.items[q.ID] = &cp
	}
	return nil
}

type memAnswers struct {
	mu    sync.Mutex
	items map[string]*model.Answer
}

func newMemAnswers() *memAnswers {
	return &memAnswers{items: make(map[string]*model.Answer)}
}

func (m *memAnswers) Create(_ context.Context, a *model.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.QuestionID == a.QuestionID {
			return repository.ErrDuplicate
		}
	}
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *memAnswers) GetByQuestionID(_ context.Context, questionID string) (*model.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.QuestionID == questionID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memAnswers) ListBySession(_ context.Context, sessionID string) ([]*model.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Answer{}
	for _, a := range m.items {
		if a.SessionID == sessionID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memAnswers) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	list, _ := m.ListBySession(ctx, sessionID)
	return int64(len(list)), nil
}

func (m *memAnswers) SaveCoaching(_ context.Context, id string, scores model.STARScores, tags model.AnswerTags, needsFollowUp bool, scoredAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.items[id]; ok {
		a.Scores = &scores
		a.Tags = &tags
		a.NeedsFollowUp = needsFollowUp
		a.ScoredAt = &scoredAt
	}
	return nil
}

type memReports struct {
	mu    sync.Mutex
	items map[string]*model.Report
}

func newMemReports() *memReports {
	return &memReports{items: make(map[string]*model.Report)}
}

func (m *memReports) Create(_ context.Context, r *model.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[r.SessionID]; ok {
		return repository.ErrDuplicate
	}
	cp := *r
	m.items[r.SessionID] = &cp
	return nil
}

func (m *memReports) GetBySession(_ context.Context, sessionID string) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

type memDrafts struct {
	mu    sync.Mutex
	items map[string]*model.DraftSnapshot
}

func newMemDrafts() *memDrafts {
	return &memDrafts{items: make(map[string]*model.DraftSnapshot)}
}

func (m *memDrafts) Save(_ context.Context, sessionID string, d *model.DraftSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.items[sessionID] = &cp
	return nil
}

func (m *memDrafts) Load(_ context.Context, sessionID string) (*model.DraftSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.items[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *memDrafts) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, sessionID)
	return nil
}

type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (m *memLocker) isHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[name]
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool)}
}

func (m *memLocker) Acquire(_ context.Context, name string) (func(context.Context) error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[name] {
		return nil, cache.ErrLockHeld
	}
	m.held[name] = true
	return func(ctx context.Context) error {
		// Like Redis, a release on a finished context never reaches the store.
		if err := ctx.Err(); err != nil {
			return err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, name)
		return nil
	}, nil
}

type memCosts struct {
	mu      sync.Mutex
	records []*model.CostRecord
}

func (m *memCosts) Insert(_ context.Context, r *model.CostRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *memCosts) SumPeriodStartingIn(_ context.Context, from, to time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0.0
	for _, r := range m.records {
		if !r.PeriodStart.Before(from) && r.PeriodStart.Before(to) {
			total += r.EstimatedCost
		}
	}
	return total, nil
}

type memFlags struct {
	mu     sync.Mutex
	flags  map[string]*model.CapabilityFlag
	audits []*model.CapabilityAudit
}

func newMemFlags() *memFlags {
	return &memFlags{flags: make(map[string]*model.CapabilityFlag)}
}

func (m *memFlags) GetFlag(_ context.Context, key string) (*model.CapabilityFlag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flags[key]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (m *memFlags) SetFlag(_ context.Context, f *model.CapabilityFlag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.flags[f.Key] = &cp
	return nil
}

func (m *memFlags) InsertAudit(_ context.Context, a *model.CapabilityAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, a)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*model.Event
}

func (p *recordingPublisher) Publish(e *model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// stubCoach answers through the configured funcs and counts calls.
type stubCoach struct {
	coach     func(req ai.CoachingRequest) (*ai.CoachingFeedback, ai.Usage, error)
	summarize func(items []ai.SummaryItem) (*ai.SessionSummary, ai.Usage, error)

	coachCalls     atomic.Int32
	summarizeCalls atomic.Int32
}

func (s *stubCoach) CoachAnswer(_ context.Context, req ai.CoachingRequest) (*ai.CoachingFeedback, ai.Usage, error) {
	s.coachCalls.Add(1)
	return s.coach(req)
}

func (s *stubCoach) Summarize(_ context.Context, items []ai.SummaryItem) (*ai.SessionSummary, ai.Usage, error) {
	s.summarizeCalls.Add(1)
	return s.summarize(items)
}

func fixedFeedback(score float64) func(ai.CoachingRequest) (*ai.CoachingFeedback, ai.Usage, error) {
	return func(ai.CoachingRequest) (*ai.CoachingFeedback, ai.Usage, error) {
		return &ai.CoachingFeedback{
			Scores:    ai.RawScores{Situation: score, Task: score, Action: score, Result: score},
			Narrative: "solid structure",
		}, ai.Usage{}, nil
	}
}

func threeOfEach(items []ai.SummaryItem) (*ai.SessionSummary, ai.Usage, error) {
	return &ai.SessionSummary{
		Strengths: []model.Strength{
			{Text: "a", Evidence: "1"}, {Text: "b", Evidence: "2"}, {Text: "c", Evidence: "3"},
		},
		Clarifications: []model.Clarification{
			{Suggestion: "x", Rationale: "1"}, {Suggestion: "y", Rationale: "2"}, {Suggestion: "z", Rationale: "3"},
		},
	}, ai.Usage{}, nil
}

var fixedNow = time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func candidate(id string) model.Identity {
	return model.Identity{UserID: id, Role: model.RoleCandidate}
}

func reviewer(id string) model.Identity {
	return model.Identity{UserID: id, Role: model.RoleReviewer}
}

// seedSession stores a session with n ordered questions and returns their ids.
func seedSession(sessions *memSessions, questions *memQuestions, s *model.Session, n int) []string {
	_ = sessions.Create(context.Background(), s)
	ids := make([]string, n)
	qs := make([]*model.Question, n)
	for i := range n {
		ids[i] = s.ID + "-q" + strconv.Itoa(i+1)
		qs[i] = &model.Question{
			ID:        ids[i],
			SessionID: s.ID,
			Order:     i + 1,
			Text:      "Tell me about a time you handled conflict",
			Category:  "teamwork",
		}
	}
	_ = questions.InsertMany(context.Background(), qs)
	return ids
}

package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"practicecoach/internal/cache"
	"practicecoach/internal/model"
	"practicecoach/internal/repository"
)

// DraftService stores resume state for interrupted sessions.
type DraftService struct {
	sessions      repository.SessionRepo
	drafts        cache.DraftCache
	maxTextLength int
	now           func() time.Time
}

func NewDraftService(sessions repository.SessionRepo, drafts cache.DraftCache, maxTextLength int) *DraftService {
	return &DraftService{
		sessions:      sessions,
		drafts:        drafts,
		maxTextLength: maxTextLength,
		now:           time.Now,
	}
}

// SaveDraft replaces the stored snapshot with payload stamped with the server time.
func (s *DraftService) SaveDraft(ctx context.Context, sessionID string, caller model.Identity, payload model.DraftPayload) (*model.DraftSnapshot, error) {
	if err := s.validate(payload); err != nil {
		return nil, err
	}
	if _, err := loadAuthorized(ctx, s.sessions, sessionID, caller); err != nil {
		return nil, err
	}

	snapshot := &model.DraftSnapshot{DraftPayload: payload, SavedAt: s.now()}
	if err := s.drafts.Save(ctx, sessionID, snapshot); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return snapshot, nil
}

// LoadDraft returns the stored snapshot, or nil when there is none.
func (s *DraftService) LoadDraft(ctx context.Context, sessionID string, caller model.Identity) (*model.DraftSnapshot, error) {
	if _, err := loadAuthorized(ctx, s.sessions, sessionID, caller); err != nil {
		return nil, err
	}

	snapshot, err := s.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	return snapshot, nil
}

// ClearDraft removes the stored snapshot of the session.
func (s *DraftService) ClearDraft(ctx context.Context, sessionID string, caller model.Identity) error {
	if _, err := loadAuthorized(ctx, s.sessions, sessionID, caller); err != nil {
		return err
	}
	if err := s.drafts.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

func (s *DraftService) validate(payload model.DraftPayload) error {
	if payload.CurrentIndex < 0 {
		return validationError("currentIndex must not be negative")
	}
	if payload.Mode != "" && !payload.Mode.Valid() {
		return validationError(fmt.Sprintf("unknown mode %q", payload.Mode))
	}
	for questionID, text := range payload.Answers {
		if utf8.RuneCountInString(text) > s.maxTextLength {
			return validationError(fmt.Sprintf("draft for question %s exceeds %d characters", questionID, s.maxTextLength))
		}
	}
	return nil
}

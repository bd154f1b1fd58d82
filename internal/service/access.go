package service

import (
	"context"
	"fmt"

	"practicecoach/internal/model"
	"practicecoach/internal/repository"
)

// authorize checks the caller against the session's ownership.
func authorize(session *model.Session, caller model.Identity) error {
	if !session.Ownership().Admits(caller) {
		return newError(KindUnauthorized, "session belongs to another user", nil)
	}
	return nil
}

// loadAuthorized loads a session and checks the caller may act on it.
func loadAuthorized(ctx context.Context, sessions repository.SessionRepo, sessionID string, caller model.Identity) (*model.Session, error) {
	session, err := sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, notFound("session not found")
	}
	if err := authorize(session, caller); err != nil {
		return nil, err
	}
	return session, nil
}

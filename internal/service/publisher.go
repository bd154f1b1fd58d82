package service

import (
	"time"

	"github.com/google/uuid"

	"practicecoach/internal/model"
)

// Publisher accepts analytics events (implemented by events.Dispatcher,
// interface avoids the import cycle). Publish must not block.
type Publisher interface {
	Publish(event *model.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(*model.Event) {}

func emit(p Publisher, typ model.EventType, session *model.Session, userID string, payload map[string]any, at time.Time) {
	p.Publish(&model.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		SessionID: session.ID,
		UserID:    userID,
		Payload:   payload,
		CreatedAt: at,
	})
}

package model

import "time"

type EventType string

const (
	EventSessionStarted   EventType = "session_started"
	EventQuestionAnswered EventType = "question_answered"
	EventCoachingViewed   EventType = "coaching_viewed"
)

// Event is an analytics event. Delivery is best-effort.
type Event struct {
	ID        string         `json:"id" bson:"_id"`
	Type      EventType      `json:"type" bson:"type"`
	SessionID string         `json:"sessionId" bson:"sessionId"`
	UserID    string         `json:"userId,omitempty" bson:"userId,omitempty"`
	Payload   map[string]any `json:"payload,omitempty" bson:"payload,omitempty"`
	CreatedAt time.Time      `json:"createdAt" bson:"createdAt"`
}

package model

import "time"

type SessionMode string

const (
	ModeAudio SessionMode = "audio"
	ModeText  SessionMode = "text"
)

// Valid reports whether m is a known input mode.
func (m SessionMode) Valid() bool {
	return m == ModeAudio || m == ModeText
}

const (
	MinQuestionCount    = 3
	MaxQuestionCount    = 10
	GentleQuestionCount = 3
)

// Session is one practice-interview attempt. An empty OwnerID means a guest session.
type Session struct {
	ID                string      `json:"id" bson:"_id"`
	OwnerID           string      `json:"ownerId,omitempty" bson:"ownerId,omitempty"`
	Mode              SessionMode `json:"mode" bson:"mode"`
	QuestionCount     int         `json:"questionCount" bson:"questionCount"`
	LowAnxietyEnabled bool        `json:"lowAnxietyEnabled" bson:"lowAnxietyEnabled"`
	CompletionRate    float64     `json:"completionRate" bson:"completionRate"`
	AvgScore          *float64    `json:"avgScore,omitempty" bson:"avgScore,omitempty"`
	StartedAt         time.Time   `json:"startedAt" bson:"startedAt"`
	CompletedAt       *time.Time  `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

func (s *Session) IsCompleted() bool {
	return s.CompletedAt != nil
}

// Ownership returns who may act on the session.
func (s *Session) Ownership() Ownership {
	if s.OwnerID == "" {
		return Unowned{}
	}
	return OwnedBy{UserID: s.OwnerID}
}

// Ownership is the authorization root of a session: either OwnedBy a user
// or Unowned (anyone holding the id may act on it).
type Ownership interface {
	Admits(caller Identity) bool
	ownership()
}

type OwnedBy struct {
	UserID string
}

func (o OwnedBy) Admits(caller Identity) bool {
	return !caller.IsGuest() && caller.UserID == o.UserID
}

func (OwnedBy) ownership() {}

type Unowned struct{}

func (Unowned) Admits(Identity) bool { return true }

func (Unowned) ownership() {}

// CreateSessionRequest is the body of POST /v1/sessions
type CreateSessionRequest struct {
	Mode              SessionMode `json:"mode"`
	QuestionCount     int         `json:"questionCount"`
	LowAnxietyEnabled bool        `json:"lowAnxietyEnabled"`
}

// CreateSessionResponse echoes the effective configuration
type CreateSessionResponse struct {
	SessionID         string      `json:"sessionId"`
	Mode              SessionMode `json:"mode"`
	QuestionCount     int         `json:"questionCount"`
	LowAnxietyEnabled bool        `json:"lowAnxietyEnabled"`
}

package model

import "time"

type Strength struct {
	Text     string `json:"text" bson:"text"`
	Evidence string `json:"evidence" bson:"evidence"`
}

type Clarification struct {
	Suggestion string `json:"suggestion" bson:"suggestion"`
	Rationale  string `json:"rationale" bson:"rationale"`
}

// QuestionFeedback is the per-question section of a report
type QuestionFeedback struct {
	QuestionID     string     `json:"questionId" bson:"questionId"`
	Order          int        `json:"order" bson:"order"`
	QuestionText   string     `json:"questionText" bson:"questionText"`
	Scores         STARScores `json:"scores" bson:"scores"`
	Average        float64    `json:"average" bson:"average"`
	Label          string     `json:"label" bson:"label"`
	Missing        []string   `json:"missing" bson:"missing"`
	Tags           AnswerTags `json:"tags" bson:"tags"`
	NeedsFollowUp  bool       `json:"needsFollowUp" bson:"needsFollowUp"`
	Narrative      string     `json:"narrative" bson:"narrative"`
	ExampleRewrite string     `json:"exampleRewrite" bson:"exampleRewrite"`
}

// Report is the end-of-session coaching artifact, one per session.
type Report struct {
	ID             string             `json:"id" bson:"_id"`
	SessionID      string             `json:"sessionId" bson:"sessionId"`
	AvgScore       float64            `json:"avgScore" bson:"avgScore"`
	Label          string             `json:"label" bson:"label"`
	Strengths      []Strength         `json:"strengths" bson:"strengths"`
	Clarifications []Clarification    `json:"clarifications" bson:"clarifications"`
	Feedback       []QuestionFeedback `json:"feedback" bson:"feedback"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
}

// CoachingResult is returned by POST /v1/sessions/{sessionId}/coaching
type CoachingResult struct {
	ReportID  string `json:"reportId"`
	SessionID string `json:"sessionId"`
	Completed bool   `json:"completed"`
}

// ReviewItem is one question as shown to a reviewer. Text is only filled
// when the session passes the access threshold.
type ReviewItem struct {
	QuestionID string      `json:"questionId"`
	Order      int         `json:"order"`
	Question   string      `json:"question"`
	Answered   bool        `json:"answered"`
	Scores     *STARScores `json:"scores,omitempty"`
	Text       string      `json:"text,omitempty"`
}

// SessionReview is the reviewer-facing summary of a session
type SessionReview struct {
	SessionID      string       `json:"sessionId"`
	CompletionRate float64      `json:"completionRate"`
	AvgScore       *float64     `json:"avgScore,omitempty"`
	ElementMeans   ElementMeans `json:"elementMeans"`
	Average        float64      `json:"average"`
	AnswersVisible bool         `json:"answersVisible"`
	Items          []ReviewItem `json:"items"`
}

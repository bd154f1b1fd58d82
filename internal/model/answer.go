package model

import "time"

// STAR elements, in their fixed reporting order.
const (
	ElementSituation = "Situation"
	ElementTask      = "Task"
	ElementAction    = "Action"
	ElementResult    = "Result"
)

// STARScores holds the four per-element scores, each 1..5 once normalized.
type STARScores struct {
	Situation int `json:"situation" bson:"situation"`
	Task      int `json:"task" bson:"task"`
	Action    int `json:"action" bson:"action"`
	Result    int `json:"result" bson:"result"`
}

// ElementMeans are per-element averages across several scored answers.
type ElementMeans struct {
	Situation float64 `json:"situation"`
	Task      float64 `json:"task"`
	Action    float64 `json:"action"`
	Result    float64 `json:"result"`
}

// Situation clarity tag values
const (
	SituationClear   = "clear"
	SituationPartial = "partial"
	SituationUnclear = "unclear"
)

// Action ownership tag values
const (
	OwnershipIndividual = "individual"
	OwnershipShared     = "shared"
	OwnershipUnclear    = "unclear"
)

// Result quantification tag values
const (
	ResultQuantified  = "quantified"
	ResultQualitative = "qualitative"
	ResultMissing     = "missing"
)

// AnswerTags are the three categorical tags attached to a coached answer.
type AnswerTags struct {
	SituationClarity     string `json:"situationClarity" bson:"situationClarity"`
	ActionOwnership      string `json:"actionOwnership" bson:"actionOwnership"`
	ResultQuantification string `json:"resultQuantification" bson:"resultQuantification"`
}

type Answer struct {
	ID              string      `json:"id" bson:"_id"`
	QuestionID      string      `json:"questionId" bson:"questionId"`
	SessionID       string      `json:"sessionId" bson:"sessionId"`
	Text            string      `json:"text" bson:"text"`
	DurationSeconds *int        `json:"durationSeconds,omitempty" bson:"durationSeconds,omitempty"`
	RetakeUsed      bool        `json:"retakeUsed" bson:"retakeUsed"`
	ExtensionUsed   bool        `json:"extensionUsed" bson:"extensionUsed"`
	Scores          *STARScores `json:"scores,omitempty" bson:"scores,omitempty"`
	Tags            *AnswerTags `json:"tags,omitempty" bson:"tags,omitempty"`
	NeedsFollowUp   bool        `json:"needsFollowUp" bson:"needsFollowUp"`
	CreatedAt       time.Time   `json:"createdAt" bson:"createdAt"`
	ScoredAt        *time.Time  `json:"scoredAt,omitempty" bson:"scoredAt,omitempty"`
}

func (a *Answer) IsScored() bool {
	return a.Scores != nil
}

// SubmitAnswerRequest is the body of POST /v1/sessions/{sessionId}/answers
type SubmitAnswerRequest struct {
	QuestionID      string `json:"questionId"`
	Text            string `json:"text"`
	DurationSeconds *int   `json:"durationSeconds,omitempty"`
	RetakeUsed      bool   `json:"retakeUsed,omitempty"`
	ExtensionUsed   bool   `json:"extensionUsed,omitempty"`
}

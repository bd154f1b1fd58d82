package model

import "time"

// DraftPayload is client-defined resume state for an interrupted session.
type DraftPayload struct {
	CurrentIndex int               `json:"currentIndex"`
	Mode         SessionMode       `json:"mode,omitempty"`
	Answers      map[string]string `json:"answers,omitempty"` // questionId -> draft text
}

// DraftSnapshot is the stored draft: the last payload plus the server time it was saved.
type DraftSnapshot struct {
	DraftPayload
	SavedAt time.Time `json:"savedAt"`
}

// DraftResponse wraps a snapshot so a missing draft serializes as null
type DraftResponse struct {
	Draft *DraftSnapshot `json:"draft"`
}

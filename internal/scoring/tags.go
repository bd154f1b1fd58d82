package scoring

import (
	"strings"

	"practicecoach/internal/model"
)

var (
	situationTags = []string{model.SituationClear, model.SituationPartial, model.SituationUnclear}
	ownershipTags = []string{model.OwnershipIndividual, model.OwnershipShared, model.OwnershipUnclear}
	resultTags    = []string{model.ResultQuantified, model.ResultQualitative, model.ResultMissing}
)

// Tags keeps each raw tag the coach returned when it is a known value and
// derives the rest from the matching element score (>=4 best, 3 middle,
// otherwise worst).
func Tags(raw model.AnswerTags, s model.STARScores) model.AnswerTags {
	return model.AnswerTags{
		SituationClarity:     pick(raw.SituationClarity, situationTags, s.Situation),
		ActionOwnership:      pick(raw.ActionOwnership, ownershipTags, s.Action),
		ResultQuantification: pick(raw.ResultQuantification, resultTags, s.Result),
	}
}

// pick expects allowed ordered best to worst.
func pick(raw string, allowed []string, score int) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, v := range allowed {
		if raw == v {
			return v
		}
	}
	switch {
	case score >= 4:
		return allowed[0]
	case score == 3:
		return allowed[1]
	default:
		return allowed[2]
	}
}

// Package scoring normalizes AI coaching output into STAR scores, tags and
// aggregates. Everything here is pure.
package scoring

import (
	"math"

	"practicecoach/internal/model"
)

const (
	MinScore = 1
	MaxScore = 5

	// An element scoring below this is reported as missing.
	missingBelow = 3

	AccessAverageThreshold    = 4.2
	AccessCompletionThreshold = 0.7
)

// ClampScore rounds x to the nearest integer (halves away from zero) and
// clamps it to [1,5]. NaN maps to the minimum.
func ClampScore(x float64) int {
	if math.IsNaN(x) {
		return MinScore
	}
	r := math.Round(x)
	if r < MinScore {
		return MinScore
	}
	if r > MaxScore {
		return MaxScore
	}
	return int(r)
}

// Clamp normalizes four raw element scores.
func Clamp(situation, task, action, result float64) model.STARScores {
	return model.STARScores{
		Situation: ClampScore(situation),
		Task:      ClampScore(task),
		Action:    ClampScore(action),
		Result:    ClampScore(result),
	}
}

// AverageOfFour is the mean of the four elements rounded to 2 decimals.
func AverageOfFour(s model.STARScores) float64 {
	return round2(float64(s.Situation+s.Task+s.Action+s.Result) / 4)
}

// QualitativeLabel maps an average score to its display label.
func QualitativeLabel(avg float64) string {
	switch {
	case avg >= 4.5:
		return "Excellent"
	case avg >= 3.5:
		return "Strong"
	case avg >= 2.5:
		return "Adequate"
	case avg >= 1.5:
		return "Needs Improvement"
	default:
		return "Missing"
	}
}

// MissingElements lists the elements scoring below 3, in STAR order.
func MissingElements(s model.STARScores) []string {
	missing := make([]string, 0, 4)
	for _, e := range elements(s) {
		if e.score < missingBelow {
			missing = append(missing, e.name)
		}
	}
	return missing
}

// MeetsAccessThreshold decides whether a third party may see raw answer
// text: the four-element average must be at least 4.2 and the session at
// least 70% complete.
func MeetsAccessThreshold(s model.STARScores, completionRate float64) bool {
	return meetsAccess(AverageOfFour(s), completionRate)
}

// MeansMeetAccessThreshold applies the same rule to per-element means of a
// whole session.
func MeansMeetAccessThreshold(m model.ElementMeans, completionRate float64) bool {
	return meetsAccess(AverageOfMeans(m), completionRate)
}

func meetsAccess(avg, completionRate float64) bool {
	return avg >= AccessAverageThreshold && completionRate >= AccessCompletionThreshold
}

// SessionAverage is the mean of each answer's own AverageOfFour, rounded to
// 2 decimals. Zero answers yield 0.
func SessionAverage(scores []model.STARScores) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += AverageOfFour(s)
	}
	return round2(sum / float64(len(scores)))
}

// ElementMeans averages each element across answers, rounded to 2 decimals.
func ElementMeans(scores []model.STARScores) model.ElementMeans {
	if len(scores) == 0 {
		return model.ElementMeans{}
	}
	var m model.ElementMeans
	for _, s := range scores {
		m.Situation += float64(s.Situation)
		m.Task += float64(s.Task)
		m.Action += float64(s.Action)
		m.Result += float64(s.Result)
	}
	n := float64(len(scores))
	return model.ElementMeans{
		Situation: round2(m.Situation / n),
		Task:      round2(m.Task / n),
		Action:    round2(m.Action / n),
		Result:    round2(m.Result / n),
	}
}

func AverageOfMeans(m model.ElementMeans) float64 {
	return round2((m.Situation + m.Task + m.Action + m.Result) / 4)
}

type element struct {
	name  string
	score int
}

func elements(s model.STARScores) []element {
	return []element{
		{name: model.ElementSituation, score: s.Situation},
		{name: model.ElementTask, score: s.Task},
		{name: model.ElementAction, score: s.Action},
		{name: model.ElementResult, score: s.Result},
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

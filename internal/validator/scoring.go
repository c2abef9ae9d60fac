package validator

import "leadripper/internal/models"

// Score contributions. Stages add or subtract independently; only the final
// value is clamped.
const (
	PointsSyntax           = 20
	PenaltyDisposable      = 30
	PenaltyRoleBased       = 20
	PenaltyNoMX            = 40
	PointsMX               = 40
	PointsSMTPAccepted     = 40
	PenaltySMTPRejected    = 30
	PointsSMTPInconclusive = 15
	PointsSMTPSkipped      = 20

	ValidThreshold = 60
)

const (
	minScore = 0
	maxScore = 100
)

func clamp(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// floorAtZero applies a terminal-stage penalty the way the early exits do:
// the result never drops below zero.
func floorAtZero(score, penalty int) int {
	return max(0, score-penalty)
}

// RecommendationFor maps a clamped score to its tier; the highest
// qualifying tier wins.
func RecommendationFor(score int) models.Recommendation {
	switch {
	case score >= 90:
		return models.RecommendationExcellent
	case score >= 70:
		return models.RecommendationGood
	case score >= 50:
		return models.RecommendationAcceptable
	case score >= 30:
		return models.RecommendationRisky
	default:
		return models.RecommendationBad
	}
}

// finalize sets score, verdict and recommendation. Every return path of
// the engine goes through here.
func finalize(res *models.ValidationResult, score int) {
	res.Score = clamp(score)
	res.Valid = res.Score >= ValidThreshold && len(res.Errors) == 0
	res.Recommendation = RecommendationFor(res.Score)
	res.RecommendationDetail = res.Recommendation.Detail()
}

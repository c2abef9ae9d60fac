package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leadripper/internal/models"
)

func TestRecommendationFor(t *testing.T) {
	tests := []struct {
		score int
		want  models.Recommendation
	}{
		{100, models.RecommendationExcellent},
		{90, models.RecommendationExcellent},
		{89, models.RecommendationGood},
		{70, models.RecommendationGood},
		{69, models.RecommendationAcceptable},
		{50, models.RecommendationAcceptable},
		{49, models.RecommendationRisky},
		{30, models.RecommendationRisky},
		{29, models.RecommendationBad},
		{0, models.RecommendationBad},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RecommendationFor(tt.score), "score %d", tt.score)
	}
}

func TestRecommendationTiersAreMonotonic(t *testing.T) {
	rank := map[models.Recommendation]int{
		models.RecommendationBad:        0,
		models.RecommendationRisky:      1,
		models.RecommendationAcceptable: 2,
		models.RecommendationGood:       3,
		models.RecommendationExcellent:  4,
	}

	prev := -1
	for score := 0; score <= 100; score++ {
		r, ok := rank[RecommendationFor(score)]
		assert.True(t, ok, "score %d maps to a known tier", score)
		assert.GreaterOrEqual(t, r, prev, "tier never drops as score rises (score %d)", score)
		prev = r
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, clamp(-50))
	assert.Equal(t, 0, clamp(0))
	assert.Equal(t, 55, clamp(55))
	assert.Equal(t, 100, clamp(100))
	assert.Equal(t, 100, clamp(140))
}

func TestFloorAtZero(t *testing.T) {
	assert.Equal(t, 0, floorAtZero(-10, 40))
	assert.Equal(t, 0, floorAtZero(20, 40))
	assert.Equal(t, 30, floorAtZero(60, 30))
}

func TestFinalize(t *testing.T) {
	tests := []struct {
		name      string
		score     int
		errors    []string
		wantScore int
		wantValid bool
		wantTier  models.Recommendation
	}{
		{"threshold is inclusive", 60, nil, 60, true, models.RecommendationAcceptable},
		{"just below threshold", 59, nil, 59, false, models.RecommendationAcceptable},
		{"errors veto validity", 80, []string{"Email address rejected by server"}, 80, false, models.RecommendationGood},
		{"negative clamps", -30, nil, 0, false, models.RecommendationBad},
		{"overflow clamps", 120, nil, 100, true, models.RecommendationExcellent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := models.NewResult("a@b.com")
			res.Errors = append(res.Errors, tt.errors...)

			finalize(&res, tt.score)

			assert.Equal(t, tt.wantScore, res.Score)
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.Equal(t, tt.wantTier, res.Recommendation)
			assert.Equal(t, tt.wantTier.Detail(), res.RecommendationDetail)
		})
	}
}

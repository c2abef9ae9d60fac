package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStats(t *testing.T) {
	st := NewStats(3, 2, 1, 1, 71.6)

	assert.Equal(t, 3, st.TotalLeads)
	assert.Equal(t, 2, st.VerifiedEmails)
	assert.Equal(t, 72, st.AverageScore)
	assert.Equal(t, 66.7, st.VerificationRate)
}

func TestNewStatsEmptyJob(t *testing.T) {
	st := NewStats(0, 0, 0, 0, 0)

	assert.Zero(t, st.VerificationRate)
	assert.Zero(t, st.AverageScore)
}

func TestMigrationsCoverStatsColumns(t *testing.T) {
	var results string
	for _, m := range migrations {
		if m.name == "results" {
			results = m.query
		}
	}
	for _, col := range []string{"verified", "score", "warnings", "disposable", "role_based", "data JSONB"} {
		assert.Contains(t, results, col)
	}
}

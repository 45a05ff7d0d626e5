package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edusched/alloc-api/internal/models"
)

func TestAggregateSeverityEmptyListIsZero(t *testing.T) {
	report := New().AggregateSeverity(nil)

	assert.Zero(t, report.TotalScore)
	assert.Zero(t, report.HighCount)
	assert.Zero(t, report.MediumCount)
	assert.Zero(t, report.LowCount)
	assert.NotNil(t, report.ByType)
	assert.Empty(t, report.ByType)
}

func TestAggregateSeverityCountsTiersAndTypes(t *testing.T) {
	conflicts := []models.Conflict{
		{Type: models.ConflictTimeOverlap, Severity: models.SeverityHigh},
		{Type: models.ConflictQualificationMismatch, Severity: models.SeverityHigh},
		{Type: models.ConflictOverload, Severity: models.SeverityMedium},
		{Type: models.ConflictCoverageGap, Severity: models.SeverityLow},
		{Type: models.ConflictCoverageGap, Severity: models.SeverityLow},
	}

	report := New().AggregateSeverity(conflicts)

	// 2 high * 3 + 1 medium * 2 + 2 low * 1
	assert.InDelta(t, 10.0, report.TotalScore, 1e-9)
	assert.Equal(t, 2, report.HighCount)
	assert.Equal(t, 1, report.MediumCount)
	assert.Equal(t, 2, report.LowCount)
	assert.Equal(t, 1, report.ByType[models.ConflictTimeOverlap])
	assert.Equal(t, 1, report.ByType[models.ConflictQualificationMismatch])
	assert.Equal(t, 1, report.ByType[models.ConflictOverload])
	assert.Equal(t, 2, report.ByType[models.ConflictCoverageGap])
}

func TestAggregateSeverityRanksRiskierSetsHigher(t *testing.T) {
	e := New()
	risky := e.AggregateSeverity([]models.Conflict{
		{Type: models.ConflictTimeOverlap, Severity: models.SeverityHigh},
		{Type: models.ConflictDuplicateAssignment, Severity: models.SeverityHigh},
	})
	mild := e.AggregateSeverity([]models.Conflict{
		{Type: models.ConflictCoverageGap, Severity: models.SeverityLow},
	})

	assert.Greater(t, risky.TotalScore, mild.TotalScore)
}

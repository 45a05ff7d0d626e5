package engine

import "github.com/edusched/alloc-api/internal/models"

// Fixed tier weights. The aggregate is comparative only: it ranks candidate
// allocations against each other and carries no absolute meaning.
var severityWeights = map[models.Severity]int{
	models.SeverityHigh:   3,
	models.SeverityMedium: 2,
	models.SeverityLow:    1,
}

// AggregateSeverity reduces a conflict list to a single comparable risk
// figure plus per-type and per-tier counts. An empty list aggregates to zero.
func (e *Engine) AggregateSeverity(conflicts []models.Conflict) models.SeverityReport {
	report := models.SeverityReport{ByType: make(map[models.ConflictType]int)}
	for _, conflict := range conflicts {
		report.TotalScore += float64(severityWeights[conflict.Severity])
		report.ByType[conflict.Type]++
		switch conflict.Severity {
		case models.SeverityHigh:
			report.HighCount++
		case models.SeverityMedium:
			report.MediumCount++
		case models.SeverityLow:
			report.LowCount++
		}
	}
	return report
}

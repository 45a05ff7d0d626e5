package models

import "time"

// ConflictType enumerates the fixed set of constraint violations the detector
// reports. The classification table is not configurable.
type ConflictType string

const (
	ConflictQualificationMismatch ConflictType = "QUALIFICATION_MISMATCH"
	ConflictTimeOverlap           ConflictType = "TIME_OVERLAP"
	ConflictDuplicateAssignment   ConflictType = "DUPLICATE_ASSIGNMENT"
	ConflictOverload              ConflictType = "OVERLOAD"
	ConflictCoverageGap           ConflictType = "COVERAGE_GAP"
)

// Severity tiers for conflicts.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Conflict is a derived report of a single rule violation. Conflicts are never
// stored; they are recomputed from a snapshot on demand.
type Conflict struct {
	Type          ConflictType `json:"type"`
	Description   string       `json:"description"`
	Severity      Severity     `json:"severity"`
	AssignmentIDs []string     `json:"assignment_ids"`
	TeacherID     string       `json:"teacher_id,omitempty"`
	CourseID      string       `json:"course_id,omitempty"`
}

// SeverityReport reduces a conflict list to a comparative risk figure.
// TotalScore has no absolute meaning; lower is better when ranking candidates.
type SeverityReport struct {
	TotalScore  float64              `json:"total_score"`
	ByType      map[ConflictType]int `json:"by_type"`
	HighCount   int                  `json:"high_count"`
	MediumCount int                  `json:"medium_count"`
	LowCount    int                  `json:"low_count"`
}

// EvaluationResult is the orchestrator verdict for one candidate assignment.
// Score is nil when the candidate was hard-rejected.
type EvaluationResult struct {
	Accepted            bool       `json:"accepted"`
	Reason              string     `json:"reason,omitempty"`
	Score               *float64   `json:"score,omitempty"`
	ConflictsIntroduced []Conflict `json:"conflicts_introduced"`
}

// AuditStatus tracks asynchronous full-roster conflict audits.
type AuditStatus string

const (
	AuditStatusPending   AuditStatus = "pending"
	AuditStatusCompleted AuditStatus = "completed"
	AuditStatusFailed    AuditStatus = "failed"
)

// AuditReport is the cached result of a background conflict audit.
type AuditReport struct {
	ID          string         `json:"id"`
	Status      AuditStatus    `json:"status"`
	Conflicts   []Conflict     `json:"conflicts,omitempty"`
	Summary     SeverityReport `json:"summary"`
	Error       string         `json:"error,omitempty"`
	RequestedBy string         `json:"requested_by,omitempty"`
	RequestedAt time.Time      `json:"requested_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

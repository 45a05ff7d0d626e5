package dto

import (
	"time"

	"github.com/edusched/alloc-api/internal/models"
)

// TimeSlotPayload is a dated lesson interval as accepted on the wire. Date uses
// the 2006-01-02 layout; Start and End are HH:MM clock times.
type TimeSlotPayload struct {
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Start           string `json:"start" validate:"required"`
	End             string `json:"end" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=1"`
}

// CandidateAssignmentRequest describes one proposed teacher-course assignment.
type CandidateAssignmentRequest struct {
	ID        string            `json:"id" validate:"omitempty"`
	TeacherID string            `json:"teacher_id" validate:"required"`
	CourseID  string            `json:"course_id" validate:"required"`
	Status    string            `json:"status" validate:"omitempty,oneof=active pending"`
	Slots     []TimeSlotPayload `json:"slots" validate:"required,min=1,dive"`
}

// EvaluateAssignmentRequest asks the orchestrator to judge a candidate against
// the current roster. WeightProfileID is optional; the default profile applies
// when it is empty.
type EvaluateAssignmentRequest struct {
	Candidate       CandidateAssignmentRequest `json:"candidate" validate:"required"`
	WeightProfileID string                     `json:"weight_profile_id"`
}

// ScoreAssignmentRequest asks for the quality score of a candidate without the
// accept/reject verdict.
type ScoreAssignmentRequest struct {
	Candidate       CandidateAssignmentRequest `json:"candidate" validate:"required"`
	WeightProfileID string                     `json:"weight_profile_id"`
}

// ScoreResponse carries the computed score and the profile that produced it.
type ScoreResponse struct {
	Score           float64 `json:"score"`
	WeightProfileID string  `json:"weight_profile_id"`
}

// ConflictQuery filters detected conflicts.
type ConflictQuery struct {
	Type      string `form:"type" json:"type" validate:"omitempty,oneof=QUALIFICATION_MISMATCH TIME_OVERLAP DUPLICATE_ASSIGNMENT OVERLOAD COVERAGE_GAP"`
	TeacherID string `form:"teacher_id" json:"teacher_id"`
	CourseID  string `form:"course_id" json:"course_id"`
}

// ConflictListResponse returns the detected conflicts with their aggregate.
type ConflictListResponse struct {
	Conflicts []models.Conflict     `json:"conflicts"`
	Summary   models.SeverityReport `json:"summary"`
}

// UpdateAssignmentStatusRequest transitions an assignment lifecycle state.
type UpdateAssignmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive pending cancelled"`
}

// AuditRequestedResponse acknowledges an asynchronous roster audit.
type AuditRequestedResponse struct {
	AuditID     string    `json:"audit_id"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requested_at"`
}

// ToModel converts the wire candidate into its engine representation. Invalid
// dates have already been rejected by validation, so parse errors are ignored.
func (r CandidateAssignmentRequest) ToModel() models.Assignment {
	status := models.AssignmentStatus(r.Status)
	if r.Status == "" {
		status = models.AssignmentStatusPending
	}
	slots := make([]models.TimeSlot, 0, len(r.Slots))
	for _, s := range r.Slots {
		date, _ := time.Parse("2006-01-02", s.Date)
		slots = append(slots, models.TimeSlot{
			Date:            date,
			Start:           s.Start,
			End:             s.End,
			DurationMinutes: s.DurationMinutes,
		})
	}
	return models.Assignment{
		ID:        r.ID,
		TeacherID: r.TeacherID,
		CourseID:  r.CourseID,
		Status:    status,
		Slots:     slots,
	}
}

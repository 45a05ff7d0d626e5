package models

import "time"

// AssignmentStatus enumerates assignment lifecycle states. Only active and
// pending assignments participate in conflict detection and scoring.
type AssignmentStatus string

const (
	AssignmentStatusActive    AssignmentStatus = "active"
	AssignmentStatusInactive  AssignmentStatus = "inactive"
	AssignmentStatusPending   AssignmentStatus = "pending"
	AssignmentStatusCancelled AssignmentStatus = "cancelled"
)

// Countable reports whether assignments in this status are considered by the
// engine at all.
func (s AssignmentStatus) Countable() bool {
	return s == AssignmentStatusActive || s == AssignmentStatusPending
}

// Valid reports whether the status is one of the known lifecycle states.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentStatusActive, AssignmentStatusInactive, AssignmentStatusPending, AssignmentStatusCancelled:
		return true
	}
	return false
}

// TimeSlot is a dated lesson interval. Start and End are HH:MM clock times;
// DurationMinutes is stored redundantly and must agree with Start/End.
type TimeSlot struct {
	Date            time.Time `json:"date"`
	Start           string    `json:"start"`
	End             string    `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Assignment links a teacher to a course with its scheduled lesson slots.
// Slot order is insertion order, not guaranteed chronological.
type Assignment struct {
	ID        string           `db:"id" json:"id"`
	TeacherID string           `db:"teacher_id" json:"teacher_id"`
	CourseID  string           `db:"course_id" json:"course_id"`
	Status    AssignmentStatus `db:"status" json:"status"`
	Slots     []TimeSlot       `json:"slots"`
	Rationale *string          `db:"rationale" json:"rationale,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AssignmentFilter captures filtering options for listing assignments.
type AssignmentFilter struct {
	TeacherID string
	CourseID  string
	Status    AssignmentStatus
	Page      int
	PageSize  int
}

// Snapshot bundles the immutable state the engine evaluates against.
type Snapshot struct {
	Teachers    []Teacher     `json:"teachers"`
	Courses     []Course      `json:"courses"`
	Assignments []Assignment  `json:"assignments"`
	Weights     WeightProfile `json:"weights"`
}

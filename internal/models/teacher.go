package models

import "time"

// WorkingWindow is a daily working interval expressed as HH:MM clock times.
type WorkingWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Teacher represents an instructor snapshot as consumed by the allocation engine.
// Qualifications and WorkingHours are decoded from their JSON columns at the
// repository boundary; the engine never sees raw encoded strings.
type Teacher struct {
	ID             string                   `db:"id" json:"id"`
	FullName       string                   `db:"full_name" json:"full_name"`
	Qualifications []string                 `json:"qualifications"`
	WorkingHours   map[string]WorkingWindow `json:"working_hours"`
	CreatedAt      time.Time                `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time                `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

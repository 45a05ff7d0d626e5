package models

import "time"

// Course represents a course snapshot. Topic must exactly match one of a
// teacher's qualification tokens for the teacher to be assignable.
type Course struct {
	ID                    string    `db:"id" json:"id"`
	Name                  string    `db:"name" json:"name"`
	Topic                 string    `db:"topic" json:"topic"`
	LessonsCount          int       `db:"lessons_count" json:"lessons_count"`
	LessonDurationMinutes int       `db:"lesson_duration_minutes" json:"lesson_duration_minutes"`
	StartDate             time.Time `db:"start_date" json:"start_date"`
	EndDate               time.Time `db:"end_date" json:"end_date"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures filtering options for listing courses.
type CourseFilter struct {
	Search    string
	Topic     string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

package engine

import (
	"time"

	"github.com/edusched/alloc-api/internal/models"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func slot(date, start, end string, duration int) models.TimeSlot {
	return models.TimeSlot{Date: day(date), Start: start, End: end, DurationMinutes: duration}
}

func mathTeacher(id string) models.Teacher {
	return models.Teacher{
		ID:             id,
		FullName:       "Teacher " + id,
		Qualifications: []string{"Mathematics"},
		WorkingHours: map[string]models.WorkingWindow{
			"MONDAY":    {Start: "08:00", End: "16:00"},
			"TUESDAY":   {Start: "08:00", End: "16:00"},
			"WEDNESDAY": {Start: "08:00", End: "16:00"},
		},
	}
}

func mathCourse(id string, lessons int) models.Course {
	return models.Course{
		ID:                    id,
		Name:                  "Algebra " + id,
		Topic:                 "Mathematics",
		LessonsCount:          lessons,
		LessonDurationMinutes: 60,
		StartDate:             day("2025-09-01"),
		EndDate:               day("2025-12-19"),
	}
}

func activeAssignment(id, teacherID, courseID string, slots ...models.TimeSlot) models.Assignment {
	return models.Assignment{
		ID:        id,
		TeacherID: teacherID,
		CourseID:  courseID,
		Status:    models.AssignmentStatusActive,
		Slots:     slots,
	}
}

func balancedWeights() models.WeightProfile {
	return models.WeightProfile{ID: "wp-1", Name: "Balanced", Equality: 34, Continuity: 33, Loyalty: 33}
}

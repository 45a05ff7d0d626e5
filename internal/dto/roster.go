package dto

// WorkingWindowPayload is a daily availability interval in HH:MM clock times.
type WorkingWindowPayload struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// CreateTeacherRequest registers an instructor with qualifications and weekly
// working windows keyed by uppercase weekday name.
type CreateTeacherRequest struct {
	FullName       string                          `json:"full_name" validate:"required,min=1,max=200"`
	Qualifications []string                        `json:"qualifications" validate:"required,min=1,dive,min=1"`
	WorkingHours   map[string]WorkingWindowPayload `json:"working_hours" validate:"required,min=1,dive"`
}

// UpdateTeacherRequest replaces the mutable teacher fields.
type UpdateTeacherRequest struct {
	FullName       string                          `json:"full_name" validate:"required,min=1,max=200"`
	Qualifications []string                        `json:"qualifications" validate:"required,min=1,dive,min=1"`
	WorkingHours   map[string]WorkingWindowPayload `json:"working_hours" validate:"required,min=1,dive"`
}

// CreateCourseRequest registers a course with its demand shape.
type CreateCourseRequest struct {
	Name                  string `json:"name" validate:"required,min=1,max=200"`
	Topic                 string `json:"topic" validate:"required,min=1,max=120"`
	LessonsCount          int    `json:"lessons_count" validate:"required,min=1"`
	LessonDurationMinutes int    `json:"lesson_duration_minutes" validate:"required,min=1"`
	StartDate             string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate               string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// UpdateCourseRequest replaces the mutable course fields.
type UpdateCourseRequest struct {
	Name                  string `json:"name" validate:"required,min=1,max=200"`
	Topic                 string `json:"topic" validate:"required,min=1,max=120"`
	LessonsCount          int    `json:"lessons_count" validate:"required,min=1"`
	LessonDurationMinutes int    `json:"lesson_duration_minutes" validate:"required,min=1"`
	StartDate             string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate               string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// ListQuery is the common paging envelope for roster listings.
type ListQuery struct {
	Search   string `form:"search" json:"search"`
	Topic    string `form:"topic" json:"topic"`
	Page     int    `form:"page" json:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" json:"page_size" validate:"omitempty,min=1,max=200"`
}

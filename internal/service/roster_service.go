package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusched/alloc-api/internal/dto"
	"github.com/edusched/alloc-api/internal/models"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
)

type rosterTeacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

type rosterCourseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

var weekdayNames = map[string]bool{
	"MONDAY":    true,
	"TUESDAY":   true,
	"WEDNESDAY": true,
	"THURSDAY":  true,
	"FRIDAY":    true,
	"SATURDAY":  true,
	"SUNDAY":    true,
}

// RosterService manages the teacher and course registries the engine
// evaluates against.
type RosterService struct {
	teachers  rosterTeacherRepository
	courses   rosterCourseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs a RosterService.
func NewRosterService(teachers rosterTeacherRepository, courses rosterCourseRepository, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{teachers: teachers, courses: courses, validator: validate, logger: logger}
}

// ListTeachers returns teachers with paging metadata.
func (s *RosterService) ListTeachers(ctx context.Context, query dto.ListQuery) ([]models.Teacher, *models.Pagination, error) {
	filter := models.TeacherFilter{Search: query.Search, Page: query.Page, PageSize: query.PageSize}
	teachers, total, err := s.teachers.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, pagination(query, total), nil
}

// GetTeacher fetches one teacher.
func (s *RosterService) GetTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get teacher")
	}
	return teacher, nil
}

// CreateTeacher validates and stores a teacher.
func (s *RosterService) CreateTeacher(ctx context.Context, req dto.CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	hours, err := workingHoursFromPayload(req.WorkingHours)
	if err != nil {
		return nil, err
	}
	teacher := &models.Teacher{
		FullName:       req.FullName,
		Qualifications: req.Qualifications,
		WorkingHours:   hours,
	}
	if err := s.teachers.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// UpdateTeacher replaces the mutable teacher fields.
func (s *RosterService) UpdateTeacher(ctx context.Context, id string, req dto.UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher, err := s.GetTeacher(ctx, id)
	if err != nil {
		return nil, err
	}
	hours, err := workingHoursFromPayload(req.WorkingHours)
	if err != nil {
		return nil, err
	}
	teacher.FullName = req.FullName
	teacher.Qualifications = req.Qualifications
	teacher.WorkingHours = hours
	if err := s.teachers.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// DeleteTeacher removes a teacher.
func (s *RosterService) DeleteTeacher(ctx context.Context, id string) error {
	if _, err := s.GetTeacher(ctx, id); err != nil {
		return err
	}
	if err := s.teachers.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	return nil
}

// ListCourses returns courses with paging metadata.
func (s *RosterService) ListCourses(ctx context.Context, query dto.ListQuery) ([]models.Course, *models.Pagination, error) {
	filter := models.CourseFilter{Search: query.Search, Topic: query.Topic, Page: query.Page, PageSize: query.PageSize}
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, pagination(query, total), nil
}

// GetCourse fetches one course.
func (s *RosterService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get course")
	}
	return course, nil
}

// CreateCourse validates and stores a course.
func (s *RosterService) CreateCourse(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := courseFromPayload(req.Name, req.Topic, req.LessonsCount, req.LessonDurationMinutes, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// UpdateCourse replaces the mutable course fields.
func (s *RosterService) UpdateCourse(ctx context.Context, id string, req dto.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	existing, err := s.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := courseFromPayload(req.Name, req.Topic, req.LessonsCount, req.LessonDurationMinutes, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	existing.Name = updated.Name
	existing.Topic = updated.Topic
	existing.LessonsCount = updated.LessonsCount
	existing.LessonDurationMinutes = updated.LessonDurationMinutes
	existing.StartDate = updated.StartDate
	existing.EndDate = updated.EndDate
	if err := s.courses.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return existing, nil
}

// DeleteCourse removes a course.
func (s *RosterService) DeleteCourse(ctx context.Context, id string) error {
	if _, err := s.GetCourse(ctx, id); err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

func workingHoursFromPayload(payload map[string]dto.WorkingWindowPayload) (map[string]models.WorkingWindow, error) {
	hours := make(map[string]models.WorkingWindow, len(payload))
	for day, window := range payload {
		if !weekdayNames[day] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown weekday %q, expected uppercase weekday name", day))
		}
		start, err := time.Parse("15:04", window.Start)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start time %q for %s", window.Start, day))
		}
		end, err := time.Parse("15:04", window.End)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid end time %q for %s", window.End, day))
		}
		if !end.After(start) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("working window for %s must end after it starts", day))
		}
		hours[day] = models.WorkingWindow{Start: window.Start, End: window.End}
	}
	return hours, nil
}

func courseFromPayload(name, topic string, lessons, duration int, startDate, endDate string) (*models.Course, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start date %q", startDate))
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid end date %q", endDate))
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course end date precedes start date")
	}
	return &models.Course{
		Name:                  name,
		Topic:                 topic,
		LessonsCount:          lessons,
		LessonDurationMinutes: duration,
		StartDate:             start,
		EndDate:               end,
	}, nil
}

func pagination(query dto.ListQuery, total int) *models.Pagination {
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

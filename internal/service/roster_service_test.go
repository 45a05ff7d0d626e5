package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusched/alloc-api/internal/dto"
	"github.com/edusched/alloc-api/internal/models"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
)

type rosterTeacherRepoStub struct {
	teachers map[string]models.Teacher
}

func newRosterTeacherRepoStub() *rosterTeacherRepoStub {
	return &rosterTeacherRepoStub{teachers: make(map[string]models.Teacher)}
}

func (s *rosterTeacherRepoStub) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	result := make([]models.Teacher, 0, len(s.teachers))
	for _, t := range s.teachers {
		result = append(result, t)
	}
	return result, len(result), nil
}

func (s *rosterTeacherRepoStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if t, ok := s.teachers[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (s *rosterTeacherRepoStub) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = "t-generated"
	}
	s.teachers[teacher.ID] = *teacher
	return nil
}

func (s *rosterTeacherRepoStub) Update(ctx context.Context, teacher *models.Teacher) error {
	s.teachers[teacher.ID] = *teacher
	return nil
}

func (s *rosterTeacherRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.teachers, id)
	return nil
}

type rosterCourseRepoStub struct {
	courses map[string]models.Course
}

func newRosterCourseRepoStub() *rosterCourseRepoStub {
	return &rosterCourseRepoStub{courses: make(map[string]models.Course)}
}

func (s *rosterCourseRepoStub) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	result := make([]models.Course, 0, len(s.courses))
	for _, c := range s.courses {
		result = append(result, c)
	}
	return result, len(result), nil
}

func (s *rosterCourseRepoStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := s.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (s *rosterCourseRepoStub) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "c-generated"
	}
	s.courses[course.ID] = *course
	return nil
}

func (s *rosterCourseRepoStub) Update(ctx context.Context, course *models.Course) error {
	s.courses[course.ID] = *course
	return nil
}

func (s *rosterCourseRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.courses, id)
	return nil
}

func TestRosterServiceCreateTeacherValidatesWindows(t *testing.T) {
	svc := NewRosterService(newRosterTeacherRepoStub(), newRosterCourseRepoStub(), nil, nil)

	_, err := svc.CreateTeacher(context.Background(), dto.CreateTeacherRequest{
		FullName:       "Teacher A",
		Qualifications: []string{"Mathematics"},
		WorkingHours:   map[string]dto.WorkingWindowPayload{"monday": {Start: "08:00", End: "16:00"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CreateTeacher(context.Background(), dto.CreateTeacherRequest{
		FullName:       "Teacher A",
		Qualifications: []string{"Mathematics"},
		WorkingHours:   map[string]dto.WorkingWindowPayload{"MONDAY": {Start: "16:00", End: "08:00"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	teacher, err := svc.CreateTeacher(context.Background(), dto.CreateTeacherRequest{
		FullName:       "Teacher A",
		Qualifications: []string{"Mathematics"},
		WorkingHours:   map[string]dto.WorkingWindowPayload{"MONDAY": {Start: "08:00", End: "16:00"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, teacher.ID)
}

func TestRosterServiceCreateCourseValidatesDates(t *testing.T) {
	svc := NewRosterService(newRosterTeacherRepoStub(), newRosterCourseRepoStub(), nil, nil)

	_, err := svc.CreateCourse(context.Background(), dto.CreateCourseRequest{
		Name: "Algebra", Topic: "Mathematics", LessonsCount: 10, LessonDurationMinutes: 60,
		StartDate: "2025-12-19", EndDate: "2025-09-01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	course, err := svc.CreateCourse(context.Background(), dto.CreateCourseRequest{
		Name: "Algebra", Topic: "Mathematics", LessonsCount: 10, LessonDurationMinutes: 60,
		StartDate: "2025-09-01", EndDate: "2025-12-19",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", course.Topic)
}

func TestRosterServiceGetTeacherNotFound(t *testing.T) {
	svc := NewRosterService(newRosterTeacherRepoStub(), newRosterCourseRepoStub(), nil, nil)

	_, err := svc.GetTeacher(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusched/alloc-api/internal/dto"
	"github.com/edusched/alloc-api/internal/engine"
	"github.com/edusched/alloc-api/internal/models"
	"github.com/edusched/alloc-api/internal/repository"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
)

type teacherReaderStub struct {
	teachers []models.Teacher
}

func (s *teacherReaderStub) ListAll(ctx context.Context) ([]models.Teacher, error) {
	return s.teachers, nil
}

type courseReaderStub struct {
	courses []models.Course
}

func (s *courseReaderStub) ListAll(ctx context.Context) ([]models.Course, error) {
	return s.courses, nil
}

type assignmentRepoStub struct {
	assignments []models.Assignment
}

func (s *assignmentRepoStub) ListAll(ctx context.Context) ([]models.Assignment, error) {
	return s.assignments, nil
}

func (s *assignmentRepoStub) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	return s.assignments, len(s.assignments), nil
}

func (s *assignmentRepoStub) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	for i := range s.assignments {
		if s.assignments[i].ID == id {
			return &s.assignments[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *assignmentRepoStub) Create(ctx context.Context, assignment *models.Assignment) error {
	s.assignments = append(s.assignments, *assignment)
	return nil
}

func (s *assignmentRepoStub) Update(ctx context.Context, assignment *models.Assignment) error {
	for i := range s.assignments {
		if s.assignments[i].ID == assignment.ID {
			s.assignments[i] = *assignment
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *assignmentRepoStub) UpdateStatus(ctx context.Context, id string, status models.AssignmentStatus) error {
	for i := range s.assignments {
		if s.assignments[i].ID == id {
			s.assignments[i].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

type profileResolverStub struct {
	byID       map[string]models.WeightProfile
	defaultOne *models.WeightProfile
}

func (s *profileResolverStub) Get(ctx context.Context, id string) (*models.WeightProfile, error) {
	if p, ok := s.byID[id]; ok {
		return &p, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "weight profile not found")
}

func (s *profileResolverStub) Default(ctx context.Context) (*models.WeightProfile, bool, error) {
	if s.defaultOne == nil {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "no default weight profile configured")
	}
	return s.defaultOne, false, nil
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (s *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	return nil
}

func (s *memoryCacheRepo) Delete(ctx context.Context, key string) error {
	delete(s.entries, key)
	return nil
}

func (s *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	return nil
}

func testTeacher(id, topic string) models.Teacher {
	return models.Teacher{
		ID:             id,
		FullName:       "Teacher " + id,
		Qualifications: []string{topic},
		WorkingHours: map[string]models.WorkingWindow{
			"MONDAY": {Start: "08:00", End: "16:00"},
		},
	}
}

func testCourse(id, topic string, lessons int) models.Course {
	return models.Course{
		ID:                    id,
		Name:                  "Course " + id,
		Topic:                 topic,
		LessonsCount:          lessons,
		LessonDurationMinutes: 60,
	}
}

func testSlots() []dto.TimeSlotPayload {
	return []dto.TimeSlotPayload{
		{Date: "2025-09-01", Start: "09:00", End: "10:00", DurationMinutes: 60},
	}
}

func newAllocationService(teachers *teacherReaderStub, courses *courseReaderStub, assignments *assignmentRepoStub, profiles *profileResolverStub, cfg AllocationConfig) *AllocationService {
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	return NewAllocationService(teachers, courses, assignments, profiles, engine.New(), cache, NewMetricsService(), nil, nil, cfg)
}

func TestAllocationServiceEvaluateUsesDefaultProfile(t *testing.T) {
	profile := models.WeightProfile{ID: "wp-1", Name: "Balanced", Equality: 50, Continuity: 40, Loyalty: 10, IsDefault: true}
	svc := newAllocationService(
		&teacherReaderStub{teachers: []models.Teacher{testTeacher("t-1", "Mathematics")}},
		&courseReaderStub{courses: []models.Course{testCourse("c-1", "Mathematics", 1)}},
		&assignmentRepoStub{},
		&profileResolverStub{defaultOne: &profile},
		AllocationConfig{},
	)

	result, err := svc.Evaluate(context.Background(), dto.EvaluateAssignmentRequest{
		Candidate: dto.CandidateAssignmentRequest{TeacherID: "t-1", CourseID: "c-1", Slots: testSlots()},
	})
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	require.NotNil(t, result.Score)
	assert.InDelta(t, 0.9, *result.Score, 1e-9)
	assert.Empty(t, result.ConflictsIntroduced)
}

func TestAllocationServiceEvaluateWithoutDefaultProfileFails(t *testing.T) {
	svc := newAllocationService(
		&teacherReaderStub{teachers: []models.Teacher{testTeacher("t-1", "Mathematics")}},
		&courseReaderStub{courses: []models.Course{testCourse("c-1", "Mathematics", 1)}},
		&assignmentRepoStub{},
		&profileResolverStub{},
		AllocationConfig{},
	)

	_, err := svc.Evaluate(context.Background(), dto.EvaluateAssignmentRequest{
		Candidate: dto.CandidateAssignmentRequest{TeacherID: "t-1", CourseID: "c-1", Slots: testSlots()},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAllocationServiceScoreWithExplicitProfile(t *testing.T) {
	svc := newAllocationService(
		&teacherReaderStub{teachers: []models.Teacher{testTeacher("t-1", "Mathematics")}},
		&courseReaderStub{courses: []models.Course{testCourse("c-1", "Mathematics", 1)}},
		&assignmentRepoStub{},
		&profileResolverStub{byID: map[string]models.WeightProfile{
			"wp-x": {ID: "wp-x", Equality: 100, Continuity: 0, Loyalty: 0},
		}},
		AllocationConfig{},
	)

	resp, err := svc.Score(context.Background(), dto.ScoreAssignmentRequest{
		Candidate:       dto.CandidateAssignmentRequest{TeacherID: "t-1", CourseID: "c-1", Slots: testSlots()},
		WeightProfileID: "wp-x",
	})
	require.NoError(t, err)
	assert.Equal(t, "wp-x", resp.WeightProfileID)
	assert.InDelta(t, 1.0, resp.Score, 1e-9)
}

func TestAllocationServiceConflictsFiltersByType(t *testing.T) {
	svc := newAllocationService(
		&teacherReaderStub{teachers: []models.Teacher{testTeacher("t-1", "Mathematics")}},
		&courseReaderStub{courses: []models.Course{
			testCourse("c-1", "Physics", 1),
			testCourse("c-2", "Chemistry", 1),
		}},
		&assignmentRepoStub{assignments: []models.Assignment{
			{
				ID: "a-1", TeacherID: "t-1", CourseID: "c-1", Status: models.AssignmentStatusActive,
				Slots: []models.TimeSlot{{Date: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), Start: "09:00", End: "10:00", DurationMinutes: 60}},
			},
		}},
		&profileResolverStub{},
		AllocationConfig{},
	)

	resp, err := svc.Conflicts(context.Background(), dto.ConflictQuery{Type: string(models.ConflictQualificationMismatch)})
	require.NoError(t, err)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, models.ConflictQualificationMismatch, resp.Conflicts[0].Type)
	assert.Equal(t, 1, resp.Summary.HighCount)
	// c-2's coverage gap is filtered out of both list and summary.
	assert.Zero(t, resp.Summary.LowCount)
}

func TestAllocationServiceExportDisabled(t *testing.T) {
	svc := newAllocationService(&teacherReaderStub{}, &courseReaderStub{}, &assignmentRepoStub{}, &profileResolverStub{}, AllocationConfig{})

	_, _, err := svc.ExportConflicts(context.Background(), "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAllocationServiceExportCSV(t *testing.T) {
	svc := newAllocationService(
		&teacherReaderStub{teachers: []models.Teacher{testTeacher("t-1", "Mathematics")}},
		&courseReaderStub{courses: []models.Course{testCourse("c-1", "Physics", 1)}},
		&assignmentRepoStub{assignments: []models.Assignment{
			{
				ID: "a-1", TeacherID: "t-1", CourseID: "c-1", Status: models.AssignmentStatusActive,
				Slots: []models.TimeSlot{{Date: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), Start: "09:00", End: "10:00", DurationMinutes: 60}},
			},
		}},
		&profileResolverStub{},
		AllocationConfig{ExportEnabled: true},
	)

	payload, contentType, err := svc.ExportConflicts(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	body := string(payload)
	assert.Contains(t, body, "Type,Severity,Teacher,Course,Assignments,Description")
	assert.Contains(t, body, string(models.ConflictQualificationMismatch))
}

func TestAllocationServiceAuditLifecycle(t *testing.T) {
	svc := newAllocationService(
		&teacherReaderStub{teachers: []models.Teacher{testTeacher("t-1", "Mathematics")}},
		&courseReaderStub{courses: []models.Course{testCourse("c-1", "Physics", 1)}},
		&assignmentRepoStub{assignments: []models.Assignment{
			{
				ID: "a-1", TeacherID: "t-1", CourseID: "c-1", Status: models.AssignmentStatusActive,
				Slots: []models.TimeSlot{{Date: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), Start: "09:00", End: "10:00", DurationMinutes: 60}},
			},
		}},
		&profileResolverStub{},
		AllocationConfig{AuditEnabled: true, AuditResultTTL: time.Minute, WorkerConcurrency: 1},
	)
	svc.StartAudits(context.Background())
	defer svc.StopAudits()

	ack, err := svc.RequestAudit(context.Background(), &models.JWTClaims{UserID: "coordinator-1", Role: models.RoleCoordinator})
	require.NoError(t, err)
	assert.Equal(t, string(models.AuditStatusPending), ack.Status)

	require.Eventually(t, func() bool {
		report, err := svc.GetAudit(context.Background(), ack.AuditID)
		return err == nil && report.Status == models.AuditStatusCompleted
	}, 2*time.Second, 20*time.Millisecond)

	report, err := svc.GetAudit(context.Background(), ack.AuditID)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Conflicts)
	assert.Positive(t, report.Summary.TotalScore)
	assert.Equal(t, "coordinator-1", report.RequestedBy)
}

func TestAllocationServiceAuditDisabled(t *testing.T) {
	svc := newAllocationService(&teacherReaderStub{}, &courseReaderStub{}, &assignmentRepoStub{}, &profileResolverStub{}, AllocationConfig{})

	_, err := svc.RequestAudit(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAllocationServiceCreateAssignmentRejectsMalformedSlot(t *testing.T) {
	svc := newAllocationService(
		&teacherReaderStub{teachers: []models.Teacher{testTeacher("t-1", "Mathematics")}},
		&courseReaderStub{courses: []models.Course{testCourse("c-1", "Mathematics", 1)}},
		&assignmentRepoStub{},
		&profileResolverStub{},
		AllocationConfig{},
	)

	_, err := svc.CreateAssignment(context.Background(), dto.CandidateAssignmentRequest{
		TeacherID: "t-1",
		CourseID:  "c-1",
		Slots:     []dto.TimeSlotPayload{{Date: "2025-09-01", Start: "10:00", End: "09:00", DurationMinutes: 60}},
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrMalformedTimeSlot))
}

func TestAllocationServiceUpdateAssignmentReplacesSlots(t *testing.T) {
	repo := &assignmentRepoStub{assignments: []models.Assignment{
		{
			ID: "a-1", TeacherID: "t-1", CourseID: "c-1", Status: models.AssignmentStatusActive,
			Slots: []models.TimeSlot{{Date: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), Start: "09:00", End: "10:00", DurationMinutes: 60}},
		},
	}}
	svc := newAllocationService(
		&teacherReaderStub{teachers: []models.Teacher{testTeacher("t-1", "Mathematics")}},
		&courseReaderStub{courses: []models.Course{testCourse("c-1", "Mathematics", 1)}},
		repo,
		&profileResolverStub{},
		AllocationConfig{},
	)

	updated, err := svc.UpdateAssignment(context.Background(), "a-1", dto.CandidateAssignmentRequest{
		TeacherID: "t-1",
		CourseID:  "c-1",
		Slots:     []dto.TimeSlotPayload{{Date: "2025-09-02", Start: "11:00", End: "12:00", DurationMinutes: 60}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusActive, updated.Status)
	require.Len(t, updated.Slots, 1)
	assert.Equal(t, "11:00", updated.Slots[0].Start)

	_, err = svc.UpdateAssignment(context.Background(), "missing", dto.CandidateAssignmentRequest{
		TeacherID: "t-1", CourseID: "c-1", Slots: testSlots(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAllocationServiceUpdateAssignmentStatus(t *testing.T) {
	repo := &assignmentRepoStub{assignments: []models.Assignment{
		{ID: "a-1", TeacherID: "t-1", CourseID: "c-1", Status: models.AssignmentStatusActive},
	}}
	svc := newAllocationService(&teacherReaderStub{}, &courseReaderStub{}, repo, &profileResolverStub{}, AllocationConfig{})

	updated, err := svc.UpdateAssignmentStatus(context.Background(), "a-1", models.AssignmentStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusCancelled, updated.Status)

	_, err = svc.UpdateAssignmentStatus(context.Background(), "a-1", models.AssignmentStatus("archived"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAllocationServiceAssignmentWriteInvalidatesAudits(t *testing.T) {
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewAllocationService(
		&teacherReaderStub{teachers: []models.Teacher{testTeacher("t-1", "Mathematics")}},
		&courseReaderStub{courses: []models.Course{testCourse("c-1", "Mathematics", 1)}},
		&assignmentRepoStub{},
		&profileResolverStub{},
		engine.New(), cache, NewMetricsService(), nil, nil, AllocationConfig{},
	)

	auditKey := repository.AuditReportCacheKey("audit-1")
	require.NoError(t, cache.Set(context.Background(), auditKey, models.AuditReport{ID: "audit-1"}, time.Minute))

	_, err := svc.CreateAssignment(context.Background(), dto.CandidateAssignmentRequest{
		TeacherID: "t-1", CourseID: "c-1", Slots: testSlots(),
	})
	require.NoError(t, err)

	_, ok := cacheRepo.entries[auditKey]
	assert.False(t, ok, "stored audit reports should be dropped after a roster write")
}

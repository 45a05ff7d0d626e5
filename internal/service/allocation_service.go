package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edusched/alloc-api/internal/dto"
	"github.com/edusched/alloc-api/internal/engine"
	"github.com/edusched/alloc-api/internal/models"
	"github.com/edusched/alloc-api/internal/repository"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
	"github.com/edusched/alloc-api/pkg/export"
	"github.com/edusched/alloc-api/pkg/jobs"
)

type allocationTeacherReader interface {
	ListAll(ctx context.Context) ([]models.Teacher, error)
}

type allocationCourseReader interface {
	ListAll(ctx context.Context) ([]models.Course, error)
}

type allocationAssignmentRepository interface {
	ListAll(ctx context.Context) ([]models.Assignment, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	UpdateStatus(ctx context.Context, id string, status models.AssignmentStatus) error
}

type profileResolver interface {
	Get(ctx context.Context, id string) (*models.WeightProfile, error)
	Default(ctx context.Context) (*models.WeightProfile, bool, error)
}

// AllocationConfig tunes orchestrator behaviour.
type AllocationConfig struct {
	ExportEnabled     bool
	AuditEnabled      bool
	AuditResultTTL    time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// AllocationService is the orchestrator around the pure engine. It assembles
// snapshots from persistence, serializes evaluation sessions so each candidate
// is judged against a stable snapshot, and owns the derived-data side channels
// (exports, async audits).
type AllocationService struct {
	teachers    allocationTeacherReader
	courses     allocationCourseReader
	assignments allocationAssignmentRepository
	profiles    profileResolver
	eng         *engine.Engine
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         AllocationConfig

	// One evaluation at a time. Concurrent read-only requests are fine; this
	// guard only covers the snapshot-then-judge window.
	evalMu sync.Mutex

	auditQueue *jobs.Queue
}

// NewAllocationService constructs an AllocationService and its audit queue.
func NewAllocationService(
	teachers allocationTeacherReader,
	courses allocationCourseReader,
	assignments allocationAssignmentRepository,
	profiles profileResolver,
	eng *engine.Engine,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AllocationConfig,
) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AuditResultTTL <= 0 {
		cfg.AuditResultTTL = time.Hour
	}
	s := &AllocationService{
		teachers:    teachers,
		courses:     courses,
		assignments: assignments,
		profiles:    profiles,
		eng:         eng,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
	s.auditQueue = jobs.NewQueue("conflict-audit", s.handleAuditJob, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// StartAudits begins the background audit workers.
func (s *AllocationService) StartAudits(ctx context.Context) {
	if s.cfg.AuditEnabled {
		s.auditQueue.Start(ctx)
	}
}

// StopAudits drains the background audit workers.
func (s *AllocationService) StopAudits() {
	if s.cfg.AuditEnabled {
		s.auditQueue.Stop()
	}
}

// Evaluate judges one candidate assignment against the current roster under a
// single evaluation session.
func (s *AllocationService) Evaluate(ctx context.Context, req dto.EvaluateAssignmentRequest) (*models.EvaluationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluate payload")
	}

	s.evalMu.Lock()
	defer s.evalMu.Unlock()

	snapshot, err := s.snapshot(ctx, req.WeightProfileID)
	if err != nil {
		return nil, err
	}
	candidate := req.Candidate.ToModel()
	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}

	start := time.Now()
	result, err := s.eng.EvaluateCandidate(candidate, snapshot)
	if err != nil {
		s.metrics.ObserveEvaluation("error", time.Since(start))
		return nil, err
	}
	outcome := "rejected"
	if result.Accepted {
		outcome = "accepted"
	}
	s.metrics.ObserveEvaluation(outcome, time.Since(start))
	s.logger.Info("candidate evaluated",
		zap.String("teacher_id", candidate.TeacherID),
		zap.String("course_id", candidate.CourseID),
		zap.Bool("accepted", result.Accepted),
		zap.Int("conflicts_introduced", len(result.ConflictsIntroduced)))
	return &result, nil
}

// Score computes the quality score of a candidate without the verdict.
func (s *AllocationService) Score(ctx context.Context, req dto.ScoreAssignmentRequest) (*dto.ScoreResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}

	snapshot, err := s.snapshot(ctx, req.WeightProfileID)
	if err != nil {
		return nil, err
	}
	candidate := req.Candidate.ToModel()
	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}

	teacher, err := findTeacher(snapshot.Teachers, candidate.TeacherID)
	if err != nil {
		return nil, err
	}
	course, err := findCourse(snapshot.Courses, candidate.CourseID)
	if err != nil {
		return nil, err
	}

	score, err := s.eng.ScoreAssignment(candidate, teacher, course, snapshot.Assignments, snapshot.Teachers, snapshot.Courses, snapshot.Weights)
	if err != nil {
		return nil, err
	}
	return &dto.ScoreResponse{Score: score, WeightProfileID: snapshot.Weights.ID}, nil
}

// Conflicts detects conflicts across the stored roster, optionally filtered.
func (s *AllocationService) Conflicts(ctx context.Context, query dto.ConflictQuery) (*dto.ConflictListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict query")
	}
	conflicts, err := s.detect(ctx)
	if err != nil {
		return nil, err
	}
	filtered := filterConflicts(conflicts, query)
	return &dto.ConflictListResponse{
		Conflicts: filtered,
		Summary:   s.eng.AggregateSeverity(filtered),
	}, nil
}

// Aggregate reduces the current conflict set to its severity report.
func (s *AllocationService) Aggregate(ctx context.Context, query dto.ConflictQuery) (*models.SeverityReport, error) {
	resp, err := s.Conflicts(ctx, query)
	if err != nil {
		return nil, err
	}
	return &resp.Summary, nil
}

// ExportConflicts renders the current conflict report in the requested format
// and returns the payload with its content type.
func (s *AllocationService) ExportConflicts(ctx context.Context, format string) ([]byte, string, error) {
	if !s.cfg.ExportEnabled {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "conflict exports are disabled")
	}

	conflicts, err := s.detect(ctx)
	if err != nil {
		return nil, "", err
	}
	summary := s.eng.AggregateSeverity(conflicts)
	table := conflictTable(conflicts, summary)

	switch strings.ToLower(format) {
	case "csv", "":
		payload, err := export.CSV(table)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := export.PDF(table)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// RequestAudit schedules a full-roster conflict audit on the worker queue.
// actor may be nil; it only annotates the report.
func (s *AllocationService) RequestAudit(ctx context.Context, actor *models.JWTClaims) (*dto.AuditRequestedResponse, error) {
	if !s.cfg.AuditEnabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "conflict audits are disabled")
	}

	report := models.AuditReport{
		ID:          uuid.NewString(),
		Status:      models.AuditStatusPending,
		RequestedAt: time.Now().UTC(),
	}
	if actor != nil {
		report.RequestedBy = actor.UserID
	}
	if err := s.cache.Set(ctx, repository.AuditReportCacheKey(report.ID), report, s.cfg.AuditResultTTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record audit request")
	}
	if err := s.auditQueue.Enqueue(jobs.Job{ID: report.ID, Type: "conflict-audit"}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue audit")
	}
	return &dto.AuditRequestedResponse{
		AuditID:     report.ID,
		Status:      string(report.Status),
		RequestedAt: report.RequestedAt,
	}, nil
}

// GetAudit fetches a cached audit report by ID.
func (s *AllocationService) GetAudit(ctx context.Context, id string) (*models.AuditReport, error) {
	var report models.AuditReport
	hit, err := s.cache.Get(ctx, repository.AuditReportCacheKey(id), &report)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit report")
	}
	if !hit {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "audit report not found or expired")
	}
	return &report, nil
}

// ListAssignments returns stored assignments with paging metadata.
func (s *AllocationService) ListAssignments(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, *models.Pagination, error) {
	assignments, total, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return assignments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// CreateAssignment stores a new assignment after checking its slots and
// references against the current roster. Conflicts do not block creation;
// callers evaluate first when they want the verdict.
func (s *AllocationService) CreateAssignment(ctx context.Context, req dto.CandidateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	assignment := req.ToModel()

	snapshot, err := s.snapshotWithoutWeights(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := findTeacher(snapshot.Teachers, assignment.TeacherID); err != nil {
		return nil, err
	}
	if _, err := findCourse(snapshot.Courses, assignment.CourseID); err != nil {
		return nil, err
	}
	probe := append(snapshot.Assignments, assignment)
	if _, err := s.eng.DetectConflicts(probe, snapshot.Teachers, snapshot.Courses); err != nil {
		// Surfaces malformed slots before anything is written.
		return nil, err
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	s.invalidateAudits(ctx)
	return &assignment, nil
}

// UpdateAssignment replaces an assignment's linkage and slots, re-running the
// same reference and slot checks as creation.
func (s *AllocationService) UpdateAssignment(ctx context.Context, id string, req dto.CandidateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	existing, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	updated := req.ToModel()
	updated.ID = existing.ID
	updated.Status = existing.Status
	updated.Rationale = existing.Rationale
	updated.CreatedAt = existing.CreatedAt

	snapshot, err := s.snapshotWithoutWeights(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := findTeacher(snapshot.Teachers, updated.TeacherID); err != nil {
		return nil, err
	}
	if _, err := findCourse(snapshot.Courses, updated.CourseID); err != nil {
		return nil, err
	}
	probe := make([]models.Assignment, 0, len(snapshot.Assignments)+1)
	for _, a := range snapshot.Assignments {
		if a.ID != updated.ID {
			probe = append(probe, a)
		}
	}
	probe = append(probe, updated)
	if _, err := s.eng.DetectConflicts(probe, snapshot.Teachers, snapshot.Courses); err != nil {
		return nil, err
	}

	if err := s.assignments.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	s.invalidateAudits(ctx)
	return &updated, nil
}

// UpdateAssignmentStatus transitions an assignment's lifecycle state.
func (s *AllocationService) UpdateAssignmentStatus(ctx context.Context, id string, status models.AssignmentStatus) (*models.Assignment, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown assignment status %q", status))
	}
	if _, err := s.assignments.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err := s.assignments.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment status")
	}
	updated, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload assignment")
	}
	s.invalidateAudits(ctx)
	return updated, nil
}

// invalidateAudits drops cached audit reports after a roster mutation. Stored
// audits describe the roster at detection time, so a write makes them stale.
// Best effort; a failed invalidation only means reports age out via TTL.
func (s *AllocationService) invalidateAudits(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, repository.AuditReportKeyPattern); err != nil {
		s.logger.Warn("failed to invalidate cached audit reports", zap.Error(err))
	}
}

func (s *AllocationService) detect(ctx context.Context) ([]models.Conflict, error) {
	snapshot, err := s.snapshotWithoutWeights(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	conflicts, err := s.eng.DetectConflicts(snapshot.Assignments, snapshot.Teachers, snapshot.Courses)
	if err != nil {
		return nil, err
	}
	byType := make(map[models.ConflictType]int)
	for _, c := range conflicts {
		byType[c.Type]++
	}
	s.metrics.ObserveConflictDetection(time.Since(start), byType)
	return conflicts, nil
}

// snapshot loads the full roster plus the requested (or default) profile.
func (s *AllocationService) snapshot(ctx context.Context, profileID string) (models.Snapshot, error) {
	snapshot, err := s.snapshotWithoutWeights(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}

	var profile *models.WeightProfile
	if profileID != "" {
		profile, err = s.profiles.Get(ctx, profileID)
	} else {
		profile, _, err = s.profiles.Default(ctx)
	}
	if err != nil {
		return models.Snapshot{}, err
	}
	snapshot.Weights = *profile
	return snapshot, nil
}

func (s *AllocationService) snapshotWithoutWeights(ctx context.Context) (models.Snapshot, error) {
	teachers, err := s.teachers.ListAll(ctx)
	if err != nil {
		return models.Snapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return models.Snapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return models.Snapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	return models.Snapshot{Teachers: teachers, Courses: courses, Assignments: assignments}, nil
}

func (s *AllocationService) handleAuditJob(ctx context.Context, job jobs.Job) error {
	report, err := s.GetAudit(ctx, job.ID)
	if err != nil {
		report = &models.AuditReport{ID: job.ID, Status: models.AuditStatusPending, RequestedAt: job.Enqueued}
	}

	conflicts, err := s.detect(ctx)
	now := time.Now().UTC()
	report.CompletedAt = &now
	if err != nil {
		report.Status = models.AuditStatusFailed
		report.Error = appErrors.FromError(err).Message
	} else {
		report.Status = models.AuditStatusCompleted
		report.Conflicts = conflicts
		report.Summary = s.eng.AggregateSeverity(conflicts)
	}

	if cacheErr := s.cache.Set(ctx, repository.AuditReportCacheKey(job.ID), report, s.cfg.AuditResultTTL); cacheErr != nil {
		return fmt.Errorf("store audit report %s: %w", job.ID, cacheErr)
	}
	s.logger.Info("conflict audit completed",
		zap.String("audit_id", job.ID),
		zap.String("status", string(report.Status)),
		zap.Int("conflicts", len(report.Conflicts)))
	return err
}

func findTeacher(teachers []models.Teacher, id string) (models.Teacher, error) {
	for _, t := range teachers {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Teacher{}, appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("unknown teacher %s", id))
}

func findCourse(courses []models.Course, id string) (models.Course, error) {
	for _, c := range courses {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Course{}, appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("unknown course %s", id))
}

func filterConflicts(conflicts []models.Conflict, query dto.ConflictQuery) []models.Conflict {
	filtered := make([]models.Conflict, 0, len(conflicts))
	for _, c := range conflicts {
		if query.Type != "" && string(c.Type) != query.Type {
			continue
		}
		if query.TeacherID != "" && c.TeacherID != query.TeacherID {
			continue
		}
		if query.CourseID != "" && c.CourseID != query.CourseID {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

func conflictTable(conflicts []models.Conflict, summary models.SeverityReport) export.Table {
	rows := make([][]string, 0, len(conflicts))
	for _, c := range conflicts {
		rows = append(rows, []string{
			string(c.Type),
			string(c.Severity),
			c.TeacherID,
			c.CourseID,
			strings.Join(c.AssignmentIDs, " "),
			c.Description,
		})
	}

	types := make([]string, 0, len(summary.ByType))
	for kind := range summary.ByType {
		types = append(types, string(kind))
	}
	sort.Strings(types)
	parts := make([]string, 0, len(types))
	for _, kind := range types {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, summary.ByType[models.ConflictType(kind)]))
	}

	return export.Table{
		Title:   "Conflict Report",
		Headers: []string{"Type", "Severity", "Teacher", "Course", "Assignments", "Description"},
		Rows:    rows,
		Footer: []string{
			fmt.Sprintf("Total severity score: %s", strconv.FormatFloat(summary.TotalScore, 'f', -1, 64)),
			fmt.Sprintf("High: %d  Medium: %d  Low: %d", summary.HighCount, summary.MediumCount, summary.LowCount),
			strings.Join(parts, ", "),
		},
	}
}

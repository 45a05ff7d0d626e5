package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edusched/alloc-api/internal/dto"
	"github.com/edusched/alloc-api/internal/models"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
	"github.com/edusched/alloc-api/pkg/response"
)

type allocationService interface {
	Evaluate(ctx context.Context, req dto.EvaluateAssignmentRequest) (*models.EvaluationResult, error)
	Score(ctx context.Context, req dto.ScoreAssignmentRequest) (*dto.ScoreResponse, error)
	Conflicts(ctx context.Context, query dto.ConflictQuery) (*dto.ConflictListResponse, error)
	Aggregate(ctx context.Context, query dto.ConflictQuery) (*models.SeverityReport, error)
	ExportConflicts(ctx context.Context, format string) ([]byte, string, error)
	RequestAudit(ctx context.Context, actor *models.JWTClaims) (*dto.AuditRequestedResponse, error)
	GetAudit(ctx context.Context, id string) (*models.AuditReport, error)
	ListAssignments(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, *models.Pagination, error)
	CreateAssignment(ctx context.Context, req dto.CandidateAssignmentRequest) (*models.Assignment, error)
	UpdateAssignment(ctx context.Context, id string, req dto.CandidateAssignmentRequest) (*models.Assignment, error)
	UpdateAssignmentStatus(ctx context.Context, id string, status models.AssignmentStatus) (*models.Assignment, error)
}

// AllocationHandler exposes evaluation, conflict and assignment endpoints.
type AllocationHandler struct {
	service allocationService
}

// NewAllocationHandler builds a new handler.
func NewAllocationHandler(service allocationService) *AllocationHandler {
	return &AllocationHandler{service: service}
}

// Evaluate godoc
// @Summary Evaluate a candidate assignment
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body dto.EvaluateAssignmentRequest true "Candidate payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/evaluate [post]
func (h *AllocationHandler) Evaluate(c *gin.Context) {
	var req dto.EvaluateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evaluate payload"))
		return
	}
	result, err := h.service.Evaluate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Score godoc
// @Summary Score a candidate assignment
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body dto.ScoreAssignmentRequest true "Candidate payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/score [post]
func (h *AllocationHandler) Score(c *gin.Context) {
	var req dto.ScoreAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}
	result, err := h.service.Score(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Conflicts godoc
// @Summary List detected conflicts
// @Tags Conflicts
// @Produce json
// @Param type query string false "Conflict type filter"
// @Param teacher_id query string false "Teacher filter"
// @Param course_id query string false "Course filter"
// @Success 200 {object} response.Envelope
// @Router /conflicts [get]
func (h *AllocationHandler) Conflicts(c *gin.Context) {
	var query dto.ConflictQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict query"))
		return
	}
	result, err := h.service.Conflicts(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Aggregate godoc
// @Summary Aggregate conflict severity
// @Tags Conflicts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /conflicts/aggregate [get]
func (h *AllocationHandler) Aggregate(c *gin.Context) {
	var query dto.ConflictQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict query"))
		return
	}
	report, err := h.service.Aggregate(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Export the conflict report
// @Tags Conflicts
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} byte
// @Router /conflicts/export [get]
func (h *AllocationHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.service.ExportConflicts(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("conflict-report-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// RequestAudit godoc
// @Summary Request an asynchronous roster audit
// @Tags Conflicts
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /conflicts/audit [post]
func (h *AllocationHandler) RequestAudit(c *gin.Context) {
	ack, err := h.service.RequestAudit(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, ack, nil)
}

// GetAudit godoc
// @Summary Fetch an audit report
// @Tags Conflicts
// @Produce json
// @Param id path string true "Audit ID"
// @Success 200 {object} response.Envelope
// @Router /conflicts/audit/{id} [get]
func (h *AllocationHandler) GetAudit(c *gin.Context) {
	report, err := h.service.GetAudit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ListAssignments godoc
// @Summary List assignments
// @Tags Assignments
// @Produce json
// @Param teacher_id query string false "Teacher filter"
// @Param course_id query string false "Course filter"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AllocationHandler) ListAssignments(c *gin.Context) {
	filter := models.AssignmentFilter{
		TeacherID: c.Query("teacher_id"),
		CourseID:  c.Query("course_id"),
		Status:    models.AssignmentStatus(c.Query("status")),
	}
	filter.Page, filter.PageSize = pageParams(c)
	assignments, pagination, err := h.service.ListAssignments(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, pagination)
}

// CreateAssignment godoc
// @Summary Create an assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CandidateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AllocationHandler) CreateAssignment(c *gin.Context) {
	var req dto.CandidateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	assignment, err := h.service.CreateAssignment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// UpdateAssignment godoc
// @Summary Replace an assignment's linkage and slots
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.CandidateAssignmentRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [put]
func (h *AllocationHandler) UpdateAssignment(c *gin.Context) {
	var req dto.CandidateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	assignment, err := h.service.UpdateAssignment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// UpdateAssignmentStatus godoc
// @Summary Transition an assignment status
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.UpdateAssignmentStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/status [patch]
func (h *AllocationHandler) UpdateAssignmentStatus(c *gin.Context) {
	var req dto.UpdateAssignmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	assignment, err := h.service.UpdateAssignmentStatus(c.Request.Context(), c.Param("id"), models.AssignmentStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

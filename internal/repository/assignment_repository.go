package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/edusched/alloc-api/internal/models"
)

// assignmentRow mirrors the assignments table. Slots live in a JSON column and
// are decoded at this boundary.
type assignmentRow struct {
	ID        string         `db:"id"`
	TeacherID string         `db:"teacher_id"`
	CourseID  string         `db:"course_id"`
	Status    string         `db:"status"`
	Slots     types.JSONText `db:"slots"`
	Rationale *string        `db:"rationale"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (row assignmentRow) toModel() (models.Assignment, error) {
	assignment := models.Assignment{
		ID:        row.ID,
		TeacherID: row.TeacherID,
		CourseID:  row.CourseID,
		Status:    models.AssignmentStatus(row.Status),
		Rationale: row.Rationale,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if len(row.Slots) > 0 {
		if err := json.Unmarshal(row.Slots, &assignment.Slots); err != nil {
			return models.Assignment{}, fmt.Errorf("decode slots for assignment %s: %w", row.ID, err)
		}
	}
	return assignment, nil
}

func assignmentToRow(assignment *models.Assignment) (assignmentRow, error) {
	slots, err := json.Marshal(assignment.Slots)
	if err != nil {
		return assignmentRow{}, fmt.Errorf("encode slots: %w", err)
	}
	return assignmentRow{
		ID:        assignment.ID,
		TeacherID: assignment.TeacherID,
		CourseID:  assignment.CourseID,
		Status:    string(assignment.Status),
		Slots:     types.JSONText(slots),
		Rationale: assignment.Rationale,
		CreatedAt: assignment.CreatedAt,
		UpdatedAt: assignment.UpdatedAt,
	}, nil
}

// AssignmentRepository manages persistence for teacher-course assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = "id, teacher_id, course_id, status, slots, rationale, created_at, updated_at"

// List returns assignments matching filters along with total count.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	base := "FROM assignments WHERE 1=1"
	var args []interface{}

	if filter.TeacherID != "" {
		base += fmt.Sprintf(" AND teacher_id = $%d", len(args)+1)
		args = append(args, filter.TeacherID)
	}
	if filter.CourseID != "" {
		base += fmt.Sprintf(" AND course_id = $%d", len(args)+1)
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		base += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, string(filter.Status))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", assignmentColumns, base, size, offset)
	var rows []assignmentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}

	assignments := make([]models.Assignment, 0, len(rows))
	for _, row := range rows {
		assignment, err := row.toModel()
		if err != nil {
			return nil, 0, err
		}
		assignments = append(assignments, assignment)
	}
	return assignments, total, nil
}

// ListAll returns every assignment without paging, for snapshot assembly.
func (r *AssignmentRepository) ListAll(ctx context.Context) ([]models.Assignment, error) {
	query := fmt.Sprintf("SELECT %s FROM assignments ORDER BY id", assignmentColumns)
	var rows []assignmentRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list all assignments: %w", err)
	}
	assignments := make([]models.Assignment, 0, len(rows))
	for _, row := range rows {
		assignment, err := row.toModel()
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}

// FindByID fetches an assignment by ID.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := fmt.Sprintf("SELECT %s FROM assignments WHERE id = $1", assignmentColumns)
	var row assignmentRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	assignment, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Create inserts a new assignment record.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now

	row, err := assignmentToRow(assignment)
	if err != nil {
		return err
	}
	const query = `INSERT INTO assignments (id, teacher_id, course_id, status, slots, rationale, created_at, updated_at)
		VALUES (:id, :teacher_id, :course_id, :status, :slots, :rationale, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update modifies an existing assignment record.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	row, err := assignmentToRow(assignment)
	if err != nil {
		return err
	}
	const query = `UPDATE assignments SET teacher_id = :teacher_id, course_id = :course_id, status = :status, slots = :slots, rationale = :rationale, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return nil
}

// UpdateStatus transitions an assignment's lifecycle state.
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id string, status models.AssignmentStatus) error {
	const query = `UPDATE assignments SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, string(status), time.Now().UTC()); err != nil {
		return fmt.Errorf("update assignment status: %w", err)
	}
	return nil
}

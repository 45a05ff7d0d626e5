package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/edusched/alloc-api/internal/models"
)

// teacherRow mirrors the teachers table. Qualifications and working hours live
// in JSON columns and are decoded here so the rest of the codebase only sees
// typed models.
type teacherRow struct {
	ID             string         `db:"id"`
	FullName       string         `db:"full_name"`
	Qualifications types.JSONText `db:"qualifications"`
	WorkingHours   types.JSONText `db:"working_hours"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (row teacherRow) toModel() (models.Teacher, error) {
	teacher := models.Teacher{
		ID:        row.ID,
		FullName:  row.FullName,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if len(row.Qualifications) > 0 {
		if err := json.Unmarshal(row.Qualifications, &teacher.Qualifications); err != nil {
			return models.Teacher{}, fmt.Errorf("decode qualifications for teacher %s: %w", row.ID, err)
		}
	}
	if len(row.WorkingHours) > 0 {
		if err := json.Unmarshal(row.WorkingHours, &teacher.WorkingHours); err != nil {
			return models.Teacher{}, fmt.Errorf("decode working hours for teacher %s: %w", row.ID, err)
		}
	}
	return teacher, nil
}

func teacherToRow(teacher *models.Teacher) (teacherRow, error) {
	quals, err := json.Marshal(teacher.Qualifications)
	if err != nil {
		return teacherRow{}, fmt.Errorf("encode qualifications: %w", err)
	}
	hours, err := json.Marshal(teacher.WorkingHours)
	if err != nil {
		return teacherRow{}, fmt.Errorf("encode working hours: %w", err)
	}
	return teacherRow{
		ID:             teacher.ID,
		FullName:       teacher.FullName,
		Qualifications: types.JSONText(quals),
		WorkingHours:   types.JSONText(hours),
		CreatedAt:      teacher.CreatedAt,
		UpdatedAt:      teacher.UpdatedAt,
	}, nil
}

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching filters along with total count.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(full_name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT id, full_name, qualifications, working_hours, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var rows []teacherRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	teachers := make([]models.Teacher, 0, len(rows))
	for _, row := range rows {
		teacher, err := row.toModel()
		if err != nil {
			return nil, 0, err
		}
		teachers = append(teachers, teacher)
	}
	return teachers, total, nil
}

// ListAll returns every teacher without paging, for snapshot assembly.
func (r *TeacherRepository) ListAll(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, full_name, qualifications, working_hours, created_at, updated_at FROM teachers ORDER BY id`
	var rows []teacherRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list all teachers: %w", err)
	}
	teachers := make([]models.Teacher, 0, len(rows))
	for _, row := range rows {
		teacher, err := row.toModel()
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, teacher)
	}
	return teachers, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, full_name, qualifications, working_hours, created_at, updated_at FROM teachers WHERE id = $1`
	var row teacherRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	teacher, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Create inserts a new teacher record.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now

	row, err := teacherToRow(teacher)
	if err != nil {
		return err
	}
	const query = `INSERT INTO teachers (id, full_name, qualifications, working_hours, created_at, updated_at)
		VALUES (:id, :full_name, :qualifications, :working_hours, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies an existing teacher record.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	row, err := teacherToRow(teacher)
	if err != nil {
		return err
	}
	const query = `UPDATE teachers SET full_name = :full_name, qualifications = :qualifications, working_hours = :working_hours, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// Delete removes a teacher record.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM teachers WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return nil
}

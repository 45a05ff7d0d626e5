package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusched/alloc-api/internal/models"
)

func TestAssignmentRepositoryListDecodesSlots(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	slots := `[{"date":"2025-09-01T00:00:00Z","start":"09:00","end":"10:00","duration_minutes":60}]`
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "course_id", "status", "slots", "rationale", "created_at", "updated_at"}).
		AddRow("a1", "t1", "c1", "active", []byte(slots), nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teacher_id, course_id, status, slots, rationale, created_at, updated_at FROM assignments WHERE 1=1 AND teacher_id = $1 ORDER BY created_at DESC LIMIT 50 OFFSET 0")).
		WithArgs("t1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments WHERE 1=1 AND teacher_id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.AssignmentFilter{TeacherID: "t1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.AssignmentStatusActive, list[0].Status)
	require.Len(t, list[0].Slots, 1)
	assert.Equal(t, "09:00", list[0].Slots[0].Start)
	assert.Equal(t, 60, list[0].Slots[0].DurationMinutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("a1", "cancelled", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "a1", models.AssignmentStatusCancelled))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO assignments").
		WithArgs(sqlmock.AnyArg(), "t1", "c1", "pending", sqlmock.AnyArg(), nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assignment := &models.Assignment{
		TeacherID: "t1",
		CourseID:  "c1",
		Status:    models.AssignmentStatusPending,
		Slots: []models.TimeSlot{
			{Date: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), Start: "09:00", End: "10:00", DurationMinutes: 60},
		},
	}
	require.NoError(t, repo.Create(context.Background(), assignment))
	assert.NotEmpty(t, assignment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

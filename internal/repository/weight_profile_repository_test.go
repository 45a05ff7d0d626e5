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

func TestWeightProfileRepositoryFindDefault(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeightProfileRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "equality", "continuity", "loyalty", "is_default", "created_at", "updated_at"}).
		AddRow("wp1", "Balanced", 34, 33, 33, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, equality, continuity, loyalty, is_default, created_at, updated_at FROM weight_profiles WHERE is_default = TRUE LIMIT 1")).
		WillReturnRows(rows)

	profile, err := repo.FindDefault(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Balanced", profile.Name)
	assert.True(t, profile.IsDefault)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeightProfileRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeightProfileRepository(db)

	mock.ExpectExec("INSERT INTO weight_profiles").
		WithArgs(sqlmock.AnyArg(), "Emergency", 60, 35, 5, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	profile := &models.WeightProfile{Name: "Emergency", Equality: 60, Continuity: 35, Loyalty: 5}
	require.NoError(t, repo.Create(context.Background(), profile))
	assert.NotEmpty(t, profile.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeightProfileRepositorySetDefaultClearsOthers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeightProfileRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE weight_profiles SET is_default = FALSE, updated_at = $1 WHERE is_default = TRUE AND id <> $2")).
		WithArgs(sqlmock.AnyArg(), "wp2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE weight_profiles SET is_default = TRUE, updated_at = $1 WHERE id = $2")).
		WithArgs(sqlmock.AnyArg(), "wp2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetDefault(context.Background(), "wp2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeightProfileRepositorySetDefaultUnknownIDRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeightProfileRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE weight_profiles SET is_default = FALSE, updated_at = $1 WHERE is_default = TRUE AND id <> $2")).
		WithArgs(sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE weight_profiles SET is_default = TRUE, updated_at = $1 WHERE id = $2")).
		WithArgs(sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SetDefault(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no profile")
	assert.NoError(t, mock.ExpectationsWereMet())
}

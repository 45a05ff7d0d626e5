package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edusched/alloc-api/internal/models"
)

// WeightProfileRepository manages persistence for scoring weight profiles.
// The single-default invariant is enforced here: flagging one profile as
// default clears the flag on every other profile inside one transaction.
type WeightProfileRepository struct {
	db *sqlx.DB
}

// NewWeightProfileRepository constructs a WeightProfileRepository.
func NewWeightProfileRepository(db *sqlx.DB) *WeightProfileRepository {
	return &WeightProfileRepository{db: db}
}

const weightProfileColumns = "id, name, equality, continuity, loyalty, is_default, created_at, updated_at"

// List returns all weight profiles ordered by name.
func (r *WeightProfileRepository) List(ctx context.Context) ([]models.WeightProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM weight_profiles ORDER BY name", weightProfileColumns)
	var profiles []models.WeightProfile
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, fmt.Errorf("list weight profiles: %w", err)
	}
	return profiles, nil
}

// FindByID fetches a weight profile by ID.
func (r *WeightProfileRepository) FindByID(ctx context.Context, id string) (*models.WeightProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM weight_profiles WHERE id = $1", weightProfileColumns)
	var profile models.WeightProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindDefault fetches the profile currently flagged as default.
func (r *WeightProfileRepository) FindDefault(ctx context.Context) (*models.WeightProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM weight_profiles WHERE is_default = TRUE LIMIT 1", weightProfileColumns)
	var profile models.WeightProfile
	if err := r.db.GetContext(ctx, &profile, query); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create inserts a new weight profile record.
func (r *WeightProfileRepository) Create(ctx context.Context, profile *models.WeightProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	const query = `INSERT INTO weight_profiles (id, name, equality, continuity, loyalty, is_default, created_at, updated_at)
		VALUES (:id, :name, :equality, :continuity, :loyalty, :is_default, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create weight profile: %w", err)
	}
	return nil
}

// Update modifies an existing weight profile record.
func (r *WeightProfileRepository) Update(ctx context.Context, profile *models.WeightProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE weight_profiles SET name = :name, equality = :equality, continuity = :continuity, loyalty = :loyalty, is_default = :is_default, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("update weight profile: %w", err)
	}
	return nil
}

// SetDefault flags one profile as default and clears every other profile's
// flag in the same transaction.
func (r *WeightProfileRepository) SetDefault(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set default profile: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE weight_profiles SET is_default = FALSE, updated_at = $1 WHERE is_default = TRUE AND id <> $2`, now, id); err != nil {
		return fmt.Errorf("clear default profiles: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE weight_profiles SET is_default = TRUE, updated_at = $1 WHERE id = $2`, now, id)
	if err != nil {
		return fmt.Errorf("set default profile: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("set default profile: no profile with id %s", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set default profile: %w", err)
	}
	commit = true
	return nil
}

// Delete removes a weight profile record.
func (r *WeightProfileRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM weight_profiles WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete weight profile: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusched/alloc-api/internal/dto"
	"github.com/edusched/alloc-api/internal/engine"
	"github.com/edusched/alloc-api/internal/models"
	"github.com/edusched/alloc-api/internal/repository"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
)

type weightProfileRepository interface {
	List(ctx context.Context) ([]models.WeightProfile, error)
	FindByID(ctx context.Context, id string) (*models.WeightProfile, error)
	FindDefault(ctx context.Context) (*models.WeightProfile, error)
	Create(ctx context.Context, profile *models.WeightProfile) error
	Update(ctx context.Context, profile *models.WeightProfile) error
	SetDefault(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// WeightProfileService orchestrates CRUD and rebalancing for scoring profiles.
// The engine owns all weight invariants; this layer adds persistence, the
// default-profile cache, and wire validation.
type WeightProfileService struct {
	repo      weightProfileRepository
	eng       *engine.Engine
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWeightProfileService constructs a WeightProfileService.
func NewWeightProfileService(repo weightProfileRepository, eng *engine.Engine, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *WeightProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeightProfileService{
		repo:      repo,
		eng:       eng,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
	}
}

// List returns every stored profile.
func (s *WeightProfileService) List(ctx context.Context) ([]models.WeightProfile, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weight profiles")
	}
	return profiles, nil
}

// Get fetches one profile by ID.
func (s *WeightProfileService) Get(ctx context.Context, id string) (*models.WeightProfile, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "weight profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get weight profile")
	}
	return profile, nil
}

// Default returns the profile flagged as default, preferring the cache. The
// second return reports whether the cache served the profile.
func (s *WeightProfileService) Default(ctx context.Context) (*models.WeightProfile, bool, error) {
	var cached models.WeightProfile
	if hit, err := s.cache.Get(ctx, repository.DefaultProfileCacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	profile, err := s.repo.FindDefault(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "no default weight profile configured")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get default weight profile")
	}
	if err := s.cache.Set(ctx, repository.DefaultProfileCacheKey, profile, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache default weight profile", zap.Error(err))
	}
	return profile, false, nil
}

// Create validates and stores a new profile.
func (s *WeightProfileService) Create(ctx context.Context, req dto.CreateWeightProfileRequest) (*models.WeightProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weight profile payload")
	}
	profile := &models.WeightProfile{
		Name:       req.Name,
		Equality:   req.Equality,
		Continuity: req.Continuity,
		Loyalty:    req.Loyalty,
	}
	if err := s.eng.ValidateWeightProfile(*profile); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create weight profile")
	}
	if req.IsDefault {
		if err := s.setDefault(ctx, profile.ID); err != nil {
			return nil, err
		}
		profile.IsDefault = true
	}
	return profile, nil
}

// Update replaces the mutable fields of a profile.
func (s *WeightProfileService) Update(ctx context.Context, id string, req dto.UpdateWeightProfileRequest) (*models.WeightProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weight profile payload")
	}
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	profile.Name = req.Name
	profile.Equality = req.Equality
	profile.Continuity = req.Continuity
	profile.Loyalty = req.Loyalty
	if err := s.eng.ValidateWeightProfile(*profile); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update weight profile")
	}
	if req.IsDefault && !profile.IsDefault {
		if err := s.setDefault(ctx, profile.ID); err != nil {
			return nil, err
		}
		profile.IsDefault = true
	} else if profile.IsDefault {
		s.invalidateDefault(ctx)
	}
	return profile, nil
}

// Rebalance pins one factor and redistributes the rest, persisting the result.
func (s *WeightProfileService) Rebalance(ctx context.Context, id string, req dto.RebalanceWeightProfileRequest) (*models.WeightProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rebalance payload")
	}
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rebalanced, err := s.eng.RebalanceWeightProfile(*profile, engine.WeightField(req.Field), req.Value)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &rebalanced); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist rebalanced profile")
	}
	if rebalanced.IsDefault {
		s.invalidateDefault(ctx)
	}
	s.logger.Info("weight profile rebalanced",
		zap.String("profile_id", id),
		zap.String("field", req.Field),
		zap.Int("value", req.Value))
	return &rebalanced, nil
}

// Validate dry-runs the weight invariants against a triple without persisting.
func (s *WeightProfileService) Validate(req dto.ValidateWeightProfileRequest) dto.WeightProfileValidationResponse {
	err := s.eng.ValidateWeightProfile(models.WeightProfile{
		Equality:   req.Equality,
		Continuity: req.Continuity,
		Loyalty:    req.Loyalty,
	})
	if err != nil {
		return dto.WeightProfileValidationResponse{Valid: false, Reason: appErrors.FromError(err).Message}
	}
	return dto.WeightProfileValidationResponse{Valid: true}
}

// SetDefault flags a profile as the default one.
func (s *WeightProfileService) SetDefault(ctx context.Context, id string) (*models.WeightProfile, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.setDefault(ctx, id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a profile. The default profile cannot be deleted while it is
// still flagged, since evaluation paths resolve to it implicitly.
func (s *WeightProfileService) Delete(ctx context.Context, id string) error {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if profile.IsDefault {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot delete the default weight profile")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete weight profile")
	}
	return nil
}

func (s *WeightProfileService) setDefault(ctx context.Context, id string) error {
	if err := s.repo.SetDefault(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set default weight profile")
	}
	s.invalidateDefault(ctx)
	return nil
}

func (s *WeightProfileService) invalidateDefault(ctx context.Context) {
	if err := s.cache.Delete(ctx, repository.DefaultProfileCacheKey); err != nil {
		s.logger.Warn("failed to invalidate default profile cache", zap.Error(err))
	}
}

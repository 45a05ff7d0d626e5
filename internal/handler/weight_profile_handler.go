package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusched/alloc-api/internal/dto"
	"github.com/edusched/alloc-api/internal/middleware"
	"github.com/edusched/alloc-api/internal/models"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
	"github.com/edusched/alloc-api/pkg/response"
)

type weightProfileService interface {
	List(ctx context.Context) ([]models.WeightProfile, error)
	Get(ctx context.Context, id string) (*models.WeightProfile, error)
	Default(ctx context.Context) (*models.WeightProfile, bool, error)
	Create(ctx context.Context, req dto.CreateWeightProfileRequest) (*models.WeightProfile, error)
	Update(ctx context.Context, id string, req dto.UpdateWeightProfileRequest) (*models.WeightProfile, error)
	Rebalance(ctx context.Context, id string, req dto.RebalanceWeightProfileRequest) (*models.WeightProfile, error)
	Validate(req dto.ValidateWeightProfileRequest) dto.WeightProfileValidationResponse
	SetDefault(ctx context.Context, id string) (*models.WeightProfile, error)
	Delete(ctx context.Context, id string) error
}

// WeightProfileHandler exposes scoring profile endpoints.
type WeightProfileHandler struct {
	service weightProfileService
}

// NewWeightProfileHandler builds a new handler.
func NewWeightProfileHandler(service weightProfileService) *WeightProfileHandler {
	return &WeightProfileHandler{service: service}
}

// List godoc
// @Summary List weight profiles
// @Tags WeightProfiles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /weight-profiles [get]
func (h *WeightProfileHandler) List(c *gin.Context) {
	profiles, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profiles, nil)
}

// Get godoc
// @Summary Get a weight profile
// @Tags WeightProfiles
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} response.Envelope
// @Router /weight-profiles/{id} [get]
func (h *WeightProfileHandler) Get(c *gin.Context) {
	profile, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Default godoc
// @Summary Get the default weight profile
// @Tags WeightProfiles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /weight-profiles/default [get]
func (h *WeightProfileHandler) Default(c *gin.Context) {
	profile, cacheHit, err := h.service.Default(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, profile, nil, middleware.ExtractMeta(c))
}

// Create godoc
// @Summary Create a weight profile
// @Tags WeightProfiles
// @Accept json
// @Produce json
// @Param payload body dto.CreateWeightProfileRequest true "Profile payload"
// @Success 201 {object} response.Envelope
// @Router /weight-profiles [post]
func (h *WeightProfileHandler) Create(c *gin.Context) {
	var req dto.CreateWeightProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid weight profile payload"))
		return
	}
	profile, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, profile)
}

// Update godoc
// @Summary Update a weight profile
// @Tags WeightProfiles
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param payload body dto.UpdateWeightProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /weight-profiles/{id} [put]
func (h *WeightProfileHandler) Update(c *gin.Context) {
	var req dto.UpdateWeightProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid weight profile payload"))
		return
	}
	profile, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Rebalance godoc
// @Summary Rebalance a weight profile
// @Tags WeightProfiles
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param payload body dto.RebalanceWeightProfileRequest true "Rebalance payload"
// @Success 200 {object} response.Envelope
// @Router /weight-profiles/{id}/rebalance [post]
func (h *WeightProfileHandler) Rebalance(c *gin.Context) {
	var req dto.RebalanceWeightProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rebalance payload"))
		return
	}
	profile, err := h.service.Rebalance(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Validate godoc
// @Summary Validate a weight triple without persisting
// @Tags WeightProfiles
// @Accept json
// @Produce json
// @Param payload body dto.ValidateWeightProfileRequest true "Weights payload"
// @Success 200 {object} response.Envelope
// @Router /weight-profiles/validate [post]
func (h *WeightProfileHandler) Validate(c *gin.Context) {
	var req dto.ValidateWeightProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid weights payload"))
		return
	}
	response.JSON(c, http.StatusOK, h.service.Validate(req), nil)
}

// SetDefault godoc
// @Summary Flag a profile as default
// @Tags WeightProfiles
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} response.Envelope
// @Router /weight-profiles/{id}/default [put]
func (h *WeightProfileHandler) SetDefault(c *gin.Context) {
	profile, err := h.service.SetDefault(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Delete godoc
// @Summary Delete a weight profile
// @Tags WeightProfiles
// @Param id path string true "Profile ID"
// @Success 204
// @Router /weight-profiles/{id} [delete]
func (h *WeightProfileHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

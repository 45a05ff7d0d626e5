package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusched/alloc-api/internal/dto"
	"github.com/edusched/alloc-api/internal/models"
	appErrors "github.com/edusched/alloc-api/pkg/errors"
)

type weightProfileServiceMock struct {
	profile *models.WeightProfile
	getErr  error
}

func (m *weightProfileServiceMock) List(ctx context.Context) ([]models.WeightProfile, error) {
	if m.profile == nil {
		return nil, nil
	}
	return []models.WeightProfile{*m.profile}, nil
}

func (m *weightProfileServiceMock) Get(ctx context.Context, id string) (*models.WeightProfile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.profile, nil
}

func (m *weightProfileServiceMock) Default(ctx context.Context) (*models.WeightProfile, bool, error) {
	return m.profile, false, nil
}

func (m *weightProfileServiceMock) Create(ctx context.Context, req dto.CreateWeightProfileRequest) (*models.WeightProfile, error) {
	return &models.WeightProfile{Name: req.Name, Equality: req.Equality, Continuity: req.Continuity, Loyalty: req.Loyalty}, nil
}

func (m *weightProfileServiceMock) Update(ctx context.Context, id string, req dto.UpdateWeightProfileRequest) (*models.WeightProfile, error) {
	return m.profile, nil
}

func (m *weightProfileServiceMock) Rebalance(ctx context.Context, id string, req dto.RebalanceWeightProfileRequest) (*models.WeightProfile, error) {
	return m.profile, nil
}

func (m *weightProfileServiceMock) Validate(req dto.ValidateWeightProfileRequest) dto.WeightProfileValidationResponse {
	return dto.WeightProfileValidationResponse{Valid: true}
}

func (m *weightProfileServiceMock) SetDefault(ctx context.Context, id string) (*models.WeightProfile, error) {
	return m.profile, nil
}

func (m *weightProfileServiceMock) Delete(ctx context.Context, id string) error {
	return nil
}

func TestWeightProfileHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewWeightProfileHandler(&weightProfileServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/weight-profiles", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWeightProfileHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &weightProfileServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "weight profile not found")}
	handler := NewWeightProfileHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/weight-profiles/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestWeightProfileHandlerRebalance(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &weightProfileServiceMock{profile: &models.WeightProfile{ID: "wp-1", Name: "balanced", Equality: 50, Continuity: 25, Loyalty: 25}}
	handler := NewWeightProfileHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.RebalanceWeightProfileRequest{Field: "equality", Value: 50})
	req, _ := http.NewRequest(http.MethodPost, "/weight-profiles/wp-1/rebalance", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "wp-1"}}

	handler.Rebalance(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.WeightProfile `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 50, envelope.Data.Equality)
	assert.Equal(t, 25, envelope.Data.Continuity)
	assert.Equal(t, 25, envelope.Data.Loyalty)
}

package dto

// CreateWeightProfileRequest describes a new scoring profile. The engine, not
// the validator, owns the sum-to-100 rule so that the error carries the
// domain-specific code.
type CreateWeightProfileRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=120"`
	Equality   int    `json:"equality" validate:"min=0,max=100"`
	Continuity int    `json:"continuity" validate:"min=0,max=100"`
	Loyalty    int    `json:"loyalty" validate:"min=0,max=100"`
	IsDefault  bool   `json:"is_default"`
}

// UpdateWeightProfileRequest mirrors create; all weights are replaced at once.
type UpdateWeightProfileRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=120"`
	Equality   int    `json:"equality" validate:"min=0,max=100"`
	Continuity int    `json:"continuity" validate:"min=0,max=100"`
	Loyalty    int    `json:"loyalty" validate:"min=0,max=100"`
	IsDefault  bool   `json:"is_default"`
}

// RebalanceWeightProfileRequest pins one factor to a value and lets the engine
// redistribute the remainder across the other two.
type RebalanceWeightProfileRequest struct {
	Field string `json:"field" validate:"required,oneof=equality continuity loyalty"`
	Value int    `json:"value" validate:"min=0,max=100"`
}

// ValidateWeightProfileRequest checks a triple without persisting it.
type ValidateWeightProfileRequest struct {
	Equality   int `json:"equality" validate:"min=0,max=100"`
	Continuity int `json:"continuity" validate:"min=0,max=100"`
	Loyalty    int `json:"loyalty" validate:"min=0,max=100"`
}

// WeightProfileValidationResponse reports the outcome of a dry-run validation.
type WeightProfileValidationResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

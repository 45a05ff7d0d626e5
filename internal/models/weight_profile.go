package models

import "time"

// WeightProfile is a named triple of integer percentages governing assignment
// scoring. Valid profiles keep each factor within [0,100] and the three factors
// summing to exactly 100. At most one profile is flagged default; that
// uniqueness is enforced by the repository, not the engine.
type WeightProfile struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Equality   int       `db:"equality" json:"equality"`
	Continuity int       `db:"continuity" json:"continuity"`
	Loyalty    int       `db:"loyalty" json:"loyalty"`
	IsDefault  bool      `db:"is_default" json:"is_default"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

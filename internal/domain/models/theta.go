package models

import (
	"fmt"
	"time"
)

// ThetaParams carries the signal thresholds an inference run should apply.
type ThetaParams struct {
	Theta1             float64   `json:"theta1"`
	Theta2             float64   `json:"theta2"`
	UpdatedAt          time.Time `json:"updated_at"`
	UpdatedBy          string    `json:"updated_by"`
	SourceModelVersion *string   `json:"source_model_version"`
}

// Validate checks threshold invariants.
func (p ThetaParams) Validate() error {
	if err := validateProbability(p.Theta1, "theta1"); err != nil {
		return err
	}
	if err := validateProbability(p.Theta2, "theta2"); err != nil {
		return err
	}
	if p.UpdatedBy == "" {
		return fmt.Errorf("updated_by is required")
	}
	if p.SourceModelVersion != nil && *p.SourceModelVersion == "" {
		return fmt.Errorf("source_model_version must be null or non-empty")
	}
	return nil
}

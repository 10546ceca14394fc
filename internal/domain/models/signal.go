package models

import (
	"fmt"
	"time"
)

// TradeSide is the direction of a signal leg.
type TradeSide string

const (
	SideLong  TradeSide = "long"
	SideShort TradeSide = "short"
)

// Valid reports whether the side is a known value.
func (s TradeSide) Valid() bool {
	return s == SideLong || s == SideShort
}

// SignalLeg is one side of a pair trade.
type SignalLeg struct {
	Symbol     string    `json:"symbol"`
	Side       TradeSide `json:"side"`
	BetaWeight float64   `json:"beta_weight"`
	Notional   float64   `json:"notional"`
}

// Validate checks leg-level invariants.
func (l SignalLeg) Validate() error {
	if l.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if !l.Side.Valid() {
		return fmt.Errorf("side must be %q or %q, got %q", SideLong, SideShort, l.Side)
	}
	if l.BetaWeight == 0 {
		return fmt.Errorf("beta_weight must be non-zero")
	}
	if l.Notional <= 0 {
		return fmt.Errorf("notional must be positive")
	}
	return nil
}

// Signal is one inference output distributed to downstream consumers.
type Signal struct {
	SignalID      string            `json:"signal_id"`
	Timestamp     time.Time         `json:"timestamp"`
	PairID        string            `json:"pair_id"`
	Legs          []SignalLeg       `json:"legs"`
	ReturnProb    float64           `json:"return_prob"`
	RiskScore     float64           `json:"risk_score"`
	Theta1        float64           `json:"theta1"`
	Theta2        float64           `json:"theta2"`
	PositionScale float64           `json:"position_scale"`
	ModelVersion  string            `json:"model_version"`
	ValidUntil    time.Time         `json:"valid_until"`
	Metadata      map[string]string `json:"metadata"`
}

// Validate checks all signal invariants.
func (s Signal) Validate() error {
	if s.SignalID == "" {
		return fmt.Errorf("signal_id is required")
	}
	if s.PairID == "" {
		return fmt.Errorf("pair_id is required")
	}
	if s.ModelVersion == "" {
		return fmt.Errorf("model_version is required")
	}
	if len(s.Legs) == 0 {
		return fmt.Errorf("at least one leg is required")
	}
	for i, leg := range s.Legs {
		if err := leg.Validate(); err != nil {
			return fmt.Errorf("leg %d: %w", i, err)
		}
	}
	if err := validateProbability(s.ReturnProb, "return_prob"); err != nil {
		return err
	}
	if err := validateProbability(s.RiskScore, "risk_score"); err != nil {
		return err
	}
	if err := validateProbability(s.Theta1, "theta1"); err != nil {
		return err
	}
	if err := validateProbability(s.Theta2, "theta2"); err != nil {
		return err
	}
	if s.PositionScale <= 0 {
		return fmt.Errorf("position_scale must be positive")
	}
	if !s.ValidUntil.After(s.Timestamp) {
		return fmt.Errorf("valid_until must be after timestamp")
	}
	return nil
}

func validateProbability(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("%s must be within [0, 1], got %v", name, value)
	}
	return nil
}

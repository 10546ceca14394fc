package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FlagSnapshot is the current safety-control state shared across all workers.
// Metadata describes only the most recent mutation of any field; callers must
// not treat it as a merged history.
type FlagSnapshot struct {
	GlobalHalt    bool              `json:"global_halt"`
	HaltedPairs   []string          `json:"halted_pairs"`
	FlattenPairs  []string          `json:"flatten_pairs"`
	LeverageScale float64           `json:"leverage_scale"`
	Metadata      map[string]string `json:"metadata"`
}

// DefaultFlagSnapshot returns the state an uninitialized store starts from.
func DefaultFlagSnapshot() FlagSnapshot {
	return FlagSnapshot{
		GlobalHalt:    false,
		HaltedPairs:   []string{},
		FlattenPairs:  []string{},
		LeverageScale: 1.0,
		Metadata:      map[string]string{},
	}
}

// Validate enforces snapshot invariants.
func (s FlagSnapshot) Validate() error {
	if s.LeverageScale <= 0 {
		return fmt.Errorf("leverage_scale must be positive, got %v", s.LeverageScale)
	}
	return nil
}

// Details flattens the snapshot into the string map carried by ops responses.
func (s FlagSnapshot) Details() map[string]string {
	details := map[string]string{
		"global_halt":    strconv.FormatBool(s.GlobalHalt),
		"halted_pairs":   strings.Join(s.HaltedPairs, ","),
		"flatten_pairs":  strings.Join(s.FlattenPairs, ","),
		"leverage_scale": strconv.FormatFloat(s.LeverageScale, 'f', 6, 64),
	}
	for k, v := range s.Metadata {
		details[k] = v
	}
	return details
}

// NormalizePairs deduplicates, trims, and sorts a pair list. Empty entries
// are dropped.
func NormalizePairs(pairs []string) []string {
	seen := make(map[string]struct{}, len(pairs))
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

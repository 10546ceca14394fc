package models

import (
	"reflect"
	"testing"
)

func TestDefaultFlagSnapshot(t *testing.T) {
	s := DefaultFlagSnapshot()
	if s.GlobalHalt {
		t.Fatalf("default snapshot must not halt")
	}
	if s.LeverageScale != 1.0 {
		t.Fatalf("default leverage_scale = %v, want 1.0", s.LeverageScale)
	}
	if len(s.HaltedPairs) != 0 || len(s.FlattenPairs) != 0 {
		t.Fatalf("default pair sets must be empty")
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("default snapshot invalid: %v", err)
	}
}

func TestFlagSnapshotValidateLeverage(t *testing.T) {
	s := DefaultFlagSnapshot()
	s.LeverageScale = 0
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for zero leverage_scale")
	}
	s.LeverageScale = -2
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for negative leverage_scale")
	}
}

func TestFlagSnapshotDetails(t *testing.T) {
	s := FlagSnapshot{
		GlobalHalt:    true,
		HaltedPairs:   []string{"EURUSD", "USDJPY"},
		FlattenPairs:  []string{},
		LeverageScale: 0.5,
		Metadata:      map[string]string{"reason": "drill"},
	}
	d := s.Details()
	if d["global_halt"] != "true" {
		t.Fatalf("global_halt = %q", d["global_halt"])
	}
	if d["halted_pairs"] != "EURUSD,USDJPY" {
		t.Fatalf("halted_pairs = %q", d["halted_pairs"])
	}
	if d["leverage_scale"] != "0.500000" {
		t.Fatalf("leverage_scale = %q", d["leverage_scale"])
	}
	if d["reason"] != "drill" {
		t.Fatalf("metadata not merged: %v", d)
	}
}

func TestNormalizePairs(t *testing.T) {
	got := NormalizePairs([]string{" USDJPY", "EURUSD", "", "EURUSD ", "AUDNZD"})
	want := []string{"AUDNZD", "EURUSD", "USDJPY"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizePairs = %v, want %v", got, want)
	}
}

func TestNormalizePairsAllEmpty(t *testing.T) {
	got := NormalizePairs([]string{"", "  ", ""})
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"SignalOps/internal/domain/models"
	"SignalOps/pkg/logger"
)

func engineRequest() *models.InferenceRequest {
	version := "m1"
	return &models.InferenceRequest{
		PartitionIDs: []string{"p1", "p2"},
		ThetaParams: models.ThetaParams{
			Theta1:             0.6,
			Theta2:             0.4,
			UpdatedBy:          "ops",
			SourceModelVersion: &version,
		},
	}
}

func engineSignal(pid string) models.Signal {
	ts := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	return models.Signal{
		SignalID:  "sig-" + pid,
		Timestamp: ts,
		PairID:    pid,
		Legs: []models.SignalLeg{
			{Symbol: "EURUSD", Side: models.SideLong, BetaWeight: 1, Notional: 1000},
		},
		ReturnProb:    0.7,
		RiskScore:     0.2,
		Theta1:        0.6,
		Theta2:        0.4,
		PositionScale: 1,
		ModelVersion:  "m1",
		ValidUntil:    ts.Add(time.Minute),
	}
}

func TestEngineAggregatesPartitions(t *testing.T) {
	engine := NewEngine(func(ctx context.Context, pid string, theta models.ThetaParams) ([]models.Signal, error) {
		return []models.Signal{engineSignal(pid)}, nil
	}, logger.Nop())

	resp, err := engine.Execute(context.Background(), engineRequest())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(resp.Signals) != 2 {
		t.Fatalf("signals = %d, want 2", len(resp.Signals))
	}
	if resp.Diagnostics["partitions"] != "2" {
		t.Fatalf("diagnostics partitions = %q", resp.Diagnostics["partitions"])
	}
	if resp.Diagnostics["model_version"] != "m1" {
		t.Fatalf("diagnostics model_version = %q", resp.Diagnostics["model_version"])
	}
}

func TestEnginePartitionFailureAbortsRequest(t *testing.T) {
	engine := NewEngine(func(ctx context.Context, pid string, theta models.ThetaParams) ([]models.Signal, error) {
		if pid == "p2" {
			return nil, fmt.Errorf("no data")
		}
		return []models.Signal{engineSignal(pid)}, nil
	}, logger.Nop())

	if _, err := engine.Execute(context.Background(), engineRequest()); err == nil {
		t.Fatalf("expected error when one partition fails")
	}
}

func TestEngineRejectsInvalidModelOutput(t *testing.T) {
	engine := NewEngine(func(ctx context.Context, pid string, theta models.ThetaParams) ([]models.Signal, error) {
		sig := engineSignal(pid)
		sig.ReturnProb = 2.0
		return []models.Signal{sig}, nil
	}, logger.Nop())

	if _, err := engine.Execute(context.Background(), engineRequest()); err == nil {
		t.Fatalf("expected error for out-of-range model output")
	}
}

func TestEngineRejectsInvalidRequest(t *testing.T) {
	engine := NewEngine(NopModel, logger.Nop())
	if _, err := engine.Execute(context.Background(), &models.InferenceRequest{}); err == nil {
		t.Fatalf("expected error for empty request")
	}
}

func TestNopModelProducesEmptyResponse(t *testing.T) {
	engine := NewEngine(NopModel, logger.Nop())
	resp, err := engine.Execute(context.Background(), engineRequest())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(resp.Signals) != 0 {
		t.Fatalf("NopModel produced signals: %v", resp.Signals)
	}
}

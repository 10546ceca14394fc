package usecase

import (
	"context"
	"fmt"
	"strconv"

	"SignalOps/internal/domain/models"
	"SignalOps/pkg/logger"
)

// ModelFunc produces signals for one partition under the given decision
// thresholds. The actual model (training, feature pipeline, backtest) lives
// behind this boundary; the engine only orchestrates it.
type ModelFunc func(ctx context.Context, partitionID string, theta models.ThetaParams) ([]models.Signal, error)

// Engine is the default InferenceUseCase: it runs the model per partition and
// aggregates the results. A partition whose model call fails aborts the whole
// request; partial signal sets must never be published as if complete.
type Engine struct {
	model  ModelFunc
	logger *logger.Logger
}

// NewEngine creates an inference engine around a model.
func NewEngine(model ModelFunc, lgr *logger.Logger) *Engine {
	return &Engine{model: model, logger: lgr}
}

// NopModel emits no signals. It keeps a worker deployable before a real model
// is plugged in: requests flow, heartbeats tick, envelopes go out empty.
func NopModel(ctx context.Context, partitionID string, theta models.ThetaParams) ([]models.Signal, error) {
	return nil, nil
}

// Execute runs the model for every requested partition.
func (e *Engine) Execute(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inference request: %w", err)
	}

	signals := make([]models.Signal, 0, len(req.PartitionIDs))
	for _, pid := range req.PartitionIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := e.model(ctx, pid, req.ThetaParams)
		if err != nil {
			return nil, fmt.Errorf("model partition %s: %w", pid, err)
		}
		for _, sig := range out {
			if err := sig.Validate(); err != nil {
				return nil, fmt.Errorf("model partition %s produced invalid signal: %w", pid, err)
			}
		}
		signals = append(signals, out...)
	}

	diagnostics := map[string]string{
		"partitions": strconv.Itoa(len(req.PartitionIDs)),
	}
	if req.ThetaParams.SourceModelVersion != nil {
		diagnostics["model_version"] = *req.ThetaParams.SourceModelVersion
	}

	return &models.InferenceResponse{
		Signals:     signals,
		Diagnostics: diagnostics,
	}, nil
}

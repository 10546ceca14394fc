package models

import (
	"encoding/json"
	"fmt"
)

// InferenceRequest is the wire contract for messages on the request channel.
type InferenceRequest struct {
	PartitionIDs []string          `json:"partition_ids"`
	ThetaParams  ThetaParams       `json:"theta_params"`
	Metadata     map[string]string `json:"metadata"`
}

// Validate checks the decoded request.
func (r InferenceRequest) Validate() error {
	if len(r.PartitionIDs) == 0 {
		return fmt.Errorf("partition_ids must be a non-empty array")
	}
	for i, id := range r.PartitionIDs {
		if id == "" {
			return fmt.Errorf("partition_ids[%d] must be non-empty", i)
		}
	}
	if err := r.ThetaParams.Validate(); err != nil {
		return fmt.Errorf("theta_params: %w", err)
	}
	return nil
}

// DecodeInferenceRequest parses and validates a request payload.
func DecodeInferenceRequest(payload []byte) (*InferenceRequest, error) {
	var req InferenceRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("decode inference request: %w", err)
	}
	if req.Metadata == nil {
		req.Metadata = map[string]string{}
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inference request: %w", err)
	}
	return &req, nil
}

// InferenceResponse is what the external inference collaborator returns.
type InferenceResponse struct {
	Signals     []Signal          `json:"signals"`
	Diagnostics map[string]string `json:"diagnostics"`
}

// SignalEnvelope is the payload published to the signal channel: the generated
// signals plus the request metadata echoed back and worker diagnostics.
type SignalEnvelope struct {
	Signals     []Signal          `json:"signals"`
	Metadata    map[string]string `json:"metadata"`
	Diagnostics map[string]string `json:"diagnostics"`
}

// Encode serializes the envelope for publishing.
func (e SignalEnvelope) Encode() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode signal envelope: %w", err)
	}
	return b, nil
}

// DecodeSignalEnvelope parses a signal-channel payload, as downstream
// consumers (the archiver, the websocket relay) do.
func DecodeSignalEnvelope(payload []byte) (*SignalEnvelope, error) {
	var env SignalEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode signal envelope: %w", err)
	}
	return &env, nil
}

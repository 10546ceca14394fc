package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"SignalOps/internal/domain/models"
)

const metadataSource = "signalops"

// RedisFlagRepository stores the safety-flag snapshot in a single Redis hash.
// Each setter writes its own hash field plus the metadata field; writes to
// different fields never corrupt each other, and metadata belongs to whichever
// write lands last.
type RedisFlagRepository struct {
	client *redis.Client
	key    string
}

// NewRedisFlagRepository creates a flag repository over the given hash key.
func NewRedisFlagRepository(client *redis.Client, key string) *RedisFlagRepository {
	return &RedisFlagRepository{client: client, key: key}
}

// GetSnapshot returns the current snapshot. An uninitialized store is seeded
// with defaults and persisted; malformed stored fields fall back to defaults
// instead of failing.
func (r *RedisFlagRepository) GetSnapshot(ctx context.Context) (models.FlagSnapshot, error) {
	data, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return models.FlagSnapshot{}, fmt.Errorf("read ops flags: %w", err)
	}

	if len(data) == 0 {
		snapshot := models.DefaultFlagSnapshot()
		snapshot.Metadata = defaultMetadata("initialized")
		if err := r.storeSnapshot(ctx, snapshot, "initialize"); err != nil {
			return models.FlagSnapshot{}, err
		}
		return snapshot, nil
	}

	snapshot := models.FlagSnapshot{
		GlobalHalt:    parseBool(data["global_halt"]),
		HaltedPairs:   parseStringSlice(data["halted_pairs"]),
		FlattenPairs:  parseStringSlice(data["flatten_pairs"]),
		LeverageScale: parseFloatDefault(data["leverage_scale"], 1.0),
		Metadata:      parseStringMap(data["metadata"]),
	}
	if snapshot.LeverageScale <= 0 {
		snapshot.LeverageScale = 1.0
	}
	return snapshot, nil
}

// SetGlobalHalt writes the global halt flag.
func (r *RedisFlagRepository) SetGlobalHalt(ctx context.Context, value bool, reason string) error {
	err := r.client.HSet(ctx, r.key, map[string]interface{}{
		"global_halt": boolField(value),
		"metadata":    metadataJSON(reason, map[string]string{"global_halt": strconv.FormatBool(value)}),
	}).Err()
	if err != nil {
		return fmt.Errorf("set global_halt: %w", err)
	}
	return nil
}

// SetHaltedPairs writes the halted-pair set, deduplicated and sorted.
func (r *RedisFlagRepository) SetHaltedPairs(ctx context.Context, pairs []string, reason string) error {
	return r.setPairs(ctx, "halted_pairs", pairs, reason)
}

// SetFlattenPairs writes the flatten-pair set, deduplicated and sorted.
func (r *RedisFlagRepository) SetFlattenPairs(ctx context.Context, pairs []string, reason string) error {
	return r.setPairs(ctx, "flatten_pairs", pairs, reason)
}

func (r *RedisFlagRepository) setPairs(ctx context.Context, field string, pairs []string, reason string) error {
	normalized := models.NormalizePairs(pairs)
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("encode %s: %w", field, err)
	}
	err = r.client.HSet(ctx, r.key, map[string]interface{}{
		field:      string(encoded),
		"metadata": metadataJSON(reason, map[string]string{field: strings.Join(normalized, ",")}),
	}).Err()
	if err != nil {
		return fmt.Errorf("set %s: %w", field, err)
	}
	return nil
}

// SetLeverageScale writes the leverage multiplier. Values <= 0 are rejected
// and leave the stored value unchanged.
func (r *RedisFlagRepository) SetLeverageScale(ctx context.Context, value float64, reason string) error {
	if value <= 0 {
		return fmt.Errorf("leverage_scale must be positive, got %v", value)
	}
	formatted := strconv.FormatFloat(value, 'f', 6, 64)
	err := r.client.HSet(ctx, r.key, map[string]interface{}{
		"leverage_scale": formatted,
		"metadata":       metadataJSON(reason, map[string]string{"leverage_scale": formatted}),
	}).Err()
	if err != nil {
		return fmt.Errorf("set leverage_scale: %w", err)
	}
	return nil
}

func (r *RedisFlagRepository) storeSnapshot(ctx context.Context, s models.FlagSnapshot, reason string) error {
	halted, err := json.Marshal(s.HaltedPairs)
	if err != nil {
		return fmt.Errorf("encode halted_pairs: %w", err)
	}
	flatten, err := json.Marshal(s.FlattenPairs)
	if err != nil {
		return fmt.Errorf("encode flatten_pairs: %w", err)
	}
	err = r.client.HSet(ctx, r.key, map[string]interface{}{
		"global_halt":    boolField(s.GlobalHalt),
		"halted_pairs":   string(halted),
		"flatten_pairs":  string(flatten),
		"leverage_scale": strconv.FormatFloat(s.LeverageScale, 'f', 6, 64),
		"metadata":       metadataJSON(reason, s.Metadata),
	}).Err()
	if err != nil {
		return fmt.Errorf("store ops flags: %w", err)
	}
	return nil
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseFloatDefault(raw string, def float64) float64 {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func parseStringSlice(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []string{}
	}
	return out
}

func parseStringMap(raw string) map[string]string {
	if raw == "" {
		return map[string]string{}
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]string{}
	}
	return out
}

func metadataJSON(reason string, extra map[string]string) string {
	metadata := defaultMetadata(reason)
	for k, v := range extra {
		metadata[k] = v
	}
	b, _ := json.Marshal(metadata)
	return string(b)
}

func defaultMetadata(reason string) map[string]string {
	return map[string]string{
		"updated_at": time.Now().UTC().Format(time.RFC3339),
		"reason":     reason,
		"source":     metadataSource,
	}
}

package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"SignalOps/pkg/logger"
)

// auditTrailMax bounds the Redis audit list so it never grows unbounded.
const auditTrailMax = 1000

// AuditTrail writes audit events to the structured log and, best-effort, to a
// capped Redis list so operators can inspect recent commands without log
// access. The log write is the source of record; the Redis copy is a
// convenience and its failures are only logged.
type AuditTrail struct {
	client *redis.Client
	key    string
	logger *logger.Logger
}

// NewAuditTrail creates an audit trail. The Redis list lives next to the flag
// hash under <flagsKey>:audit.
func NewAuditTrail(client *redis.Client, flagsKey string, lgr *logger.Logger) *AuditTrail {
	return &AuditTrail{client: client, key: flagsKey + ":audit", logger: lgr}
}

type auditRecord struct {
	Event   string            `json:"event"`
	At      string            `json:"at"`
	Payload map[string]string `json:"payload"`
}

// Log records one audit event.
func (a *AuditTrail) Log(ctx context.Context, event string, payload map[string]string) {
	a.logger.Info("audit",
		logger.String("event", event),
		logger.Any("payload", payload))

	record := auditRecord{
		Event:   event,
		At:      time.Now().UTC().Format(time.RFC3339),
		Payload: payload,
	}
	b, err := json.Marshal(record)
	if err != nil {
		a.logger.Error("encode audit record", logger.Error(err))
		return
	}

	pipe := a.client.TxPipeline()
	pipe.LPush(ctx, a.key, b)
	pipe.LTrim(ctx, a.key, 0, auditTrailMax-1)
	if _, err := pipe.Exec(ctx); err != nil {
		a.logger.Error("write audit trail", logger.Error(err))
	}
}

// Recent returns the newest audit records, newest first.
func (a *AuditTrail) Recent(ctx context.Context, limit int) ([]map[string]string, error) {
	if limit <= 0 || limit > auditTrailMax {
		limit = auditTrailMax
	}
	raw, err := a.client.LRange(ctx, a.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]string, 0, len(raw))
	for _, item := range raw {
		var record auditRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			continue
		}
		entry := map[string]string{"event": record.Event, "at": record.At}
		for k, v := range record.Payload {
			entry[k] = v
		}
		out = append(out, entry)
	}
	return out, nil
}

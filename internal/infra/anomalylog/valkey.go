package anomalylog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/branch-forecast/internal/domain/forecast"
)

// ValkeyLog stores anomalies as a capped JSON list in a Valkey-compatible database.
type ValkeyLog struct {
	client   valkey.Client
	key      string
	capacity int
	logger   *slog.Logger
}

// NewValkeyLog constructs a log backed by Valkey.
func NewValkeyLog(client valkey.Client, prefix string, capacity int, logger *slog.Logger) *ValkeyLog {
	if prefix == "" {
		prefix = "forecast"
	}
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &ValkeyLog{
		client:   client,
		key:      fmt.Sprintf("%s:anomalies", prefix),
		capacity: capacity,
		logger:   logger.With("component", "anomalylog.valkey"),
	}
}

// Record pushes the anomalies and trims the list to capacity.
func (l *ValkeyLog) Record(ctx context.Context, anomalies []forecast.PointAnomaly) error {
	if len(anomalies) == 0 {
		return nil
	}
	elements := make([]string, 0, len(anomalies))
	for _, a := range anomalies {
		payload, err := json.Marshal(a)
		if err != nil {
			return err
		}
		elements = append(elements, string(payload))
	}
	cmds := valkey.Commands{
		l.client.B().Lpush().Key(l.key).Element(elements...).Build(),
		l.client.B().Ltrim().Key(l.key).Start(0).Stop(int64(l.capacity - 1)).Build(),
	}
	for _, resp := range l.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (l *ValkeyLog) Recent(ctx context.Context, limit int) ([]forecast.PointAnomaly, error) {
	if limit <= 0 || limit > l.capacity {
		limit = l.capacity
	}
	values, err := l.client.Do(ctx, l.client.B().Lrange().Key(l.key).Start(0).Stop(int64(limit-1)).Build()).AsStrSlice()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return l.decode(values), nil
}

func (l *ValkeyLog) decode(values []string) []forecast.PointAnomaly {
	out := make([]forecast.PointAnomaly, 0, len(values))
	for i, raw := range values {
		var a forecast.PointAnomaly
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			l.logger.Warn("skipping undecodable anomaly entry", "key", l.key, "position", i, "error", err)
			continue
		}
		out = append(out, a)
	}
	return out
}

var _ forecast.AnomalyRecorder = (*ValkeyLog)(nil)

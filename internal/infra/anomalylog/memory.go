package anomalylog

import (
	"context"
	"sync"

	"github.com/yanqian/branch-forecast/internal/domain/forecast"
)

const defaultCapacity = 200

// MemoryLog keeps the most recent anomalies in process memory.
type MemoryLog struct {
	mu       sync.RWMutex
	entries  []forecast.PointAnomaly
	capacity int
}

// NewMemoryLog constructs a log that retains at most capacity entries.
func NewMemoryLog(capacity int) *MemoryLog {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryLog{capacity: capacity}
}

// Record implements forecast.AnomalyRecorder.
func (l *MemoryLog) Record(_ context.Context, anomalies []forecast.PointAnomaly) error {
	if len(anomalies) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, anomalies...)
	if overflow := len(l.entries) - l.capacity; overflow > 0 {
		l.entries = append([]forecast.PointAnomaly(nil), l.entries[overflow:]...)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (l *MemoryLog) Recent(_ context.Context, limit int) ([]forecast.PointAnomaly, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]forecast.PointAnomaly, 0, limit)
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.entries[i])
	}
	return out, nil
}

var _ forecast.AnomalyRecorder = (*MemoryLog)(nil)

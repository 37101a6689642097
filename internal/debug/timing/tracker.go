package timing

import (
	"context"
	"sort"
	"sync"
	"time"
)

type timingKey struct{}

type TimingInfo struct {
	Operation string
	StartTime time.Time
}

// Tracker records how long named operations take. A nil *Tracker is valid
// and records nothing.
type Tracker struct {
	timings map[string][]time.Duration
	limit   int
	mu      sync.RWMutex
	enabled bool
}

// NewTracker keeps at most limit samples per operation. A limit of zero or
// less keeps 100.
func NewTracker(limit int) *Tracker {
	if limit <= 0 {
		limit = 100
	}
	return &Tracker{
		timings: make(map[string][]time.Duration),
		limit:   limit,
		enabled: true,
	}
}

// StartTiming returns a child of ctx carrying the start time of operation.
func (tt *Tracker) StartTiming(ctx context.Context, operation string) context.Context {
	if tt == nil || !tt.isEnabled() {
		return ctx
	}
	return context.WithValue(ctx, timingKey{}, TimingInfo{
		Operation: operation,
		StartTime: time.Now(),
	})
}

// EndTiming records the time since the matching StartTiming and returns it.
func (tt *Tracker) EndTiming(ctx context.Context) time.Duration {
	if tt == nil {
		return 0
	}
	info, ok := ctx.Value(timingKey{}).(TimingInfo)
	if !ok {
		return 0
	}
	duration := time.Since(info.StartTime)
	tt.Record(info.Operation, duration)
	return duration
}

func (tt *Tracker) Record(operation string, d time.Duration) {
	if tt == nil || !tt.isEnabled() {
		return
	}
	tt.mu.Lock()
	defer tt.mu.Unlock()
	samples := append(tt.timings[operation], d)
	if len(samples) > tt.limit {
		samples = samples[len(samples)-tt.limit:]
	}
	tt.timings[operation] = samples
}

func (tt *Tracker) GetTimings(operation string) []time.Duration {
	if tt == nil {
		return nil
	}
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	timings := tt.timings[operation]
	if timings == nil {
		return nil
	}
	result := make([]time.Duration, len(timings))
	copy(result, timings)
	return result
}

// Operations lists every operation with samples, sorted by name.
func (tt *Tracker) Operations() []string {
	if tt == nil {
		return nil
	}
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	ops := make([]string, 0, len(tt.timings))
	for op := range tt.timings {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

func (tt *Tracker) GetAverageTime(operation string) time.Duration {
	timings := tt.GetTimings(operation)
	if len(timings) == 0 {
		return 0
	}
	var total time.Duration
	for _, duration := range timings {
		total += duration
	}
	return total / time.Duration(len(timings))
}

// Summary maps each operation to its average in milliseconds, for logging.
func (tt *Tracker) Summary() map[string]interface{} {
	out := make(map[string]interface{})
	for _, op := range tt.Operations() {
		out[op+"_avg_ms"] = tt.GetAverageTime(op).Milliseconds()
	}
	return out
}

func (tt *Tracker) SetEnabled(enabled bool) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.enabled = enabled
}

func (tt *Tracker) isEnabled() bool {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	return tt.enabled
}

// Reset drops the samples of operation, or of every operation when it is
// empty.
func (tt *Tracker) Reset(operation string) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	if operation == "" {
		tt.timings = make(map[string][]time.Duration)
	} else {
		delete(tt.timings, operation)
	}
}

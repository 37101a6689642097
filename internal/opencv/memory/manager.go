package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"meme-maker/internal/logger"
)

// Manager tracks live Mats and enforces a ceiling on native memory held by
// filter work. It implements safe.MemoryTracker.
type Manager struct {
	allocations map[uint64]*AllocationRecord
	mu          sync.RWMutex
	stats       Stats
	log         logger.Logger
}

type AllocationRecord struct {
	Tag       string
	CreatedAt time.Time
	Size      int64
}

type Stats struct {
	TotalAllocated int64
	TotalReleased  int64
	ActiveMats     int64
	PeakBytes      int64
	MaxAllowed     int64
}

// InUse returns the bytes currently held by live Mats.
func (s Stats) InUse() int64 {
	return s.TotalAllocated - s.TotalReleased
}

const defaultMaxAllowed = 2 * 1024 * 1024 * 1024

func NewManager(log logger.Logger) *Manager {
	return &Manager{
		allocations: make(map[uint64]*AllocationRecord),
		stats:       Stats{MaxAllowed: defaultMaxAllowed},
		log:         logger.ForComponent(log, "MemoryManager"),
	}
}

func (m *Manager) TrackAllocation(id uint64, size int64, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.allocations[id] = &AllocationRecord{Tag: tag, CreatedAt: time.Now(), Size: size}
	m.stats.TotalAllocated += size
	m.stats.ActiveMats++
	if inUse := m.stats.InUse(); inUse > m.stats.PeakBytes {
		m.stats.PeakBytes = inUse
	}
}

func (m *Manager) TrackDeallocation(id uint64, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, exists := m.allocations[id]
	if !exists {
		m.log.Warning("release of untracked Mat", map[string]interface{}{"id": id, "tag": tag})
		return
	}
	delete(m.allocations, id)
	m.stats.TotalReleased += record.Size
	m.stats.ActiveMats--
}

// Reserve fails when allocating size more bytes would exceed the ceiling.
func (m *Manager) Reserve(size int64) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.stats.InUse()+size > m.stats.MaxAllowed {
		return fmt.Errorf("memory limit exceeded: %d bytes in use, %d requested", m.stats.InUse(), size)
	}
	return nil
}

func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// Leaks returns allocations older than age, oldest first.
func (m *Manager) Leaks(age time.Duration) []AllocationRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := time.Now().Add(-age)
	var out []AllocationRecord
	for _, r := range m.allocations {
		if r.CreatedAt.Before(cutoff) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// LogStats writes the current counters at debug level.
func (m *Manager) LogStats() {
	s := m.GetStats()
	m.log.Debug("memory stats", map[string]interface{}{
		"active_mats": s.ActiveMats,
		"in_use":      s.InUse(),
		"peak":        s.PeakBytes,
		"allocated":   s.TotalAllocated,
		"released":    s.TotalReleased,
	})
}

// Cleanup logs and forgets any allocations still tracked. The Mats
// themselves are released by their owners or finalizers.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := len(m.allocations); n > 0 {
		m.log.Warning("Mats still live at cleanup", map[string]interface{}{"count": n})
	}
	m.allocations = make(map[uint64]*AllocationRecord)
}

package memory

import (
	"testing"
	"time"

	"meme-maker/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackAllocationAndRelease(t *testing.T) {
	m := NewManager(logger.Nop())

	m.TrackAllocation(1, 100, "a")
	m.TrackAllocation(2, 50, "b")
	s := m.GetStats()
	assert.Equal(t, int64(2), s.ActiveMats)
	assert.Equal(t, int64(150), s.InUse())
	assert.Equal(t, int64(150), s.PeakBytes)

	m.TrackDeallocation(1, "a")
	m.TrackDeallocation(1, "a")
	s = m.GetStats()
	assert.Equal(t, int64(1), s.ActiveMats)
	assert.Equal(t, int64(50), s.InUse())
	assert.Equal(t, int64(150), s.PeakBytes, "peak survives releases")
}

func TestReserveHonoursCeiling(t *testing.T) {
	m := NewManager(nil)
	m.stats.MaxAllowed = 100
	m.TrackAllocation(1, 80, "a")

	require.NoError(t, m.Reserve(20))
	assert.Error(t, m.Reserve(21))
}

func TestLeaksAndCleanup(t *testing.T) {
	m := NewManager(logger.Nop())
	m.TrackAllocation(1, 10, "old")
	m.allocations[1].CreatedAt = time.Now().Add(-time.Hour)
	m.TrackAllocation(2, 10, "new")

	leaks := m.Leaks(time.Minute)
	require.Len(t, leaks, 1)
	assert.Equal(t, "old", leaks[0].Tag)

	m.Cleanup()
	assert.Empty(t, m.Leaks(0))
}

package safe

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

type countingTracker struct {
	mu       sync.Mutex
	live     map[uint64]int64
	released int
}

func newCountingTracker() *countingTracker {
	return &countingTracker{live: make(map[uint64]int64)}
}

func (c *countingTracker) TrackAllocation(id uint64, size int64, _ string) {
	c.mu.Lock()
	c.live[id] = size
	c.mu.Unlock()
}

func (c *countingTracker) TrackDeallocation(id uint64, _ string) {
	c.mu.Lock()
	delete(c.live, id)
	c.released++
	c.mu.Unlock()
}

func TestValidateDimensions(t *testing.T) {
	assert.NoError(t, ValidateDimensions(1, 1, "test"))
	assert.Error(t, ValidateDimensions(0, 10, "test"))
	assert.Error(t, ValidateDimensions(10, -1, "test"))
	assert.Error(t, ValidateDimensions(MaxDimension+1, 10, "test"))
}

func TestFromBytesOwnsDataAndTracks(t *testing.T) {
	tracker := newCountingTracker()
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	m, err := FromBytes(1, 2, gocv.MatTypeCV8UC4, data, tracker, "test")
	require.NoError(t, err)

	data[0] = 99
	got, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, byte(1), got[0], "Mat must not alias the input slice")
	assert.Equal(t, int64(8), tracker.live[m.ID()])
	assert.NoError(t, ValidateBGRA(m, "test"))

	m.Close()
	m.Close()
	assert.False(t, m.IsValid())
	assert.Empty(t, tracker.live)
	assert.Equal(t, 1, tracker.released, "Close is idempotent")
	assert.Error(t, ValidateMatForOperation(m, "test"))
}

func TestValidateBGRARejectsOtherTypes(t *testing.T) {
	m, err := NewMat(2, 2, gocv.MatTypeCV8UC3, nil, "bgr")
	require.NoError(t, err)
	defer m.Close()
	assert.Error(t, ValidateBGRA(m, "test"))
	assert.Error(t, ValidateMatForOperation(nil, "test"))
}

package models

import (
	"sync"
	"time"
)

// Activity names a long-running shell operation.
type Activity string

const (
	ActivityIdle    Activity = ""
	ActivityLoading Activity = "loading"
	ActivitySaving  Activity = "saving"
	ActivitySharing Activity = "sharing"
)

// ActivityState is a snapshot of the operation in progress.
type ActivityState struct {
	Active    bool
	Activity  Activity
	StartTime time.Time
}

// Elapsed returns how long the current activity has been running.
func (s ActivityState) Elapsed() time.Duration {
	if !s.Active {
		return 0
	}
	return time.Since(s.StartTime)
}

// ActivityRepository guards against overlapping shell operations. At most
// one activity runs at a time.
type ActivityRepository struct {
	mu    sync.RWMutex
	state ActivityState
}

func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{}
}

// TryStart marks a as running. It returns false if another activity is
// already active.
func (r *ActivityRepository) TryStart(a Activity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Active {
		return false
	}
	r.state = ActivityState{Active: true, Activity: a, StartTime: time.Now()}
	return true
}

// Complete ends the current activity and returns its final state.
func (r *ActivityRepository) Complete() ActivityState {
	r.mu.Lock()
	defer r.mu.Unlock()
	done := r.state
	r.state = ActivityState{}
	return done
}

func (r *ActivityRepository) GetState() ActivityState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// IsActive reports whether a, or any activity when a is idle, is running.
func (r *ActivityRepository) IsActive(a Activity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.state.Active {
		return false
	}
	return a == ActivityIdle || r.state.Activity == a
}

package model

import (
	"sync"
	"time"
)

// ApiStatus holds process-wide fetch-layer counters. Only the fetch client
// writes to it; rendering and the status command read snapshots.
type ApiStatus struct {
	mu                sync.Mutex
	profilesAttempted int
	profilesFailed    int
	lastError         string
	lastErrorAt       time.Time
}

// ApiStatusSnapshot is a point-in-time copy safe to hand to readers.
type ApiStatusSnapshot struct {
	ProfilesAttempted int       `json:"profilesAttempted"`
	ProfilesFailed    int       `json:"profilesFailed"`
	LastError         string    `json:"lastError,omitempty"`
	LastErrorAt       time.Time `json:"lastErrorAt,omitempty"`
}

// RecordProfileAttempt increments the attempted-profiles counter.
func (s *ApiStatus) RecordProfileAttempt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profilesAttempted++
}

// RecordProfileFailure increments the failed-profiles counter and stores
// the error as the last observed one.
func (s *ApiStatus) RecordProfileFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profilesFailed++
	if err != nil {
		s.lastError = err.Error()
		s.lastErrorAt = time.Now()
	}
}

// RecordError stores a non-profile fetch error as the last observed one.
func (s *ApiStatus) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err.Error()
	s.lastErrorAt = time.Now()
}

// Snapshot returns a copy of the current counters.
func (s *ApiStatus) Snapshot() ApiStatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ApiStatusSnapshot{
		ProfilesAttempted: s.profilesAttempted,
		ProfilesFailed:    s.profilesFailed,
		LastError:         s.lastError,
		LastErrorAt:       s.lastErrorAt,
	}
}

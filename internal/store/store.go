// Package store holds per-user capacity overrides and workspace
// configuration. State lives in memory; every mutation is persisted
// best-effort through a storage.KV collaborator keyed by workspace id.
package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/apet97/worklens/internal/storage"
)

// OverrideMode selects how a user's capacity overrides apply.
type OverrideMode string

const (
	// ModeNone removes all overrides for the user.
	ModeNone OverrideMode = "none"
	// ModeGlobal applies one capacity/working-days pair every day.
	ModeGlobal OverrideMode = "global"
	// ModePerDay applies overrides only on explicitly listed dates.
	ModePerDay OverrideMode = "perDay"
)

// ParseOverrideMode validates a mode string.
func ParseOverrideMode(s string) (OverrideMode, error) {
	switch OverrideMode(s) {
	case ModeNone, ModeGlobal, ModePerDay:
		return OverrideMode(s), nil
	}
	return "", fmt.Errorf("unknown override mode %q", s)
}

// DayOverride carries the per-date capacity/working pair. Unset fields
// fall back to the user's profile or the workspace defaults.
type DayOverride struct {
	CapacityHours *float64 `json:"capacityHours,omitempty"`
	Working       *bool    `json:"working,omitempty"`
}

// OverrideRecord is the per-user override state. PerDay entries exist
// only in ModePerDay.
type OverrideRecord struct {
	Mode          OverrideMode           `json:"mode"`
	CapacityHours *float64               `json:"capacityHours,omitempty"`
	WorkingDays   []time.Weekday         `json:"workingDays,omitempty"`
	PerDay        map[string]DayOverride `json:"perDayOverrides,omitempty"`
}

const (
	overridesKey = "overrides"
	configKey    = "config"
)

// Store owns the override mapping and workspace configuration. It is the
// only writer of its own state; readers receive it by injection.
type Store struct {
	mu          sync.Mutex
	kv          storage.KV
	workspaceID string
	log         *logrus.Logger

	overrides map[string]*OverrideRecord
	config    Config
}

// New loads persisted state for the workspace. Corrupted persisted data
// resets to empty state instead of failing initialization.
func New(kv storage.KV, workspaceID string, log *logrus.Logger) *Store {
	s := &Store{
		kv:          kv,
		workspaceID: workspaceID,
		log:         log,
		overrides:   make(map[string]*OverrideRecord),
		config:      DefaultConfig(),
	}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := s.kv.Get(s.workspaceID, overridesKey)
	if err != nil {
		s.log.WithError(err).Warn("loading overrides failed, starting empty")
	} else if len(data) > 0 {
		var overrides map[string]*OverrideRecord
		if err := json.Unmarshal(data, &overrides); err != nil {
			s.log.WithError(err).Warn("persisted overrides are corrupt, starting empty")
		} else {
			s.overrides = overrides
		}
	}
	if s.overrides == nil {
		s.overrides = make(map[string]*OverrideRecord)
	}

	data, err = s.kv.Get(s.workspaceID, configKey)
	if err != nil {
		s.log.WithError(err).Warn("loading config failed, using defaults")
		return
	}
	if len(data) == 0 {
		return
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.log.WithError(err).Warn("persisted config is corrupt, using defaults")
		return
	}
	s.config = cfg
}

// persist writes the given key best-effort. A failed write keeps the
// in-memory mutation and only logs.
func (s *Store) persist(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("marshalling state failed")
		return
	}
	if err := s.kv.Put(s.workspaceID, key, data); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("persisting state failed, keeping in-memory change")
	}
}

// validHours rejects NaN, infinities and negative values. Capacity must
// be a finite non-negative hour count.
func validHours(hours float64) error {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return fmt.Errorf("capacity must be finite, got %v", hours)
	}
	if hours < 0 {
		return fmt.Errorf("capacity must not be negative, got %v", hours)
	}
	return nil
}

func validDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}
	return nil
}

// SetOverrideMode switches the user's override mode. ModeNone drops all
// override data for the user; there is no history to restore from.
func (s *Store) SetOverrideMode(userID string, mode OverrideMode) error {
	if _, err := ParseOverrideMode(string(mode)); err != nil {
		return err
	}
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == ModeNone {
		delete(s.overrides, userID)
		s.persist(overridesKey, s.overrides)
		return nil
	}

	rec := s.overrides[userID]
	if rec == nil {
		rec = &OverrideRecord{}
		s.overrides[userID] = rec
	}
	rec.Mode = mode
	if mode != ModePerDay {
		rec.PerDay = nil
	}
	s.persist(overridesKey, s.overrides)
	return nil
}

// UpdateCapacity sets the global-mode daily capacity for the user,
// creating the record in ModeGlobal when absent.
func (s *Store) UpdateCapacity(userID string, hours float64) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if err := validHours(hours); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.overrides[userID]
	if rec == nil {
		rec = &OverrideRecord{Mode: ModeGlobal}
		s.overrides[userID] = rec
	}
	if rec.Mode != ModeGlobal {
		return fmt.Errorf("user %s is in %s mode, not global", userID, rec.Mode)
	}
	h := hours
	rec.CapacityHours = &h
	s.persist(overridesKey, s.overrides)
	return nil
}

// UpdateWorkingDays sets the global-mode working weekdays for the user,
// creating the record in ModeGlobal when absent.
func (s *Store) UpdateWorkingDays(userID string, days []time.Weekday) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	seen := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("invalid weekday %d", d)
		}
		if seen[d] {
			return fmt.Errorf("duplicate weekday %s", d)
		}
		seen[d] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.overrides[userID]
	if rec == nil {
		rec = &OverrideRecord{Mode: ModeGlobal}
		s.overrides[userID] = rec
	}
	if rec.Mode != ModeGlobal {
		return fmt.Errorf("user %s is in %s mode, not global", userID, rec.Mode)
	}
	rec.WorkingDays = append([]time.Weekday(nil), days...)
	s.persist(overridesKey, s.overrides)
	return nil
}

// UpdateDayCapacity sets the capacity for one calendar date. A user
// without a record is implicitly initialized in ModePerDay.
func (s *Store) UpdateDayCapacity(userID, date string, hours float64) error {
	if err := validHours(hours); err != nil {
		return err
	}
	h := hours
	return s.updateDay(userID, date, func(d *DayOverride) {
		d.CapacityHours = &h
	})
}

// UpdateDayWorking sets the working flag for one calendar date. A user
// without a record is implicitly initialized in ModePerDay.
func (s *Store) UpdateDayWorking(userID, date string, working bool) error {
	w := working
	return s.updateDay(userID, date, func(d *DayOverride) {
		d.Working = &w
	})
}

func (s *Store) updateDay(userID, date string, apply func(*DayOverride)) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if err := validDate(date); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.overrides[userID]
	if rec == nil {
		rec = &OverrideRecord{Mode: ModePerDay}
		s.overrides[userID] = rec
	}
	rec.Mode = ModePerDay
	if rec.PerDay == nil {
		rec.PerDay = make(map[string]DayOverride)
	}
	d := rec.PerDay[date]
	apply(&d)
	rec.PerDay[date] = d
	s.persist(overridesKey, s.overrides)
	return nil
}

// Override returns a copy of the user's override record, if any.
func (s *Store) Override(userID string) (OverrideRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.overrides[userID]
	if !ok {
		return OverrideRecord{}, false
	}
	out := OverrideRecord{Mode: rec.Mode}
	if rec.CapacityHours != nil {
		h := *rec.CapacityHours
		out.CapacityHours = &h
	}
	out.WorkingDays = append([]time.Weekday(nil), rec.WorkingDays...)
	if rec.PerDay != nil {
		out.PerDay = make(map[string]DayOverride, len(rec.PerDay))
		for k, v := range rec.PerDay {
			out.PerDay[k] = v
		}
	}
	return out, true
}

// OverrideCount returns the number of users with an active override.
func (s *Store) OverrideCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.overrides)
}

// Config returns a copy of the workspace configuration.
func (s *Store) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.clone()
}

// SetConfig validates and replaces the workspace configuration.
func (s *Store) SetConfig(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg.clone()
	s.persist(configKey, s.config)
	return nil
}

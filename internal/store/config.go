package store

import (
	"fmt"
	"math"
	"time"

	"github.com/apet97/worklens/internal/model"
)

// Config is the workspace-level configuration the analysis engine reads
// as the last fallback in capacity resolution, plus the overtime policy.
type Config struct {
	DefaultCapacityHours float64        `json:"defaultCapacityHours"`
	DefaultWorkingDays   []time.Weekday `json:"defaultWorkingDays"`

	OvertimeMultiplier float64      `json:"overtimeMultiplier"`
	Tiered             bool         `json:"tiered"`
	Tiers              []model.Tier `json:"tiers,omitempty"`

	// AdjustForTimeOff zeroes capacity on holidays and approved time off.
	AdjustForTimeOff bool `json:"adjustForTimeOff"`
}

// DefaultConfig returns the built-in defaults: 8h days, Monday to Friday,
// time-and-a-half overtime, time-off adjustment on.
func DefaultConfig() Config {
	return Config{
		DefaultCapacityHours: 8,
		DefaultWorkingDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		OvertimeMultiplier: 1.5,
		AdjustForTimeOff:   true,
	}
}

// WorksOn reports whether the weekday is a default working day.
func (c Config) WorksOn(day time.Weekday) bool {
	for _, d := range c.DefaultWorkingDays {
		if d == day {
			return true
		}
	}
	return false
}

func (c Config) validate() error {
	if math.IsNaN(c.DefaultCapacityHours) || math.IsInf(c.DefaultCapacityHours, 0) || c.DefaultCapacityHours < 0 {
		return fmt.Errorf("default capacity must be a finite non-negative hour count")
	}
	if math.IsNaN(c.OvertimeMultiplier) || math.IsInf(c.OvertimeMultiplier, 0) || c.OvertimeMultiplier <= 0 {
		return fmt.Errorf("overtime multiplier must be a finite positive number")
	}
	for _, d := range c.DefaultWorkingDays {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("invalid weekday %d in default working days", d)
		}
	}
	prev := -1.0
	for _, t := range c.Tiers {
		if t.AfterHours < 0 || t.AfterHours <= prev {
			return fmt.Errorf("tiers must have ascending non-negative thresholds")
		}
		if t.Multiplier <= 0 || math.IsNaN(t.Multiplier) || math.IsInf(t.Multiplier, 0) {
			return fmt.Errorf("tier multiplier must be a finite positive number")
		}
		prev = t.AfterHours
	}
	return nil
}

func (c Config) clone() Config {
	out := c
	out.DefaultWorkingDays = append([]time.Weekday(nil), c.DefaultWorkingDays...)
	out.Tiers = append([]model.Tier(nil), c.Tiers...)
	return out
}

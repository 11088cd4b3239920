package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/apet97/worklens/internal/apperr"
	"github.com/apet97/worklens/internal/model"
)

// Basis selects how actual hours are compared against capacity.
type Basis string

const (
	BasisDaily  Basis = "daily"
	BasisWeekly Basis = "weekly"
)

// ParseBasis validates an overtime basis string.
func ParseBasis(s string) (Basis, error) {
	switch Basis(s) {
	case BasisDaily, BasisWeekly:
		return Basis(s), nil
	}
	return "", fmt.Errorf("unknown overtime basis %q", s)
}

// AmountMode selects which amount the presentation layer displays.
type AmountMode string

const (
	AmountEarned AmountMode = "earned"
	AmountCost   AmountMode = "cost"
	AmountProfit AmountMode = "profit"
)

// ParseAmountMode validates an amount-display mode string.
func ParseAmountMode(s string) (AmountMode, error) {
	switch AmountMode(s) {
	case AmountEarned, AmountCost, AmountProfit:
		return AmountMode(s), nil
	}
	return "", fmt.Errorf("unknown amount mode %q", s)
}

// Dimension is the closed set of grouping dimensions. Anything outside
// the enumeration fails at validation time, never silently.
type Dimension string

const (
	GroupUser    Dimension = "user"
	GroupProject Dimension = "project"
	GroupClient  Dimension = "client"
	GroupTask    Dimension = "task"
	GroupWeek    Dimension = "week"
)

// ParseDimension validates a grouping dimension string.
func ParseDimension(s string) (Dimension, error) {
	switch Dimension(s) {
	case GroupUser, GroupProject, GroupClient, GroupTask, GroupWeek:
		return Dimension(s), nil
	}
	return "", fmt.Errorf("unknown grouping dimension %q", s)
}

// CalcParams configures one analysis run. Start and End are inclusive
// civil dates.
type CalcParams struct {
	Start time.Time
	End   time.Time

	Basis      Basis
	GroupBy    Dimension
	AmountMode AmountMode

	Tiered             bool
	Tiers              []model.Tier
	OvertimeMultiplier float64

	AdjustForTimeOff bool
}

// Validate checks the parameters and returns a VALIDATION-classified
// error describing the first problem found.
func (p CalcParams) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return apperr.Validation("date range start and end are required")
	}
	if p.End.Before(p.Start) {
		return apperr.Validation(fmt.Sprintf("date range end %s is before start %s",
			p.End.Format("2006-01-02"), p.Start.Format("2006-01-02")))
	}
	if _, err := ParseBasis(string(p.Basis)); err != nil {
		return apperr.Validation(err.Error())
	}
	if _, err := ParseDimension(string(p.GroupBy)); err != nil {
		return apperr.Validation(err.Error())
	}
	if _, err := ParseAmountMode(string(p.AmountMode)); err != nil {
		return apperr.Validation(err.Error())
	}
	if math.IsNaN(p.OvertimeMultiplier) || math.IsInf(p.OvertimeMultiplier, 0) || p.OvertimeMultiplier <= 0 {
		return apperr.Validation("overtime multiplier must be a finite positive number")
	}
	if p.Tiered {
		if len(p.Tiers) == 0 {
			return apperr.Validation("tiered overtime requires at least one tier")
		}
		prev := -1.0
		for _, t := range p.Tiers {
			if t.AfterHours < 0 || t.AfterHours <= prev {
				return apperr.Validation("tier thresholds must be non-negative and strictly ascending")
			}
			if t.Multiplier <= 0 || math.IsNaN(t.Multiplier) || math.IsInf(t.Multiplier, 0) {
				return apperr.Validation("tier multipliers must be finite positive numbers")
			}
			prev = t.AfterHours
		}
	}
	return nil
}

// Package analysis converts normalized time entries, profiles, overrides
// and calendars into aggregated overtime and billing figures. Calculate
// is pure and total: it never mutates its inputs and never panics on
// malformed entries.
package analysis

import (
	"math"
	"time"

	"github.com/apet97/worklens/internal/model"
	"github.com/apet97/worklens/internal/store"
	"github.com/apet97/worklens/internal/timecalc"
)

type engine struct {
	store    *store.Store
	profiles map[string]model.UserProfile
	cal      model.Calendar
	cfg      store.Config
	params   CalcParams

	// cumulative logged hours per user+period, in input order
	periodHours map[string]float64
	// resolved capacity per user+period and per user+date
	periodCap map[string]float64
	dayCap    map[string]float64
}

// Calculate runs the analysis. Params must have passed Validate; an
// invalid grouping dimension yields empty buckets rather than a panic.
func Calculate(entries []model.TimeEntry, profiles map[string]model.UserProfile, st *store.Store, cal model.Calendar, params CalcParams) Result {
	e := &engine{
		store:       st,
		profiles:    profiles,
		cal:         cal,
		cfg:         st.Config(),
		params:      params,
		periodHours: make(map[string]float64),
		periodCap:   make(map[string]float64),
		dayCap:      make(map[string]float64),
	}

	groups := make(map[string]*GroupSummary)
	var order []string
	totals := GroupSummary{Key: "total", Label: "Total"}

	for i := range entries {
		entry := entries[i]
		hours := entryHours(entry)
		regular, otStart, otEnd := e.split(entry, hours)
		overtime := otEnd - otStart

		earned := float64(entry.HourlyRate.Amount) / 100
		cost := float64(entry.CostRate.Amount) / 100
		amt := Amounts{
			Earned: AmountPair{Regular: regular * earned, Overtime: e.overtimeAmount(otStart, otEnd, earned)},
			Cost:   AmountPair{Regular: regular * cost, Overtime: e.overtimeAmount(otStart, otEnd, cost)},
		}
		amt.Profit = AmountPair{
			Regular:  amt.Earned.Regular - amt.Cost.Regular,
			Overtime: amt.Earned.Overtime - amt.Cost.Overtime,
		}

		key, label := groupKeyLabel(entry, params.GroupBy)
		g, ok := groups[key]
		if !ok {
			g = &GroupSummary{Key: key, Label: label}
			groups[key] = g
			order = append(order, key)
		}
		accumulate(g, entry.Billable, hours, regular, overtime, amt)
		accumulate(&totals, entry.Billable, hours, regular, overtime, amt)
	}

	result := Result{Totals: totals, Groups: make([]GroupSummary, 0, len(order))}
	for _, key := range order {
		result.Groups = append(result.Groups, *groups[key])
	}
	return result
}

func accumulate(g *GroupSummary, billable bool, hours, regular, overtime float64, amt Amounts) {
	g.TotalHours += hours
	if billable {
		g.BillableHours += hours
	} else {
		g.NonBillableHours += hours
	}
	g.RegularHours += regular
	g.OvertimeHours += overtime
	g.Amounts.Earned.Regular += amt.Earned.Regular
	g.Amounts.Earned.Overtime += amt.Earned.Overtime
	g.Amounts.Cost.Regular += amt.Cost.Regular
	g.Amounts.Cost.Overtime += amt.Cost.Overtime
	g.Amounts.Profit.Regular += amt.Profit.Regular
	g.Amounts.Profit.Overtime += amt.Profit.Overtime
}

// entryHours tolerates malformed input: a missing user, an unparsable
// duration with no usable interval, or an inverted interval all
// contribute zero.
func entryHours(e model.TimeEntry) float64 {
	if e.UserID == "" {
		return 0
	}
	d, err := timecalc.ParsePeriod(e.Duration)
	if err != nil || d < 0 {
		if !e.Start.IsZero() && !e.End.IsZero() && e.End.After(e.Start) {
			d = e.End.Sub(e.Start)
		} else {
			return 0
		}
	}
	return d.Hours()
}

// split returns the entry's regular hours plus the overtime interval it
// occupies, measured in hours beyond the period's capacity. Entries
// without a usable start date never count as overtime.
func (e *engine) split(entry model.TimeEntry, hours float64) (regular, otStart, otEnd float64) {
	if hours <= 0 {
		return 0, 0, 0
	}
	if entry.Start.IsZero() {
		return hours, 0, 0
	}

	pkey := entry.UserID + "|" + e.periodKey(entry.Start)
	capHours, ok := e.periodCap[pkey]
	if !ok {
		capHours = e.periodCapacity(entry.UserID, entry.Start)
		e.periodCap[pkey] = capHours
	}

	before := e.periodHours[pkey]
	after := before + hours
	e.periodHours[pkey] = after

	regular = math.Min(after, capHours) - math.Min(before, capHours)
	if regular < 0 {
		regular = 0
	}
	otStart = math.Max(before-capHours, 0)
	otEnd = otStart + (hours - regular)
	return regular, otStart, otEnd
}

func (e *engine) periodKey(t time.Time) string {
	if e.params.Basis == BasisWeekly {
		return timecalc.ISOWeekLabel(t)
	}
	return timecalc.DateKey(t)
}

// periodCapacity resolves the capacity for the entry's period. Weekly
// capacity sums daily capacities across the ISO week, clamped to the
// analysis date range.
func (e *engine) periodCapacity(userID string, t time.Time) float64 {
	if e.params.Basis != BasisWeekly {
		return e.capacityDay(userID, t)
	}
	monday, sunday := timecalc.WeekRange(t)
	from := timecalc.StartOfDay(e.params.Start)
	to := timecalc.EndOfDay(e.params.End)
	var sum float64
	for d := monday; !d.After(sunday); d = d.AddDate(0, 0, 1) {
		if d.Before(from) || d.After(to) {
			continue
		}
		sum += e.capacityDay(userID, d)
	}
	return sum
}

// capacityDay resolves one user-date capacity in hours. Resolution order:
// per-day override, global override, profile, workspace default. Days
// outside the working-day set, holidays and approved time off resolve
// to zero (the latter two only when AdjustForTimeOff is set).
func (e *engine) capacityDay(userID string, day time.Time) float64 {
	date := timecalc.DateKey(day)
	ckey := userID + "|" + date
	if cached, ok := e.dayCap[ckey]; ok {
		return cached
	}

	weekday := day.Weekday()
	capHours := e.cfg.DefaultCapacityHours
	working := e.cfg.WorksOn(weekday)

	if p, ok := e.profiles[userID]; ok {
		if p.Capacity != "" {
			if d, err := timecalc.ParsePeriod(p.Capacity); err == nil && d >= 0 {
				capHours = d.Hours()
			}
		}
		if len(p.WorkingDays) > 0 {
			working = p.WorksOn(weekday)
		}
	}

	if rec, ok := e.store.Override(userID); ok {
		switch rec.Mode {
		case store.ModeGlobal:
			if rec.CapacityHours != nil {
				capHours = *rec.CapacityHours
			}
			if len(rec.WorkingDays) > 0 {
				working = false
				for _, d := range rec.WorkingDays {
					if d == weekday {
						working = true
					}
				}
			}
		case store.ModePerDay:
			if d, ok := rec.PerDay[date]; ok {
				if d.CapacityHours != nil {
					capHours = *d.CapacityHours
				}
				if d.Working != nil {
					working = *d.Working
				}
			}
		}
	}

	result := capHours
	if !working {
		result = 0
	}
	if e.params.AdjustForTimeOff && e.cal.ZeroCapacity(userID, date) {
		result = 0
	}
	e.dayCap[ckey] = result
	return result
}

// overtimeAmount prices the overtime interval [otStart, otEnd) at the
// given base hourly rate. With tiering disabled a single multiplier
// applies; tiers cover ascending bands of hours beyond capacity, the
// last band extending indefinitely. Hours below the first tier's
// threshold fall back to the flat multiplier.
func (e *engine) overtimeAmount(otStart, otEnd, rate float64) float64 {
	if otEnd <= otStart {
		return 0
	}
	if !e.params.Tiered || len(e.params.Tiers) == 0 {
		return (otEnd - otStart) * rate * e.params.OvertimeMultiplier
	}

	var total float64
	if first := e.params.Tiers[0].AfterHours; otStart < first {
		upper := math.Min(otEnd, first)
		total += (upper - otStart) * rate * e.params.OvertimeMultiplier
	}
	for i, t := range e.params.Tiers {
		lo := t.AfterHours
		hi := math.Inf(1)
		if i+1 < len(e.params.Tiers) {
			hi = e.params.Tiers[i+1].AfterHours
		}
		from := math.Max(otStart, lo)
		to := math.Min(otEnd, hi)
		if to > from {
			total += (to - from) * rate * t.Multiplier
		}
	}
	return total
}

func groupKeyLabel(e model.TimeEntry, dim Dimension) (string, string) {
	switch dim {
	case GroupProject:
		return idLabel(e.ProjectID, e.ProjectName)
	case GroupClient:
		return idLabel(e.ClientID, e.ClientName)
	case GroupTask:
		return idLabel(e.TaskID, e.TaskName)
	case GroupWeek:
		if e.Start.IsZero() {
			return "unknown", "(unknown week)"
		}
		label := timecalc.ISOWeekLabel(e.Start)
		return label, label
	default: // GroupUser
		return idLabel(e.UserID, e.UserName)
	}
}

func idLabel(id, name string) (string, string) {
	if id == "" {
		id = "none"
	}
	if name == "" {
		name = "(none)"
	}
	return id, name
}

package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/apet97/worklens/internal/model"
	"github.com/apet97/worklens/internal/timecalc"
)

// Wire types accept the upstream shapes as delivered; normalization maps
// them into the canonical internal model exactly once, at this boundary.

type wireRate struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// wireInterval tolerates a duration given either as integer seconds or
// as an ISO-8601 string.
type wireInterval struct {
	Start    string          `json:"start"`
	End      string          `json:"end"`
	Duration json.RawMessage `json:"duration"`
}

type wireEntry struct {
	ID           string        `json:"id"`
	LegacyID     string        `json:"_id"`
	UserID       string        `json:"userId"`
	UserName     string        `json:"userName"`
	Billable     bool          `json:"billable"`
	HourlyRate   *wireRate     `json:"hourlyRate"`
	CostRate     *wireRate     `json:"costRate"`
	TimeInterval *wireInterval `json:"timeInterval"`
	ProjectID    string        `json:"projectId"`
	ProjectName  string        `json:"projectName"`
	ClientID     string        `json:"clientId"`
	ClientName   string        `json:"clientName"`
	TaskID       string        `json:"taskId"`
	TaskName     string        `json:"taskName"`
}

// detailedResponse accepts both field spellings the reports endpoint has
// been observed to emit.
type detailedResponse struct {
	TimeEntries       []wireEntry `json:"timeEntries"`
	TimeEntriesLegacy []wireEntry `json:"timeentries"`
}

func (r detailedResponse) entries() []wireEntry {
	if len(r.TimeEntries) > 0 {
		return r.TimeEntries
	}
	return r.TimeEntriesLegacy
}

type wireUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

type wireProfile struct {
	WorkCapacity string   `json:"workCapacity"`
	WorkingDays  []string `json:"workingDays"`
}

type wireDatePeriod struct {
	StartDate string `json:"startDate"` // "2006-01-02"
	EndDate   string `json:"endDate"`
}

type wireHoliday struct {
	Name       string         `json:"name"`
	DatePeriod wireDatePeriod `json:"datePeriod"`
}

type wireTimeOffPeriod struct {
	Start string `json:"start"` // RFC3339
	End   string `json:"end"`
}

type wireTimeOffRequest struct {
	UserID string `json:"userId"`
	Status struct {
		StatusType string `json:"statusType"`
	} `json:"status"`
	TimeOffPeriod struct {
		Period wireTimeOffPeriod `json:"period"`
	} `json:"timeOffPeriod"`
}

type timeOffResponse struct {
	Requests []wireTimeOffRequest `json:"requests"`
}

func parseWireTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// normalizeDuration converts either representation to ISO-8601, deriving
// from the interval when the supplied duration is unusable.
func normalizeDuration(raw json.RawMessage, start, end time.Time) string {
	// json null unmarshals into an int64 as a no-op, so filter it here
	if len(raw) > 0 && string(raw) != "null" {
		var secs int64
		if err := json.Unmarshal(raw, &secs); err == nil {
			return timecalc.PeriodFromSeconds(secs)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			if _, perr := timecalc.ParsePeriod(s); perr == nil {
				return s
			}
		}
	}
	if !start.IsZero() && !end.IsZero() && end.After(start) {
		return timecalc.FormatPeriod(end.Sub(start))
	}
	return "PT0S"
}

func normalizeRate(r *wireRate) model.Rate {
	if r == nil {
		return model.Rate{}
	}
	return model.Rate{Amount: r.Amount, Currency: r.Currency}
}

// normalizeEntry maps one upstream entry to the canonical model. Missing
// intervals yield a zero-duration entry rather than an error.
func normalizeEntry(w wireEntry) model.TimeEntry {
	id := w.ID
	if id == "" {
		id = w.LegacyID
	}
	e := model.TimeEntry{
		ID:          id,
		UserID:      w.UserID,
		UserName:    w.UserName,
		Billable:    w.Billable,
		HourlyRate:  normalizeRate(w.HourlyRate),
		CostRate:    normalizeRate(w.CostRate),
		ProjectID:   w.ProjectID,
		ProjectName: w.ProjectName,
		ClientID:    w.ClientID,
		ClientName:  w.ClientName,
		TaskID:      w.TaskID,
		TaskName:    w.TaskName,
	}
	if w.TimeInterval == nil {
		e.Duration = "PT0S"
		return e
	}
	e.Start = parseWireTime(w.TimeInterval.Start)
	e.End = parseWireTime(w.TimeInterval.End)
	e.Duration = normalizeDuration(w.TimeInterval.Duration, e.Start, e.End)
	return e
}

// parseWeekday maps upstream weekday names ("MONDAY") to time.Weekday.
func parseWeekday(s string) (time.Weekday, bool) {
	switch strings.ToUpper(s) {
	case "SUNDAY":
		return time.Sunday, true
	case "MONDAY":
		return time.Monday, true
	case "TUESDAY":
		return time.Tuesday, true
	case "WEDNESDAY":
		return time.Wednesday, true
	case "THURSDAY":
		return time.Thursday, true
	case "FRIDAY":
		return time.Friday, true
	case "SATURDAY":
		return time.Saturday, true
	}
	return 0, false
}

func normalizeProfile(userID string, w wireProfile) model.UserProfile {
	p := model.UserProfile{UserID: userID, Capacity: w.WorkCapacity}
	for _, name := range w.WorkingDays {
		if d, ok := parseWeekday(name); ok {
			p.WorkingDays = append(p.WorkingDays, d)
		}
	}
	return p
}

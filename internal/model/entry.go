package model

import "time"

// Rate is an hourly money rate in minor currency units (cents).
type Rate struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// TimeEntry is a single tracked entry as normalized from the upstream API.
// Immutable once fetched; the analysis engine only reads it.
type TimeEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Duration    string    `json:"duration"` // ISO-8601, e.g. "PT1H30M"
	Billable    bool      `json:"billable"`
	HourlyRate  Rate      `json:"hourlyRate"`
	CostRate    Rate      `json:"costRate"`
	ProjectID   string    `json:"projectId"`
	ProjectName string    `json:"projectName"`
	ClientID    string    `json:"clientId"`
	ClientName  string    `json:"clientName"`
	TaskID      string    `json:"taskId"`
	TaskName    string    `json:"taskName"`
}

// User is a workspace member.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// UserProfile carries a member's work capacity and working weekdays.
// A profile may be absent when the profile fetch failed; callers fall
// back to workspace defaults in that case.
type UserProfile struct {
	UserID      string         `json:"userId"`
	Capacity    string         `json:"capacity"` // ISO-8601 per working day, e.g. "PT8H"
	WorkingDays []time.Weekday `json:"workingDays"`
}

// WorksOn reports whether the weekday is one of the profile's working days.
func (p UserProfile) WorksOn(day time.Weekday) bool {
	for _, d := range p.WorkingDays {
		if d == day {
			return true
		}
	}
	return false
}

// Tier is one overtime rate band. AfterHours is measured in hours beyond
// the resolved capacity at which the band starts; Multiplier is applied
// to the entry's base rate for hours falling inside the band.
type Tier struct {
	AfterHours float64 `json:"afterHours"`
	Multiplier float64 `json:"multiplier"`
}

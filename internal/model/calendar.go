package model

// Calendar collects the dates on which a user has no working capacity:
// workspace-wide holidays and the user's approved time off. Dates are
// civil-date keys in "2006-01-02" form.
type Calendar struct {
	Holidays map[string]bool            `json:"holidays"`
	TimeOff  map[string]map[string]bool `json:"timeOff"` // userID -> date -> approved
}

// NewCalendar returns an empty calendar.
func NewCalendar() Calendar {
	return Calendar{
		Holidays: make(map[string]bool),
		TimeOff:  make(map[string]map[string]bool),
	}
}

// AddHoliday marks date as a workspace holiday.
func (c Calendar) AddHoliday(date string) {
	c.Holidays[date] = true
}

// AddTimeOff marks date as approved time off for the user.
func (c Calendar) AddTimeOff(userID, date string) {
	days, ok := c.TimeOff[userID]
	if !ok {
		days = make(map[string]bool)
		c.TimeOff[userID] = days
	}
	days[date] = true
}

// ZeroCapacity reports whether the user has no capacity on date, either
// because of a workspace holiday or approved time off.
func (c Calendar) ZeroCapacity(userID, date string) bool {
	if c.Holidays[date] {
		return true
	}
	return c.TimeOff[userID][date]
}

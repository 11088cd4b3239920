package timecalc

import (
	"fmt"
	"strings"
	"time"
)

// ParsePeriod parses an ISO-8601 duration like "PT8H", "PT1H30M" or
// "P1DT2H" into a time.Duration. Weeks, months and years are not
// supported; the upstream API never emits them for time entries.
func ParsePeriod(s string) (time.Duration, error) {
	orig := s
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", orig)
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	num := 0
	haveNum := false
	haveComponent := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			num = num*10 + int(c-'0')
			haveNum = true
		case c == 'T':
			if inTime || haveNum {
				return 0, fmt.Errorf("invalid ISO-8601 duration %q", orig)
			}
			inTime = true
		default:
			if !haveNum {
				return 0, fmt.Errorf("invalid ISO-8601 duration %q", orig)
			}
			var unit time.Duration
			switch {
			case c == 'D' && !inTime:
				unit = 24 * time.Hour
			case c == 'H' && inTime:
				unit = time.Hour
			case c == 'M' && inTime:
				unit = time.Minute
			case c == 'S' && inTime:
				unit = time.Second
			default:
				return 0, fmt.Errorf("invalid ISO-8601 duration %q", orig)
			}
			total += time.Duration(num) * unit
			num = 0
			haveNum = false
			haveComponent = true
		}
	}
	if haveNum || !haveComponent {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", orig)
	}
	if neg {
		total = -total
	}
	return total, nil
}

// FormatPeriod renders d as an ISO-8601 duration with second precision.
// Zero renders as "PT0S"; sub-second remainders are truncated.
func FormatPeriod(d time.Duration) string {
	neg := d < 0
	if neg {
		d = -d
	}
	secs := int64(d / time.Second)

	h := secs / 3600
	m := (secs % 3600) / 60
	sec := secs % 60

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("PT")
	if h > 0 {
		fmt.Fprintf(&b, "%dH", h)
	}
	if m > 0 {
		fmt.Fprintf(&b, "%dM", m)
	}
	if sec > 0 || secs == 0 {
		fmt.Fprintf(&b, "%dS", sec)
	}
	return b.String()
}

// PeriodFromSeconds converts an integer second count to an ISO-8601 string.
func PeriodFromSeconds(seconds int64) string {
	return FormatPeriod(time.Duration(seconds) * time.Second)
}

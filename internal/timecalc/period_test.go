package timecalc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apet97/worklens/internal/timecalc"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"PT8H", 8 * time.Hour},
		{"PT1H30M", 90 * time.Minute},
		{"PT45M30S", 45*time.Minute + 30*time.Second},
		{"PT0S", 0},
		{"P1DT2H", 26 * time.Hour},
		{"P2D", 48 * time.Hour},
		{"-PT30M", -30 * time.Minute},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := timecalc.ParsePeriod(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParsePeriodInvalid(t *testing.T) {
	for _, in := range []string{"", "8h", "P", "PT", "PTH", "PT1H2", "T1H", "PT1X", "P1H"} {
		t.Run(in, func(t *testing.T) {
			_, err := timecalc.ParsePeriod(in)
			assert.Error(t, err)
		})
	}
}

func TestFormatPeriod(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "PT0S"},
		{8 * time.Hour, "PT8H"},
		{90 * time.Minute, "PT1H30M"},
		{45*time.Minute + 30*time.Second, "PT45M30S"},
		{-30 * time.Minute, "-PT30M"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, timecalc.FormatPeriod(tc.in))
	}
}

// Durations supplied as raw seconds must survive the trip through the
// ISO-8601 representation unchanged.
func TestPeriodSecondsRoundTrip(t *testing.T) {
	for _, secs := range []int64{0, 1, 59, 60, 3599, 3600, 5400, 86400, 123456} {
		s := timecalc.PeriodFromSeconds(secs)
		d, err := timecalc.ParsePeriod(s)
		require.NoError(t, err, "parsing %q", s)
		assert.Equal(t, secs, int64(d/time.Second), "round trip of %d via %q", secs, s)
	}
}

func TestISOWeekLabel(t *testing.T) {
	assert.Equal(t, "2026-W10", timecalc.ISOWeekLabel(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)))
	// January 1st can belong to the previous ISO year.
	assert.Equal(t, "2020-W53", timecalc.ISOWeekLabel(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestWeekRange(t *testing.T) {
	// A Wednesday.
	monday, sunday := timecalc.WeekRange(time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC))
	assert.Equal(t, "2026-03-02", timecalc.DateKey(monday))
	assert.Equal(t, "2026-03-08", timecalc.DateKey(sunday))

	// Sunday belongs to the same ISO week.
	monday, _ = timecalc.WeekRange(time.Date(2026, 3, 8, 1, 0, 0, 0, time.UTC))
	assert.Equal(t, "2026-03-02", timecalc.DateKey(monday))
}

package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"09:05", "09:05", true},
		{"9:05", "09:05", true},
		{" 18:10 ", "18:10", true},
		{"07:30:15", "07:30:15", true},
		{"00:00", "00:00", true},
		{"24:00", "", false},
		{"12:60", "", false},
		{"ab:cd", "", false},
		{"--:--", "", false},
		{"-", "", false},
		{"", "", false},
		{"123:00", "", false},
		{"12", "", false},
	}
	for _, tc := range cases {
		c, ok := ParseClock(tc.in)
		require.Equal(t, tc.ok, ok, "input %q", tc.in)
		if ok {
			require.Equal(t, tc.want, c.String(), "input %q", tc.in)
		}
	}
}

func TestClockOn(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	day := time.Date(2024, 10, 1, 0, 0, 0, 0, loc)
	c, ok := ParseClock("09:05")
	require.True(t, ok)

	ts := c.On(day, loc)
	require.Equal(t, "2024-10-01T09:05:00+05:30", ts.Format(time.RFC3339))
}

func TestDurationHours(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 7.5, DurationHours("07:30:00"), 1e-9)
	require.InDelta(t, 1.0+1.0/60+1.0/3600, DurationHours("01:01:01"), 1e-9)
	require.InDelta(t, 0.25, DurationHours("00:15"), 1e-9)
	require.InDelta(t, 26.0, DurationHours("26:00:00"), 1e-9)
	require.Zero(t, DurationHours("-"))
	require.Zero(t, DurationHours(""))
	require.Zero(t, DurationHours("garbage"))
	require.Zero(t, DurationHours("1:xx:00"))
}

func TestParsePercent(t *testing.T) {
	t.Parallel()

	p := ParsePercent("85.5%")
	require.NotNil(t, p)
	require.InDelta(t, 85.5, *p, 1e-9)

	zero := ParsePercent("0%")
	require.NotNil(t, zero, "an explicit zero is a value, not an absence")
	require.Zero(t, *zero)

	require.Nil(t, ParsePercent("-"))
	require.Nil(t, ParsePercent(""))
	require.Nil(t, ParsePercent("n/a"))
	require.Nil(t, ParsePercent("high"))
}

func TestParseMinutesAndDecimal(t *testing.T) {
	t.Parallel()

	require.Equal(t, 45, ParseMinutes("45"))
	require.Equal(t, 12, ParseMinutes("12.9"))
	require.Equal(t, 0, ParseMinutes("-"))
	require.Equal(t, 0, ParseMinutes("x"))

	f, ok := ParseDecimal("8.50")
	require.True(t, ok)
	require.InDelta(t, 8.5, f, 1e-9)
	_, ok = ParseDecimal("P")
	require.False(t, ok)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"2024-10-01", "01/10/2024", "1/10/2024", "01-10-2024", "1 Oct 2024", "Oct 1, 2024"} {
		d, ok := ParseDate(in, time.UTC)
		require.True(t, ok, in)
		require.Equal(t, "2024-10-01", DateKey(d), in)
	}
	_, ok := ParseDate("yesterday", time.UTC)
	require.False(t, ok)
	_, ok = ParseDate("-", time.UTC)
	require.False(t, ok)
}

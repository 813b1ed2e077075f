package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	testCases := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{input: "09:00", want: Clock(9, 0)},
		{input: "9:30", want: Clock(9, 30)},
		{input: "23:59", want: Clock(23, 59)},
		{input: "00:00", want: 0},
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "12:5", wantErr: true},
		{input: "1200", wantErr: true},
		{input: "+9:00", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "09:05", Clock(9, 5).String())
	assert.Equal(t, "17:00", Clock(16, 30).Add(30).String())
}

func TestTimeOfDayTextRoundTrip(t *testing.T) {
	var v TimeOfDay
	require.NoError(t, v.UnmarshalText([]byte("14:30")))
	assert.Equal(t, Clock(14, 30), v)
	assert.Error(t, v.UnmarshalText([]byte("lunch")))
}

func TestParseDate(t *testing.T) {
	legacy, err := ParseDate("01/06/2024", time.UTC)
	require.NoError(t, err)
	iso, err := ParseDate("2024-06-01", time.UTC)
	require.NoError(t, err)

	assert.True(t, legacy.Equal(iso))
	assert.Equal(t, time.Saturday, legacy.Weekday())
	assert.Equal(t, "01/06/2024", FormatDate(legacy))

	_, err = ParseDate("2024/06/01", time.UTC)
	assert.Error(t, err)
}

func TestDateInKeepsCalendarDay(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	utcMidnight := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	day := DateIn(utcMidnight, saoPaulo)
	assert.Equal(t, 1, day.Day())
	assert.Equal(t, saoPaulo, day.Location())

	// Day converts the instant first.
	assert.Equal(t, 31, Day(utcMidnight, saoPaulo).Day())
}

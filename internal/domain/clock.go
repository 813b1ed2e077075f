package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Legacy layouts used by stored records.
const (
	DateLayout        = "02/01/2006"
	DisabledDayLayout = "02-01-2006"
	ISODateLayout     = "2006-01-02"
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// Clock builds a TimeOfDay from hours and minutes.
func Clock(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses a 24-hour "HH:MM" string. A single digit hour is accepted.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || hh[0] == '+' || hh[0] == '-' {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || mm[0] == '+' || mm[0] == '-' {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return Clock(h, m), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Add returns t shifted by the given number of minutes.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On places t on the given calendar day in the day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, t.Hour(), t.Minute(), 0, 0, day.Location())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// TimeOfDayFrom extracts the wall-clock part of ts.
func TimeOfDayFrom(ts time.Time) TimeOfDay {
	return Clock(ts.Hour(), ts.Minute())
}

// Day truncates ts to midnight in loc.
func Day(ts time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	ts = ts.In(loc)
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DateIn keeps the calendar components of ts and pins them to midnight in loc,
// without converting the instant between zones.
func DateIn(ts time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate accepts both the legacy "DD/MM/YYYY" and ISO "YYYY-MM-DD" forms.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range []string{DateLayout, ISODateLayout} {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected DD/MM/YYYY or YYYY-MM-DD", s)
}

// FormatDate renders day in the legacy record layout.
func FormatDate(day time.Time) string {
	return day.Format(DateLayout)
}

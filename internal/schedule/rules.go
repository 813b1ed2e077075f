package schedule

import (
	"fmt"
	"time"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
)

// Rules is the shop's calendar configuration. Every day-specific rule the
// engine applies lives here rather than in literals.
type Rules struct {
	Location        *time.Location
	Opening         domain.TimeOfDay
	WeekdayClosing  domain.TimeOfDay
	SaturdayClosing domain.TimeOfDay
	LunchStart      domain.TimeOfDay
	LunchEnd        domain.TimeOfDay
	StepMinutes     int
	ClosedWeekdays  []time.Weekday
}

// DefaultRules mirrors the shop's published hours: 09:00-20:00 on weekdays,
// 09:00-17:00 on Saturdays, lunch 12:00-13:00, closed on Sundays and Mondays.
func DefaultRules() Rules {
	return Rules{
		Location:        time.Local,
		Opening:         domain.Clock(9, 0),
		WeekdayClosing:  domain.Clock(20, 0),
		SaturdayClosing: domain.Clock(17, 0),
		LunchStart:      domain.Clock(12, 0),
		LunchEnd:        domain.Clock(13, 0),
		StepMinutes:     30,
		ClosedWeekdays:  []time.Weekday{time.Sunday, time.Monday},
	}
}

func (r Rules) Validate() error {
	if r.StepMinutes <= 0 {
		return fmt.Errorf("%w: step must be positive", ErrInvalidRules)
	}
	if r.WeekdayClosing <= r.Opening || r.SaturdayClosing <= r.Opening {
		return fmt.Errorf("%w: closing must be after opening", ErrInvalidRules)
	}
	if r.LunchEnd < r.LunchStart {
		return fmt.Errorf("%w: lunch ends before it starts", ErrInvalidRules)
	}
	return nil
}

// ClosingFor returns the closing boundary that applies to day.
func (r Rules) ClosingFor(day time.Time) domain.TimeOfDay {
	if day.Weekday() == time.Saturday {
		return r.SaturdayClosing
	}
	return r.WeekdayClosing
}

// ClosedOn reports whether day falls on a weekday the shop never opens.
func (r Rules) ClosedOn(day time.Time) bool {
	for _, wd := range r.ClosedWeekdays {
		if day.Weekday() == wd {
			return true
		}
	}
	return false
}

// OnGrid reports whether t is a step boundary counted from opening.
func (r Rules) OnGrid(t domain.TimeOfDay) bool {
	return t >= r.Opening && int(t-r.Opening)%r.StepMinutes == 0
}

func (r Rules) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

package schedule

import "errors"

var (
	ErrPastDate       = errors.New("date is in the past")
	ErrClosedWeekday  = errors.New("shop is closed on this weekday")
	ErrDayDisabled    = errors.New("day was disabled by the shop")
	ErrPastTime       = errors.New("time has already passed")
	ErrBeforeOpening  = errors.New("time is before opening")
	ErrAfterClosing   = errors.New("appointment would end after closing")
	ErrLunchBreak     = errors.New("time falls in the lunch break")
	ErrOffGrid        = errors.New("time is not on the booking grid")
	ErrOverlap        = errors.New("time overlaps an existing appointment")
	ErrInvalidRules   = errors.New("invalid schedule rules")
	ErrNegativeLength = errors.New("duration must not be negative")
)

// ReasonCode is a stable machine-readable name for a rule error.
func ReasonCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPastDate):
		return "past_date"
	case errors.Is(err, ErrClosedWeekday):
		return "closed_weekday"
	case errors.Is(err, ErrDayDisabled):
		return "day_disabled"
	case errors.Is(err, ErrPastTime):
		return "past_time"
	case errors.Is(err, ErrBeforeOpening):
		return "before_opening"
	case errors.Is(err, ErrAfterClosing):
		return "after_closing"
	case errors.Is(err, ErrLunchBreak):
		return "lunch_break"
	case errors.Is(err, ErrOffGrid):
		return "off_grid"
	case errors.Is(err, ErrOverlap):
		return "overlap"
	case errors.Is(err, ErrNegativeLength):
		return "negative_duration"
	default:
		return "unknown"
	}
}

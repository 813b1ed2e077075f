package schedule

import (
	"time"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
)

// Busy is the time an active appointment occupies on its day.
type Busy struct {
	Start           domain.TimeOfDay
	DurationMinutes int
}

func (b Busy) End() domain.TimeOfDay {
	return b.Start.Add(b.DurationMinutes)
}

// BusyFrom keeps the active appointments of a day as occupied intervals.
func BusyFrom(appointments []domain.Appointment) []Busy {
	busy := make([]Busy, 0, len(appointments))
	for _, a := range appointments {
		if a.Status != "" && a.Status != domain.AppointmentStatusActive {
			continue
		}
		busy = append(busy, Busy{Start: a.Start, DurationMinutes: a.DurationMinutes})
	}
	return busy
}

// DaySet is a set of calendar days keyed by ISO date.
type DaySet map[string]struct{}

func NewDaySet(days ...time.Time) DaySet {
	s := make(DaySet, len(days))
	for _, d := range days {
		s.Add(d)
	}
	return s
}

func (s DaySet) Add(day time.Time) {
	s[day.Format(domain.ISODateLayout)] = struct{}{}
}

func (s DaySet) Contains(day time.Time) bool {
	if s == nil {
		return false
	}
	_, ok := s[day.Format(domain.ISODateLayout)]
	return ok
}

// Engine computes bookable start times. It performs no I/O; callers pass the
// day's active appointments in.
type Engine struct {
	rules Rules
	now   func() time.Time
}

type EngineOption func(*Engine)

// WithNow overrides the clock used for "today" and past-time checks.
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(rules Rules, opts ...EngineOption) *Engine {
	e := &Engine{rules: rules, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Rules() Rules {
	return e.rules
}

// Date pins a calendar day to the shop's time zone.
func (e *Engine) Date(day time.Time) time.Time {
	return domain.DateIn(day, e.rules.location())
}

// Today is the current calendar day in the shop's time zone.
func (e *Engine) Today() time.Time {
	return domain.Day(e.now(), e.rules.location())
}

// CheckDate applies the date-selection rules: past days, closed weekdays and
// days disabled by the shop.
func (e *Engine) CheckDate(date time.Time, disabled DaySet) error {
	day := e.Date(date)
	if day.Before(e.Today()) {
		return ErrPastDate
	}
	if e.rules.ClosedOn(day) {
		return ErrClosedWeekday
	}
	if disabled.Contains(day) {
		return ErrDayDisabled
	}
	return nil
}

// CandidateSlots lists, in chronological order, every grid start time on date
// where a booking of durationMinutes fits. Closed weekdays and past days have
// no grid at all.
func (e *Engine) CandidateSlots(date time.Time, durationMinutes int, busy []Busy) []domain.TimeOfDay {
	day := e.Date(date)
	if durationMinutes < 0 || day.Before(e.Today()) || e.rules.ClosedOn(day) {
		return nil
	}

	closing := e.rules.ClosingFor(day)
	var slots []domain.TimeOfDay
	for t := e.rules.Opening; t < closing; t = t.Add(e.rules.StepMinutes) {
		if e.check(day, t, durationMinutes, busy) == nil {
			slots = append(slots, t)
		}
	}
	return slots
}

// CheckSlot reports why start cannot be booked for durationMinutes on date, or
// nil when it can.
func (e *Engine) CheckSlot(date time.Time, start domain.TimeOfDay, durationMinutes int, busy []Busy) error {
	return e.check(e.Date(date), start, durationMinutes, busy)
}

func (e *Engine) IsSlotValid(date time.Time, start domain.TimeOfDay, durationMinutes int, busy []Busy) bool {
	return e.CheckSlot(date, start, durationMinutes, busy) == nil
}

// CheckConflict only checks start against the busy intervals.
func (e *Engine) CheckConflict(start domain.TimeOfDay, durationMinutes int, busy []Busy) error {
	if durationMinutes < 0 {
		return ErrNegativeLength
	}
	if overlapsAny(start, start.Add(durationMinutes), busy) {
		return ErrOverlap
	}
	return nil
}

func (e *Engine) check(day time.Time, start domain.TimeOfDay, durationMinutes int, busy []Busy) error {
	if durationMinutes < 0 {
		return ErrNegativeLength
	}
	today := e.Today()
	if day.Before(today) {
		return ErrPastDate
	}
	if e.rules.ClosedOn(day) {
		return ErrClosedWeekday
	}
	if start < e.rules.Opening {
		return ErrBeforeOpening
	}
	if day.Equal(today) && !start.On(day).After(e.now()) {
		return ErrPastTime
	}

	end := start.Add(durationMinutes)
	closing := e.rules.ClosingFor(day)
	if start >= closing || end > closing {
		return ErrAfterClosing
	}
	if overlaps(start, end, e.rules.LunchStart, e.rules.LunchEnd) {
		return ErrLunchBreak
	}
	if !e.rules.OnGrid(start) {
		return ErrOffGrid
	}
	if overlapsAny(start, end, busy) {
		return ErrOverlap
	}
	return nil
}

func overlapsAny(start, end domain.TimeOfDay, busy []Busy) bool {
	for _, b := range busy {
		if overlaps(start, end, b.Start, b.End()) {
			return true
		}
	}
	return false
}

// overlaps treats both intervals as half-open; an empty interval overlaps nothing.
func overlaps(start, end, bStart, bEnd domain.TimeOfDay) bool {
	if start >= end || bStart >= bEnd {
		return false
	}
	return start < bEnd && bStart < end
}

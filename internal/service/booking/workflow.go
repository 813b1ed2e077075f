package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/SeveN7Igor7/studioivosantos/internal/cache"
	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/schedule"
)

type SessionState string

const (
	StateSelectingServices SessionState = "selecting_services"
	StateSelectingDate     SessionState = "selecting_date"
	StateSelectingTime     SessionState = "selecting_time"
	StateConfirming        SessionState = "confirming"
	StateConfirmed         SessionState = "confirmed"
	StateFailed            SessionState = "failed"
)

// Session is one customer's way through the booking steps. Date is an ISO day.
type Session struct {
	ID              string             `json:"id"`
	State           SessionState       `json:"state"`
	ServiceIDs      []string           `json:"service_ids,omitempty"`
	Services        []string           `json:"services,omitempty"`
	DurationMinutes int                `json:"duration_minutes"`
	Date            string             `json:"date,omitempty"`
	Slots           []domain.TimeOfDay `json:"slots,omitempty"`
	Time            *domain.TimeOfDay  `json:"time,omitempty"`
	Customer        domain.Customer    `json:"customer"`
	AppointmentID   string             `json:"appointment_id,omitempty"`
	Error           string             `json:"error,omitempty"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func (s *Session) clone() *Session {
	c := *s
	c.ServiceIDs = slices.Clone(s.ServiceIDs)
	c.Services = slices.Clone(s.Services)
	c.Slots = slices.Clone(s.Slots)
	if s.Time != nil {
		t := *s.Time
		c.Time = &t
	}
	return &c
}

type SessionStore interface {
	LoadSession(ctx context.Context, id string, dst any) error
	SaveSession(ctx context.Context, id string, session any, ttl time.Duration) error
	DeleteSession(ctx context.Context, id string) error
}

type WorkflowUseCase interface {
	Start(ctx context.Context) (*Session, error)
	Session(ctx context.Context, id string) (*Session, error)
	SelectServices(ctx context.Context, id string, serviceIDs []string) (*Session, error)
	SelectDate(ctx context.Context, id string, date time.Time) (*Session, error)
	SelectTime(ctx context.Context, id string, start domain.TimeOfDay) (*Session, error)
	Confirm(ctx context.Context, id string, customer domain.Customer) (*Session, error)
	Discard(ctx context.Context, id string) error
}

// Workflow drives sessions through the booking steps. A step that fails on a
// store read leaves the stored session as it was.
type Workflow struct {
	bookings *BookingService
	sessions SessionStore
	ttl      time.Duration
}

func NewWorkflow(bookings *BookingService, sessions SessionStore, ttl time.Duration) *Workflow {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Workflow{bookings: bookings, sessions: sessions, ttl: ttl}
}

func (w *Workflow) Start(ctx context.Context) (*Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	sess := &Session{ID: id.String(), State: StateSelectingServices}
	if err := w.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (w *Workflow) Session(ctx context.Context, id string) (*Session, error) {
	var sess Session
	if err := w.sessions.LoadSession(ctx, id, &sess); err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: load session: %w", domain.ErrStoreUnavailable, err)
	}
	return &sess, nil
}

func (w *Workflow) Discard(ctx context.Context, id string) error {
	if err := w.sessions.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("%w: delete session: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// SelectServices replaces the selection. With a date already chosen the grid
// is recomputed for the new duration.
func (w *Workflow) SelectServices(ctx context.Context, id string, ids []string) (*Session, error) {
	current, err := w.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one service is required", domain.ErrInvalidSelection)
	}
	selected, err := w.bookings.services.Resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	next := current.clone()
	next.ServiceIDs = serviceIDs(selected)
	next.Services = serviceNames(selected)
	next.DurationMinutes = schedule.ResolveServices(selected)
	next.Time = nil
	next.Error = ""
	next.State = StateSelectingDate
	if next.Date != "" {
		if err := w.regrid(ctx, next); err != nil {
			return nil, err
		}
	}
	if err := w.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// SelectDate rejects days closed by the date rules; the session keeps its
// previous date in that case.
func (w *Workflow) SelectDate(ctx context.Context, id string, date time.Time) (*Session, error) {
	current, err := w.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(current.ServiceIDs) == 0 {
		return nil, fmt.Errorf("%w: select services first", domain.ErrInvalidSelection)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", domain.ErrInvalidSelection)
	}

	day := w.bookings.engine.Date(date)
	slots, err := w.bookings.gridFor(ctx, day, current.DurationMinutes)
	if err != nil {
		return nil, err
	}

	next := current.clone()
	next.Date = day.Format(domain.ISODateLayout)
	next.Slots = slots
	next.Time = nil
	next.Error = ""
	next.State = StateSelectingTime
	if err := w.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// SelectTime accepts only a start time from the session's current grid.
func (w *Workflow) SelectTime(ctx context.Context, id string, start domain.TimeOfDay) (*Session, error) {
	current, err := w.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Date == "" || current.State == StateSelectingServices || current.State == StateSelectingDate {
		return nil, fmt.Errorf("%w: select a date first", domain.ErrInvalidSelection)
	}
	if !slices.Contains(current.Slots, start) {
		return nil, fmt.Errorf("%w: %s is not an offered time", domain.ErrInvalidSelection, start)
	}

	next := current.clone()
	next.Time = &start
	next.Error = ""
	next.State = StateConfirming
	if err := w.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Confirm books the chosen slot. A slot taken in the meantime sends the
// session back to time selection with a fresh grid; a store failure leaves it
// failed with its selections intact so it can be confirmed again.
func (w *Workflow) Confirm(ctx context.Context, id string, customer domain.Customer) (*Session, error) {
	var current Session
	if err := w.load(ctx, id, &current); err != nil {
		return nil, err
	}
	if current.State == StateConfirmed {
		return &current, nil
	}
	if len(current.ServiceIDs) == 0 || current.Date == "" || current.Time == nil {
		return nil, fmt.Errorf("%w: services, date and time are required", domain.ErrInvalidSelection)
	}
	if customer.Name == "" && customer.Phone == "" {
		customer = current.Customer
	}
	day, err := w.day(current.Date)
	if err != nil {
		return nil, err
	}

	a, err := w.bookings.Book(ctx, BookInput{
		ServiceIDs: current.ServiceIDs,
		Date:       day,
		Start:      *current.Time,
		Customer:   customer,
	})

	next := current.clone()
	next.Customer = customer
	switch {
	case err == nil:
		next.Customer = a.Customer
		next.State = StateConfirmed
		next.AppointmentID = a.ID
		next.Error = ""
		if saveErr := w.save(ctx, next); saveErr != nil {
			w.bookings.logger.Warn("booked but failed to save session", "session", id, "appointment", a.ID, "error", saveErr)
		}
		return next, nil
	case errors.Is(err, domain.ErrInvalidSelection):
		return nil, err
	case errors.Is(err, domain.ErrSlotConflict), errors.Is(err, domain.ErrRuleViolation):
		next.Time = nil
		next.Error = err.Error()
		if gridErr := w.regrid(ctx, next); gridErr != nil {
			next.State = StateFailed
		}
	default:
		next.State = StateFailed
		next.Error = err.Error()
	}
	if saveErr := w.save(ctx, next); saveErr != nil {
		w.bookings.logger.Warn("failed to save session", "session", id, "error", saveErr)
	}
	return next, err
}

// regrid recomputes next's grid for its date. A date that no longer passes
// the date rules is dropped and the session goes back to date selection.
func (w *Workflow) regrid(ctx context.Context, next *Session) error {
	day, err := w.day(next.Date)
	if err != nil {
		return err
	}
	slots, err := w.bookings.gridFor(ctx, day, next.DurationMinutes)
	switch {
	case err == nil:
		next.Slots = slots
		next.State = StateSelectingTime
		return nil
	case errors.Is(err, domain.ErrRuleViolation):
		next.Date = ""
		next.Slots = nil
		next.State = StateSelectingDate
		return nil
	default:
		return err
	}
}

// open loads a session that may still change.
func (w *Workflow) open(ctx context.Context, id string) (*Session, error) {
	var sess Session
	if err := w.load(ctx, id, &sess); err != nil {
		return nil, err
	}
	if sess.State == StateConfirmed {
		return nil, fmt.Errorf("%w: session %s is already confirmed", domain.ErrInvalidSelection, id)
	}
	return &sess, nil
}

func (w *Workflow) load(ctx context.Context, id string, dst *Session) error {
	sess, err := w.Session(ctx, id)
	if err != nil {
		return err
	}
	*dst = *sess
	return nil
}

func (w *Workflow) save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = w.bookings.now().UTC()
	if err := w.sessions.SaveSession(ctx, sess.ID, sess, w.ttl); err != nil {
		return fmt.Errorf("%w: save session: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (w *Workflow) day(iso string) (time.Time, error) {
	d, err := time.Parse(domain.ISODateLayout, iso)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", domain.ErrInvalidSelection, iso)
	}
	return w.bookings.engine.Date(d), nil
}

var _ WorkflowUseCase = (*Workflow)(nil)

package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/kafka"
	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
	"github.com/SeveN7Igor7/studioivosantos/internal/metrics"
	"github.com/SeveN7Igor7/studioivosantos/internal/repository"
	"github.com/SeveN7Igor7/studioivosantos/internal/schedule"
	"github.com/SeveN7Igor7/studioivosantos/internal/telemetry"
)

// Manual bookings by staff may start anywhere in this window.
var (
	ManualEarliest = domain.Clock(8, 0)
	ManualLatest   = domain.Clock(22, 0)
)

// ErrDayBusy is returned when the day lock could not be taken in time.
var ErrDayBusy = errors.New("another booking for this day is in progress")

type BookingUseCase interface {
	Availability(ctx context.Context, date time.Time, serviceIDs []string) (*Availability, error)
	Book(ctx context.Context, input BookInput) (*domain.Appointment, error)
	Get(ctx context.Context, id string) (*domain.Appointment, error)
	Complete(ctx context.Context, id string) (*domain.Appointment, error)
	Cancel(ctx context.Context, id string) (*domain.Appointment, error)
	CreateManual(ctx context.Context, input ManualInput) (*domain.Appointment, error)
	UpdateManual(ctx context.Context, id string, input ManualInput) (*domain.Appointment, error)
	CustomerAppointments(ctx context.Context, phone string) ([]domain.Appointment, error)
}

// ServiceResolver turns selected service ids into catalogue entries.
type ServiceResolver interface {
	Resolve(ctx context.Context, ids []string) ([]domain.Service, error)
}

type SlotLocker interface {
	AcquireSlotLock(ctx context.Context, day time.Time, ttl time.Duration) (string, bool, error)
	ReleaseSlotLock(ctx context.Context, day time.Time, token string) error
}

type EventPublisher interface {
	PublishAppointment(ctx context.Context, event kafka.AppointmentEvent) error
}

type BookInput struct {
	ServiceIDs []string         `json:"service_ids"`
	Date       time.Time        `json:"date"`
	Start      domain.TimeOfDay `json:"start"`
	Customer   domain.Customer  `json:"customer"`
}

// ManualInput is a booking entered by staff. Services may be catalogue ids or
// free names; without ids the duration is taken as given.
type ManualInput struct {
	ServiceIDs      []string        `json:"service_ids"`
	Services        []string        `json:"services"`
	Date            time.Time       `json:"date"`
	Start           string          `json:"start"`
	DurationMinutes *int            `json:"duration_minutes"`
	Customer        domain.Customer `json:"customer"`
}

// Availability is the bookable grid of one day for a service selection.
// Reason is set when the whole day is unavailable.
type Availability struct {
	Date            time.Time          `json:"-"`
	DurationMinutes int                `json:"duration_minutes"`
	Services        []domain.Service   `json:"services"`
	Slots           []domain.TimeOfDay `json:"slots"`
	Reason          string             `json:"reason,omitempty"`
}

type BookingService struct {
	appointments repository.AppointmentRepository
	days         repository.DayRepository
	services     ServiceResolver
	locker       SlotLocker
	events       EventPublisher
	engine       *schedule.Engine
	metrics      *metrics.BookingMetrics
	logger       *logging.Logger
	tracer       trace.Tracer
	phoneRegion  string
	lockTTL      time.Duration
	lockWait     time.Duration
	now          func() time.Time
	newID        func() (string, error)
}

type BookingServiceOption func(*BookingService)

func WithSlotLocker(locker SlotLocker, ttl, wait time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
		s.lockTTL = ttl
		s.lockWait = wait
	}
}

func WithEvents(events EventPublisher) BookingServiceOption {
	return func(s *BookingService) {
		s.events = events
	}
}

func WithMetrics(m *metrics.BookingMetrics) BookingServiceOption {
	return func(s *BookingService) {
		s.metrics = m
	}
}

func WithLogger(logger *logging.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.logger = logger
	}
}

func WithPhoneRegion(region string) BookingServiceOption {
	return func(s *BookingService) {
		s.phoneRegion = region
	}
}

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithIDGenerator(newID func() (string, error)) BookingServiceOption {
	return func(s *BookingService) {
		s.newID = newID
	}
}

func NewBookingService(
	appointments repository.AppointmentRepository,
	days repository.DayRepository,
	services ServiceResolver,
	engine *schedule.Engine,
	opts ...BookingServiceOption,
) *BookingService {
	s := &BookingService{
		appointments: appointments,
		days:         days,
		services:     services,
		engine:       engine,
		logger:       logging.Discard(),
		tracer:       telemetry.Tracer(),
		phoneRegion:  domain.DefaultPhoneRegion,
		lockTTL:      10 * time.Second,
		lockWait:     2 * time.Second,
		now:          time.Now,
		newID:        newAppointmentID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newAppointmentID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Availability lists the start times a customer can pick on date. Days
// rejected by the date rules produce an empty grid with a reason, not an error.
func (s *BookingService) Availability(ctx context.Context, date time.Time, serviceIDs []string) (*Availability, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Availability")
	defer span.End()

	selected, err := s.services.Resolve(ctx, serviceIDs)
	if err != nil {
		s.metrics.ObserveAvailability(outcome(err), 0)
		return nil, traceErr(span, err)
	}
	day := s.engine.Date(date)
	result := &Availability{
		Date:            day,
		DurationMinutes: schedule.ResolveServices(selected),
		Services:        selected,
		Slots:           []domain.TimeOfDay{},
	}
	span.SetAttributes(
		attribute.String("booking.date", day.Format(domain.ISODateLayout)),
		attribute.Int("booking.duration_minutes", result.DurationMinutes),
	)

	slots, err := s.gridFor(ctx, day, result.DurationMinutes)
	if err != nil {
		if errors.Is(err, domain.ErrRuleViolation) {
			result.Reason = schedule.ReasonCode(err)
			s.metrics.ObserveAvailability("ok", 0)
			return result, nil
		}
		s.metrics.ObserveAvailability(outcome(err), 0)
		return nil, traceErr(span, err)
	}
	result.Slots = slots
	s.metrics.ObserveAvailability("ok", len(slots))
	return result, nil
}

// gridFor applies the date rules, then computes the grid from a fresh read.
func (s *BookingService) gridFor(ctx context.Context, day time.Time, duration int) ([]domain.TimeOfDay, error) {
	if err := s.checkDate(ctx, day); err != nil {
		return nil, err
	}
	busy, err := s.busy(ctx, day, "")
	if err != nil {
		return nil, err
	}
	slots := s.engine.CandidateSlots(day, duration, busy)
	if slots == nil {
		slots = []domain.TimeOfDay{}
	}
	return slots, nil
}

func (s *BookingService) checkDate(ctx context.Context, day time.Time) error {
	disabled, err := s.days.DisabledDays(ctx)
	if err != nil {
		return err
	}
	if err := s.engine.CheckDate(day, disabled); err != nil {
		return ruleErr(err)
	}
	return nil
}

// busy reads the active appointments of day, leaving out skipID.
func (s *BookingService) busy(ctx context.Context, day time.Time, skipID string) ([]schedule.Busy, error) {
	appts, err := s.appointments.ListActiveByDate(ctx, day)
	if err != nil {
		return nil, err
	}
	if skipID != "" {
		kept := appts[:0]
		for _, a := range appts {
			if a.ID != skipID {
				kept = append(kept, a)
			}
		}
		appts = kept
	}
	return schedule.BusyFrom(appts), nil
}

// Book confirms a customer booking. The slot is re-checked against a fresh
// read while the day lock is held.
func (s *BookingService) Book(ctx context.Context, input BookInput) (*domain.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Book")
	defer span.End()

	a, err := s.book(ctx, input)
	s.metrics.ObserveBooking("customer", outcome(err))
	if err != nil {
		s.logger.Warn("booking rejected", "date", input.Date.Format(domain.ISODateLayout), "start", input.Start.String(), "error", err)
		return nil, traceErr(span, err)
	}
	span.SetAttributes(attribute.String("appointment.id", a.ID))
	s.logger.Info("appointment booked", "id", a.ID, "date", domain.FormatDate(a.Date), "start", a.Start.String(), "duration", a.DurationMinutes)
	s.publish(ctx, kafka.EventAppointmentCreated, a)
	return a, nil
}

func (s *BookingService) book(ctx context.Context, input BookInput) (*domain.Appointment, error) {
	customer, err := s.validateCustomer(input.Customer)
	if err != nil {
		return nil, err
	}
	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", domain.ErrInvalidSelection)
	}
	selected, err := s.services.Resolve(ctx, input.ServiceIDs)
	if err != nil {
		return nil, err
	}
	duration := schedule.ResolveServices(selected)
	day := s.engine.Date(input.Date)

	a := &domain.Appointment{
		Date:            day,
		Start:           input.Start,
		DurationMinutes: duration,
		Services:        serviceNames(selected),
		ServiceIDs:      serviceIDs(selected),
		Customer:        customer,
	}

	err = s.withDayLock(ctx, day, func(ctx context.Context) error {
		if err := s.checkDate(ctx, day); err != nil {
			return err
		}
		busy, err := s.busy(ctx, day, "")
		if err != nil {
			return err
		}
		if err := s.engine.CheckSlot(day, input.Start, duration, busy); err != nil {
			return slotErr(err)
		}
		return s.create(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *BookingService) create(ctx context.Context, a *domain.Appointment) error {
	id, err := s.newID()
	if err != nil {
		return err
	}
	a.ID = id
	a.Status = domain.AppointmentStatusActive
	a.CreatedAt = s.now().UTC()
	return s.appointments.Create(ctx, a)
}

// withDayLock runs fn while holding the per-day lock. Without a locker fn
// runs unguarded and relies on the fresh re-read alone.
func (s *BookingService) withDayLock(ctx context.Context, day time.Time, fn func(context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}

	started := time.Now()
	deadline := started.Add(s.lockWait)
	var token string
	for {
		t, ok, err := s.locker.AcquireSlotLock(ctx, day, s.lockTTL)
		if err != nil {
			return fmt.Errorf("%w: slot lock: %w", domain.ErrStoreUnavailable, err)
		}
		if ok {
			token = t
			break
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %w", domain.ErrSlotConflict, ErrDayBusy)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	s.metrics.ObserveLockWait(time.Since(started).Seconds())

	defer func() {
		if err := s.locker.ReleaseSlotLock(context.WithoutCancel(ctx), day, token); err != nil {
			s.logger.Warn("failed to release slot lock", "day", day.Format(domain.ISODateLayout), "error", err)
		}
	}()
	return fn(ctx)
}

func (s *BookingService) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	return s.appointments.Get(ctx, id)
}

func (s *BookingService) Complete(ctx context.Context, id string) (*domain.Appointment, error) {
	return s.transition(ctx, id, domain.AppointmentStatusCompleted, kafka.EventAppointmentCompleted)
}

func (s *BookingService) Cancel(ctx context.Context, id string) (*domain.Appointment, error) {
	return s.transition(ctx, id, domain.AppointmentStatusCancelled, kafka.EventAppointmentCancelled)
}

func (s *BookingService) transition(ctx context.Context, id string, status domain.AppointmentStatus, eventType string) (*domain.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking."+string(status))
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", id))

	a, err := s.appointments.TransitionStatus(ctx, id, status, s.now())
	if err != nil {
		return nil, traceErr(span, err)
	}
	s.metrics.ObserveTransition(string(status))
	s.logger.Info("appointment archived", "id", id, "status", status)
	s.publish(ctx, eventType, a)
	return a, nil
}

// CreateManual books on behalf of a customer. Staff are not bound by the
// grid, opening hours or closed days; only overlaps are refused.
func (s *BookingService) CreateManual(ctx context.Context, input ManualInput) (*domain.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.CreateManual")
	defer span.End()

	a, err := s.manualAppointment(ctx, input)
	if err == nil {
		err = s.withDayLock(ctx, a.Date, func(ctx context.Context) error {
			if err := s.checkManualConflict(ctx, a, ""); err != nil {
				return err
			}
			return s.create(ctx, a)
		})
	}
	s.metrics.ObserveBooking("admin", outcome(err))
	if err != nil {
		return nil, traceErr(span, err)
	}
	s.logger.Info("manual appointment created", "id", a.ID, "date", domain.FormatDate(a.Date), "start", a.Start.String())
	s.publish(ctx, kafka.EventAppointmentCreated, a)
	return a, nil
}

func (s *BookingService) UpdateManual(ctx context.Context, id string, input ManualInput) (*domain.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.UpdateManual")
	defer span.End()

	current, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, traceErr(span, err)
	}
	if current.Status.Terminal() {
		return nil, traceErr(span, fmt.Errorf("%w: appointment %s is %s", domain.ErrRuleViolation, id, current.Status))
	}

	a, err := s.manualAppointment(ctx, input)
	if err != nil {
		return nil, traceErr(span, err)
	}
	a.ID = current.ID
	a.Status = domain.AppointmentStatusActive
	a.CreatedAt = current.CreatedAt

	err = s.withDayLock(ctx, a.Date, func(ctx context.Context) error {
		if err := s.checkManualConflict(ctx, a, id); err != nil {
			return err
		}
		return s.appointments.Update(ctx, a, current.Customer.Phone)
	})
	if err != nil {
		return nil, traceErr(span, err)
	}
	s.logger.Info("manual appointment updated", "id", a.ID, "date", domain.FormatDate(a.Date), "start", a.Start.String())
	s.publish(ctx, kafka.EventAppointmentUpdated, a)
	return a, nil
}

func (s *BookingService) manualAppointment(ctx context.Context, input ManualInput) (*domain.Appointment, error) {
	customer, err := s.validateCustomer(input.Customer)
	if err != nil {
		return nil, err
	}
	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", domain.ErrInvalidSelection)
	}
	start, err := domain.ParseTimeOfDay(strings.TrimSpace(input.Start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSelection, err)
	}
	if start < ManualEarliest || start > ManualLatest {
		return nil, fmt.Errorf("%w: %s is outside %s-%s", domain.ErrRuleViolation, start, ManualEarliest, ManualLatest)
	}

	a := &domain.Appointment{
		Date:     s.engine.Date(input.Date),
		Start:    start,
		Customer: customer,
	}
	switch {
	case len(input.ServiceIDs) > 0:
		selected, err := s.services.Resolve(ctx, input.ServiceIDs)
		if err != nil {
			return nil, err
		}
		a.Services = serviceNames(selected)
		a.ServiceIDs = serviceIDs(selected)
		a.DurationMinutes = schedule.ResolveServices(selected)
	case len(input.Services) > 0:
		a.Services = cleanNames(input.Services)
		a.DurationMinutes = domain.DefaultStoredDuration
	}
	if len(a.Services) == 0 {
		return nil, fmt.Errorf("%w: at least one service is required", domain.ErrInvalidSelection)
	}
	if input.DurationMinutes != nil {
		if *input.DurationMinutes < 0 {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSelection, schedule.ErrNegativeLength)
		}
		a.DurationMinutes = *input.DurationMinutes
	}
	return a, nil
}

func (s *BookingService) checkManualConflict(ctx context.Context, a *domain.Appointment, skipID string) error {
	busy, err := s.busy(ctx, a.Date, skipID)
	if err != nil {
		return err
	}
	if err := s.engine.CheckConflict(a.Start, a.DurationMinutes, busy); err != nil {
		return slotErr(err)
	}
	return nil
}

// CustomerAppointments returns the history of one customer, newest first.
func (s *BookingService) CustomerAppointments(ctx context.Context, phone string) ([]domain.Appointment, error) {
	normalized, err := domain.NormalizePhone(phone, s.phoneRegion)
	if err != nil {
		return nil, err
	}
	return s.appointments.ListByCustomer(ctx, normalized)
}

func (s *BookingService) validateCustomer(c domain.Customer) (domain.Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if c.Name == "" {
		return c, fmt.Errorf("%w: customer name is required", domain.ErrInvalidSelection)
	}
	phone, err := domain.NormalizePhone(c.Phone, s.phoneRegion)
	if err != nil {
		return c, err
	}
	c.Phone = phone
	return c, nil
}

// publish never fails the caller: the appointment is already stored.
func (s *BookingService) publish(ctx context.Context, eventType string, a *domain.Appointment) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishAppointment(ctx, kafka.NewAppointmentEvent(eventType, a, s.now())); err != nil {
		s.logger.Warn("failed to publish appointment event", "type", eventType, "id", a.ID, "error", err)
	}
}

func ruleErr(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrRuleViolation, err)
}

// slotErr maps an engine verdict: overlaps are conflicts, the rest are rules.
func slotErr(err error) error {
	if errors.Is(err, schedule.ErrOverlap) {
		return fmt.Errorf("%w: %w", domain.ErrSlotConflict, err)
	}
	if errors.Is(err, schedule.ErrNegativeLength) {
		return fmt.Errorf("%w: %w", domain.ErrInvalidSelection, err)
	}
	return ruleErr(err)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidSelection):
		return "invalid_selection"
	case errors.Is(err, domain.ErrSlotConflict):
		return "conflict"
	case errors.Is(err, domain.ErrRuleViolation):
		return "rule_violation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}

func traceErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome(err))
	return err
}

func serviceNames(services []domain.Service) []string {
	out := make([]string, 0, len(services))
	for _, svc := range services {
		out = append(out, svc.Name)
	}
	return out
}

func serviceIDs(services []domain.Service) []string {
	out := make([]string, 0, len(services))
	for _, svc := range services {
		out = append(out, svc.ID)
	}
	return out
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

var _ BookingUseCase = (*BookingService)(nil)

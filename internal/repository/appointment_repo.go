package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/SeveN7Igor7/studioivosantos/internal/docstore"
	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
)

type AppointmentRepository interface {
	ListActiveByDate(ctx context.Context, date time.Time) ([]domain.Appointment, error)
	ListByStatus(ctx context.Context, status domain.AppointmentStatus) ([]domain.Appointment, error)
	ListByCustomer(ctx context.Context, phone string) ([]domain.Appointment, error)
	Get(ctx context.Context, id string) (*domain.Appointment, error)
	Create(ctx context.Context, a *domain.Appointment) error
	Update(ctx context.Context, a *domain.Appointment, previousPhone string) error
	TransitionStatus(ctx context.Context, id string, status domain.AppointmentStatus, at time.Time) (*domain.Appointment, error)
	Subscribe(ctx context.Context) (<-chan docstore.Change, error)
}

type DocAppointmentRepository struct {
	store  docstore.Store
	loc    *time.Location
	logger *logging.Logger
}

func NewAppointmentRepository(store docstore.Store, loc *time.Location, logger *logging.Logger) AppointmentRepository {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &DocAppointmentRepository{store: store, loc: loc, logger: logger}
}

// ListActiveByDate asks the store for the day's records only, matching on the
// stored "dia" field.
func (r *DocAppointmentRepository) ListActiveByDate(ctx context.Context, date time.Time) ([]domain.Appointment, error) {
	day := domain.DateIn(date, r.loc)
	docs, err := r.store.ListWhere(ctx, CollectionActive, "dia", domain.FormatDate(day))
	if err != nil {
		return nil, storeErr("list "+CollectionActive, err)
	}
	out := r.decodeAll(CollectionActive, docs, domain.AppointmentStatusActive)
	filtered := out[:0]
	for _, a := range out {
		if domain.SameDay(a.Date, day) {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// ListByStatus reads a whole status collection, skipping records that do not
// decode. Results are ordered by start instant.
func (r *DocAppointmentRepository) ListByStatus(ctx context.Context, status domain.AppointmentStatus) ([]domain.Appointment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidSelection, status)
	}
	collection := statusCollection(status)
	docs, err := r.store.List(ctx, collection)
	if err != nil {
		return nil, storeErr("list "+collection, err)
	}
	return r.decodeAll(collection, docs, status), nil
}

func (r *DocAppointmentRepository) decodeAll(collection string, docs map[string][]byte, status domain.AppointmentStatus) []domain.Appointment {
	out := make([]domain.Appointment, 0, len(docs))
	for id, data := range docs {
		a, err := decodeAppointment(id, data, status, r.loc)
		if err != nil {
			r.logger.Warn("skipping appointment record", "collection", collection, "id", id, "error", err)
			continue
		}
		out = append(out, a)
	}
	sortAppointments(out)
	return out
}

// ListByCustomer gathers a customer's appointments in every status, newest first.
func (r *DocAppointmentRepository) ListByCustomer(ctx context.Context, phone string) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, status := range []domain.AppointmentStatus{
		domain.AppointmentStatusActive,
		domain.AppointmentStatusCompleted,
		domain.AppointmentStatusCancelled,
	} {
		list, err := r.ListByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		for _, a := range list {
			if a.Customer.Phone == phone {
				out = append(out, a)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartsAt().After(out[j].StartsAt())
	})
	return out, nil
}

// Get looks the id up in the active collection first, then the archives.
func (r *DocAppointmentRepository) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	for _, status := range []domain.AppointmentStatus{
		domain.AppointmentStatusActive,
		domain.AppointmentStatusCompleted,
		domain.AppointmentStatusCancelled,
	} {
		a, err := r.get(ctx, id, status)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	return nil, fmt.Errorf("appointment %s: %w", id, domain.ErrNotFound)
}

func (r *DocAppointmentRepository) get(ctx context.Context, id string, status domain.AppointmentStatus) (*domain.Appointment, error) {
	path := docstore.Join(statusCollection(status), id)
	data, err := r.store.Get(ctx, path)
	if err != nil {
		return nil, storeErr("get "+path, err)
	}
	a, err := decodeAppointment(id, data, status, r.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return &a, nil
}

// Create writes the global record and the customer's personal copy under the
// same id. The two writes are not atomic; a failed personal write undoes the
// global one on a best-effort basis.
func (r *DocAppointmentRepository) Create(ctx context.Context, a *domain.Appointment) error {
	if a.ID == "" {
		return fmt.Errorf("%w: appointment id is empty", domain.ErrInvalidSelection)
	}
	a.Status = domain.AppointmentStatusActive

	global, err := encodeAppointment(a)
	if err != nil {
		return err
	}
	globalPath := docstore.Join(CollectionActive, a.ID)
	if err := r.store.Set(ctx, globalPath, global); err != nil {
		return storeErr("set "+globalPath, err)
	}

	if a.Customer.Phone == "" {
		return nil
	}
	if err := r.writePersonal(ctx, a); err != nil {
		if rmErr := r.store.Remove(ctx, globalPath); rmErr != nil {
			r.logger.Error("failed to undo appointment write", "id", a.ID, "error", rmErr)
		}
		return err
	}
	return nil
}

// Update rewrites an active appointment. A changed phone moves the personal copy.
func (r *DocAppointmentRepository) Update(ctx context.Context, a *domain.Appointment, previousPhone string) error {
	if _, err := r.get(ctx, a.ID, domain.AppointmentStatusActive); err != nil {
		return err
	}
	a.Status = domain.AppointmentStatusActive

	global, err := encodeAppointment(a)
	if err != nil {
		return err
	}
	globalPath := docstore.Join(CollectionActive, a.ID)
	if err := r.store.Set(ctx, globalPath, global); err != nil {
		return storeErr("set "+globalPath, err)
	}

	if previousPhone != "" && previousPhone != a.Customer.Phone {
		r.removePersonal(ctx, previousPhone, a.ID)
	}
	if a.Customer.Phone == "" {
		return nil
	}
	return r.writePersonal(ctx, a)
}

// TransitionStatus archives an active appointment as completed or cancelled,
// keeping its id. Repeating a transition that already happened returns the
// archived record unchanged.
func (r *DocAppointmentRepository) TransitionStatus(ctx context.Context, id string, status domain.AppointmentStatus, at time.Time) (*domain.Appointment, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("%w: cannot transition to %q", domain.ErrInvalidSelection, status)
	}

	a, err := r.get(ctx, id, domain.AppointmentStatusActive)
	if errors.Is(err, domain.ErrNotFound) {
		return r.archived(ctx, id, status)
	}
	if err != nil {
		return nil, err
	}

	a.Status = status
	stamp := at.UTC()
	if status == domain.AppointmentStatusCompleted {
		a.CompletedAt = &stamp
	} else {
		a.CancelledAt = &stamp
	}

	data, err := encodeAppointment(a)
	if err != nil {
		return nil, err
	}
	target := docstore.Join(statusCollection(status), id)
	if err := r.store.Set(ctx, target, data); err != nil {
		return nil, storeErr("set "+target, err)
	}
	if a.Customer.Phone != "" {
		r.removePersonal(ctx, a.Customer.Phone, id)
	}
	activePath := docstore.Join(CollectionActive, id)
	if err := r.store.Remove(ctx, activePath); err != nil {
		return nil, storeErr("remove "+activePath, err)
	}
	return a, nil
}

func (r *DocAppointmentRepository) archived(ctx context.Context, id string, status domain.AppointmentStatus) (*domain.Appointment, error) {
	a, err := r.get(ctx, id, status)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	other := domain.AppointmentStatusCancelled
	if status == domain.AppointmentStatusCancelled {
		other = domain.AppointmentStatusCompleted
	}
	if _, err := r.get(ctx, id, other); err == nil {
		return nil, fmt.Errorf("%w: appointment %s is already %s", domain.ErrRuleViolation, id, other)
	}
	return nil, fmt.Errorf("appointment %s: %w", id, domain.ErrNotFound)
}

func (r *DocAppointmentRepository) Subscribe(ctx context.Context) (<-chan docstore.Change, error) {
	ch, err := r.store.Subscribe(ctx, CollectionActive, CollectionCompleted, CollectionCancelled, CollectionDisabled)
	if err != nil {
		return nil, storeErr("subscribe", err)
	}
	return ch, nil
}

func (r *DocAppointmentRepository) writePersonal(ctx context.Context, a *domain.Appointment) error {
	personal, err := encodePersonal(a)
	if err != nil {
		return err
	}
	path := docstore.Join(PersonalCollection(a.Customer.Phone), a.ID)
	if err := r.store.Set(ctx, path, personal); err != nil {
		return storeErr("set "+path, err)
	}
	return nil
}

func (r *DocAppointmentRepository) removePersonal(ctx context.Context, phone, id string) {
	path := docstore.Join(PersonalCollection(phone), id)
	if err := r.store.Remove(ctx, path); err != nil {
		r.logger.Warn("failed to remove personal appointment", "path", path, "error", err)
	}
}

func sortAppointments(list []domain.Appointment) {
	sort.Slice(list, func(i, j int) bool {
		ti, tj := list[i].StartsAt(), list[j].StartsAt()
		if ti.Equal(tj) {
			return list[i].ID < list[j].ID
		}
		return ti.Before(tj)
	})
}

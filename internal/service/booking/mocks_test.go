package booking

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/SeveN7Igor7/studioivosantos/internal/docstore"
	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/kafka"
	"github.com/SeveN7Igor7/studioivosantos/internal/schedule"
)

type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) ListActiveByDate(ctx context.Context, date time.Time) ([]domain.Appointment, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ListByStatus(ctx context.Context, status domain.AppointmentStatus) ([]domain.Appointment, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ListByCustomer(ctx context.Context, phone string) ([]domain.Appointment, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Create(ctx context.Context, a *domain.Appointment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAppointmentRepository) Update(ctx context.Context, a *domain.Appointment, previousPhone string) error {
	args := m.Called(ctx, a, previousPhone)
	return args.Error(0)
}

func (m *MockAppointmentRepository) TransitionStatus(ctx context.Context, id string, status domain.AppointmentStatus, at time.Time) (*domain.Appointment, error) {
	args := m.Called(ctx, id, status, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Subscribe(ctx context.Context) (<-chan docstore.Change, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan docstore.Change), args.Error(1)
}

type MockDayRepository struct {
	mock.Mock
}

func (m *MockDayRepository) DisabledDays(ctx context.Context) (schedule.DaySet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(schedule.DaySet), args.Error(1)
}

func (m *MockDayRepository) IsDisabled(ctx context.Context, day time.Time) (bool, error) {
	args := m.Called(ctx, day)
	return args.Bool(0), args.Error(1)
}

func (m *MockDayRepository) SetDisabled(ctx context.Context, day time.Time, disabled bool) error {
	args := m.Called(ctx, day, disabled)
	return args.Error(0)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, ids []string) ([]domain.Service, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Service), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireSlotLock(ctx context.Context, day time.Time, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, day, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLocker) ReleaseSlotLock(ctx context.Context, day time.Time, token string) error {
	args := m.Called(ctx, day, token)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishAppointment(ctx context.Context, event kafka.AppointmentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

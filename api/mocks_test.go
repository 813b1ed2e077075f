package api

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/service/booking"
	"github.com/SeveN7Igor7/studioivosantos/internal/service/calendar"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) Availability(ctx context.Context, date time.Time, serviceIDs []string) (*booking.Availability, error) {
	args := m.Called(ctx, date, serviceIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Availability), args.Error(1)
}

func (m *MockBookingUseCase) Book(ctx context.Context, input booking.BookInput) (*domain.Appointment, error) {
	args := m.Called(ctx, input)
	return appointmentArg(args)
}

func (m *MockBookingUseCase) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	return appointmentArg(args)
}

func (m *MockBookingUseCase) Complete(ctx context.Context, id string) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	return appointmentArg(args)
}

func (m *MockBookingUseCase) Cancel(ctx context.Context, id string) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	return appointmentArg(args)
}

func (m *MockBookingUseCase) CreateManual(ctx context.Context, input booking.ManualInput) (*domain.Appointment, error) {
	args := m.Called(ctx, input)
	return appointmentArg(args)
}

func (m *MockBookingUseCase) UpdateManual(ctx context.Context, id string, input booking.ManualInput) (*domain.Appointment, error) {
	args := m.Called(ctx, id, input)
	return appointmentArg(args)
}

func (m *MockBookingUseCase) CustomerAppointments(ctx context.Context, phone string) ([]domain.Appointment, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Appointment), args.Error(1)
}

func appointmentArg(args mock.Arguments) (*domain.Appointment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

type MockWorkflowUseCase struct {
	mock.Mock
}

func (m *MockWorkflowUseCase) Start(ctx context.Context) (*booking.Session, error) {
	return sessionArg(m.Called(ctx))
}

func (m *MockWorkflowUseCase) Session(ctx context.Context, id string) (*booking.Session, error) {
	return sessionArg(m.Called(ctx, id))
}

func (m *MockWorkflowUseCase) SelectServices(ctx context.Context, id string, serviceIDs []string) (*booking.Session, error) {
	return sessionArg(m.Called(ctx, id, serviceIDs))
}

func (m *MockWorkflowUseCase) SelectDate(ctx context.Context, id string, date time.Time) (*booking.Session, error) {
	return sessionArg(m.Called(ctx, id, date))
}

func (m *MockWorkflowUseCase) SelectTime(ctx context.Context, id string, start domain.TimeOfDay) (*booking.Session, error) {
	return sessionArg(m.Called(ctx, id, start))
}

func (m *MockWorkflowUseCase) Confirm(ctx context.Context, id string, customer domain.Customer) (*booking.Session, error) {
	return sessionArg(m.Called(ctx, id, customer))
}

func (m *MockWorkflowUseCase) Discard(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func sessionArg(args mock.Arguments) (*booking.Session, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Session), args.Error(1)
}

type MockCatalogUseCase struct {
	mock.Mock
}

func (m *MockCatalogUseCase) List(ctx context.Context) ([]domain.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Service), args.Error(1)
}

func (m *MockCatalogUseCase) Get(ctx context.Context, id string) (*domain.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Service), args.Error(1)
}

func (m *MockCatalogUseCase) Save(ctx context.Context, svc domain.Service) (*domain.Service, error) {
	args := m.Called(ctx, svc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Service), args.Error(1)
}

func (m *MockCatalogUseCase) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCatalogUseCase) Resolve(ctx context.Context, ids []string) ([]domain.Service, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Service), args.Error(1)
}

func (m *MockCatalogUseCase) SeedDefaults(ctx context.Context, overwrite bool) (int, error) {
	args := m.Called(ctx, overwrite)
	return args.Int(0), args.Error(1)
}

type MockCalendarUseCase struct {
	mock.Mock
}

func (m *MockCalendarUseCase) Day(ctx context.Context, date time.Time, search string) ([]domain.Appointment, error) {
	args := m.Called(ctx, date, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Appointment), args.Error(1)
}

func (m *MockCalendarUseCase) Month(ctx context.Context, year int, month time.Month) ([]calendar.DayStats, error) {
	args := m.Called(ctx, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]calendar.DayStats), args.Error(1)
}

func (m *MockCalendarUseCase) DisabledDays(ctx context.Context) ([]time.Time, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

func (m *MockCalendarUseCase) SetDayDisabled(ctx context.Context, date time.Time, disabled bool) error {
	return m.Called(ctx, date, disabled).Error(0)
}

func (m *MockCalendarUseCase) ToggleDay(ctx context.Context, date time.Time) (bool, error) {
	args := m.Called(ctx, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockCalendarUseCase) Revenue(ctx context.Context, from, to time.Time) (*calendar.Revenue, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*calendar.Revenue), args.Error(1)
}

func (m *MockCalendarUseCase) Watch(ctx context.Context) (<-chan calendar.Update, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan calendar.Update), args.Error(1)
}

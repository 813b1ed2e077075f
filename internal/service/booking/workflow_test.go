package booking

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SeveN7Igor7/studioivosantos/internal/cache"
	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/schedule"
)

func newTestWorkflow(t *testing.T) (*Workflow, *fixture) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := cache.NewRedisCache(client, "test:", time.Minute)

	f := newFixture(t)
	return NewWorkflow(f.service, sessions, time.Hour), f
}

// sessionAtTime walks a fresh session up to the confirming step for 09:30 on wednesday.
func sessionAtTime(t *testing.T, w *Workflow, f *fixture) *Session {
	t.Helper()
	ctx := context.Background()

	f.resolver.On("Resolve", mock.Anything, []string{"haircut"}).Return([]domain.Service{haircut}, nil)
	f.days.On("DisabledDays", mock.Anything).Return(schedule.NewDaySet(), nil)

	sess, err := w.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateSelectingServices, sess.State)

	sess, err = w.SelectServices(ctx, sess.ID, []string{"haircut"})
	require.NoError(t, err)
	assert.Equal(t, StateSelectingDate, sess.State)
	assert.Equal(t, 30, sess.DurationMinutes)

	f.appointments.On("ListActiveByDate", mock.Anything, wednesday).
		Return([]domain.Appointment{activeAt("a", domain.Clock(9, 0), 30)}, nil).Once()
	sess, err = w.SelectDate(ctx, sess.ID, wednesday)
	require.NoError(t, err)
	assert.Equal(t, StateSelectingTime, sess.State)
	assert.Equal(t, "2024-06-05", sess.Date)
	assert.NotContains(t, sess.Slots, domain.Clock(9, 0))

	sess, err = w.SelectTime(ctx, sess.ID, domain.Clock(9, 30))
	require.NoError(t, err)
	assert.Equal(t, StateConfirming, sess.State)
	return sess
}

func TestWorkflow_HappyPath(t *testing.T) {
	w, f := newTestWorkflow(t)
	ctx := context.Background()
	sess := sessionAtTime(t, w, f)

	f.expectLock()
	f.appointments.On("ListActiveByDate", mock.Anything, wednesday).
		Return([]domain.Appointment{activeAt("a", domain.Clock(9, 0), 30)}, nil).Once()
	f.appointments.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.publisher.On("PublishAppointment", mock.Anything, mock.Anything).Return(nil).Once()

	sess, err := w.Confirm(ctx, sess.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, sess.State)
	assert.Equal(t, "appt-1", sess.AppointmentID)
	assert.Equal(t, "11952343456", sess.Customer.Phone)

	stored, err := w.Session(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, stored.State)

	again, err := w.Confirm(ctx, sess.ID, customer)
	require.NoError(t, err, "confirming twice is harmless")
	assert.Equal(t, "appt-1", again.AppointmentID)

	_, err = w.SelectServices(ctx, sess.ID, []string{"haircut"})
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
	f.assertExpectations(t)
}

func TestWorkflow_ConflictReturnsToTimeSelection(t *testing.T) {
	w, f := newTestWorkflow(t)
	ctx := context.Background()
	sess := sessionAtTime(t, w, f)

	taken := []domain.Appointment{
		activeAt("a", domain.Clock(9, 0), 30),
		activeAt("b", domain.Clock(9, 30), 30),
	}
	f.expectLock()
	f.appointments.On("ListActiveByDate", mock.Anything, wednesday).Return(taken, nil).Twice()

	sess, err := w.Confirm(ctx, sess.ID, customer)
	assert.ErrorIs(t, err, domain.ErrSlotConflict)
	require.NotNil(t, sess)
	assert.Equal(t, StateSelectingTime, sess.State)
	assert.Nil(t, sess.Time)
	assert.NotContains(t, sess.Slots, domain.Clock(9, 30), "grid is refreshed from the store")
	assert.Contains(t, sess.Slots, domain.Clock(10, 0))
	assert.NotEmpty(t, sess.Error)

	stored, err := w.Session(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StateSelectingTime, stored.State)
	f.appointments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWorkflow_StoreFailureDuringConfirm(t *testing.T) {
	w, f := newTestWorkflow(t)
	ctx := context.Background()
	sess := sessionAtTime(t, w, f)

	f.locker.On("AcquireSlotLock", mock.Anything, mock.Anything, mock.Anything).Return("token", true, nil)
	f.locker.On("ReleaseSlotLock", mock.Anything, mock.Anything, "token").Return(nil)
	f.appointments.On("ListActiveByDate", mock.Anything, wednesday).Return([]domain.Appointment{}, nil)
	f.appointments.On("Create", mock.Anything, mock.Anything).Return(domain.ErrStoreUnavailable).Once()

	failed, err := w.Confirm(ctx, sess.ID, customer)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, StateFailed, failed.State)
	require.NotNil(t, failed.Time, "selections are kept")
	assert.Equal(t, domain.Clock(9, 30), *failed.Time)

	f.appointments.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.publisher.On("PublishAppointment", mock.Anything, mock.Anything).Return(nil).Once()

	confirmed, err := w.Confirm(ctx, sess.ID, domain.Customer{})
	require.NoError(t, err, "customer details are remembered from the failed attempt")
	assert.Equal(t, StateConfirmed, confirmed.State)
}

func TestWorkflow_SelectDateRejections(t *testing.T) {
	w, f := newTestWorkflow(t)
	ctx := context.Background()

	sess, err := w.Start(ctx)
	require.NoError(t, err)

	_, err = w.SelectDate(ctx, sess.ID, wednesday)
	assert.ErrorIs(t, err, domain.ErrInvalidSelection, "services come first")

	_, err = w.SelectServices(ctx, sess.ID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)

	f.resolver.On("Resolve", mock.Anything, []string{"haircut"}).Return([]domain.Service{haircut}, nil)
	_, err = w.SelectServices(ctx, sess.ID, []string{"haircut"})
	require.NoError(t, err)

	f.days.On("DisabledDays", mock.Anything).Return(schedule.NewDaySet(wednesday), nil).Once()
	_, err = w.SelectDate(ctx, sess.ID, wednesday)
	assert.ErrorIs(t, err, domain.ErrRuleViolation)
	assert.ErrorIs(t, err, schedule.ErrDayDisabled)

	f.days.On("DisabledDays", mock.Anything).Return(schedule.NewDaySet(), nil).Once()
	_, err = w.SelectDate(ctx, sess.ID, sunday)
	assert.ErrorIs(t, err, schedule.ErrClosedWeekday)

	f.days.On("DisabledDays", mock.Anything).Return(nil, domain.ErrStoreUnavailable).Once()
	_, err = w.SelectDate(ctx, sess.ID, wednesday)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	stored, err := w.Session(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StateSelectingDate, stored.State, "rejected steps leave the session as it was")
	assert.Empty(t, stored.Date)
}

func TestWorkflow_SelectTimeMustBeOffered(t *testing.T) {
	w, f := newTestWorkflow(t)
	ctx := context.Background()
	sess := sessionAtTime(t, w, f)

	_, err := w.SelectTime(ctx, sess.ID, domain.Clock(9, 0))
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)

	_, err = w.SelectTime(ctx, sess.ID, domain.Clock(12, 0))
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
}

func TestWorkflow_ChangingServicesRecomputesGrid(t *testing.T) {
	w, f := newTestWorkflow(t)
	ctx := context.Background()
	sess := sessionAtTime(t, w, f)

	f.resolver.On("Resolve", mock.Anything, []string{"haircut", "beard"}).Return([]domain.Service{haircut, beard}, nil).Once()
	f.appointments.On("ListActiveByDate", mock.Anything, wednesday).
		Return([]domain.Appointment{activeAt("a", domain.Clock(10, 0), 30)}, nil).Once()

	sess, err := w.SelectServices(ctx, sess.ID, []string{"haircut", "beard"})
	require.NoError(t, err)
	assert.Equal(t, StateSelectingTime, sess.State)
	assert.Equal(t, 60, sess.DurationMinutes)
	assert.Nil(t, sess.Time, "chosen time is cleared")
	assert.Contains(t, sess.Slots, domain.Clock(9, 0))
	assert.NotContains(t, sess.Slots, domain.Clock(9, 30), "09:30+60 would run into 10:00")
	assert.NotContains(t, sess.Slots, domain.Clock(11, 30), "11:30+60 would run into lunch")
}

func TestWorkflow_UnknownSession(t *testing.T) {
	w, _ := newTestWorkflow(t)

	_, err := w.Session(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = w.SelectServices(context.Background(), "missing", []string{"haircut"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, w.Discard(context.Background(), "missing"))
}

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
)

func TestNewAppointmentEvent(t *testing.T) {
	a := &domain.Appointment{
		ID:              "0190f1c2",
		Date:            time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
		Start:           domain.Clock(9, 30),
		DurationMinutes: 60,
		Services:        []string{"Carbonoplastia"},
		Customer:        domain.Customer{Name: "Ana", Phone: "11952343456", Email: "ana@example.com"},
		Status:          domain.AppointmentStatusActive,
	}
	at := time.Date(2024, 6, 1, 15, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	event := NewAppointmentEvent(EventAppointmentCreated, a, at)
	assert.Equal(t, "04/06/2024", event.Date)
	assert.Equal(t, "09:30", event.Start)
	assert.Equal(t, 60, event.DurationMinutes)
	assert.Equal(t, "active", event.Status)
	assert.Equal(t, time.UTC, event.OccurredAt.Location())

	data, err := json.Marshal(event)
	require.NoError(t, err)
	decoded, err := DecodeAppointmentEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event.AppointmentID, decoded.AppointmentID)
	assert.True(t, event.OccurredAt.Equal(decoded.OccurredAt))
}

func TestDecodeAppointmentEvent_Invalid(t *testing.T) {
	_, err := DecodeAppointmentEvent([]byte(`{`))
	assert.Error(t, err)

	_, err = DecodeAppointmentEvent([]byte(`{"type":"appointment_created"}`))
	assert.Error(t, err)
}

func TestConsumer_AppointmentHandler(t *testing.T) {
	c := &Consumer{logger: logging.Discard()}

	var got []AppointmentEvent
	handler := c.AppointmentHandler(func(_ context.Context, e AppointmentEvent) error {
		got = append(got, e)
		return nil
	})

	require.NoError(t, handler(context.Background(), kafka.Message{Value: []byte(`garbage`)}))
	require.NoError(t, handler(context.Background(), kafka.Message{Value: []byte(`{"type":"appointment_cancelled","appointment_id":"a1"}`)}))
	require.Len(t, got, 1)
	assert.Equal(t, EventAppointmentCancelled, got[0].Type)

	failing := c.AppointmentHandler(func(context.Context, AppointmentEvent) error {
		return errors.New("smtp down")
	})
	assert.Error(t, failing(context.Background(), kafka.Message{Value: []byte(`{"type":"appointment_created","appointment_id":"a2"}`)}))
}

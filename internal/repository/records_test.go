package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
)

func TestDecodeAppointment(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantErr  bool
		duration int
		services []string
	}{
		{name: "legacy record", data: `{"dia":"01/06/2024","horario":"9:30","servico":"Barba"}`, duration: 30, services: []string{"Barba"}},
		{name: "zero duration kept", data: `{"dia":"01/06/2024","horario":"09:30","servico":"Sobrancelha","duration":0}`, duration: 0, services: []string{"Sobrancelha"}},
		{name: "several services", data: `{"dia":"01/06/2024","horario":"10:00","servico":"Corte de Cabelo,  Barba, ","duration":60}`, duration: 60, services: []string{"Corte de Cabelo", "Barba"}},
		{name: "bad date", data: `{"dia":"2024-06-01","horario":"10:00"}`, wantErr: true},
		{name: "bad time", data: `{"dia":"01/06/2024","horario":"25:00"}`, wantErr: true},
		{name: "negative duration", data: `{"dia":"01/06/2024","horario":"10:00","duration":-30}`, wantErr: true},
		{name: "not json", data: `nope`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := decodeAppointment("id", []byte(tt.data), domain.AppointmentStatusActive, time.UTC)
			if tt.wantErr {
				assert.ErrorIs(t, err, errMalformedRecord)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.duration, a.DurationMinutes)
			assert.Equal(t, tt.services, a.Services)
			assert.Equal(t, time.June, a.Date.Month())
		})
	}
}

func TestDecodeAppointment_StatusComesFromCollection(t *testing.T) {
	a, err := decodeAppointment("id", []byte(`{"dia":"01/06/2024","horario":"10:00","status":"active"}`), domain.AppointmentStatusCancelled, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusCancelled, a.Status)
}

func TestDecodeService(t *testing.T) {
	s, err := decodeService("taninoplastia", []byte(`{"name":"Taninoplastia","duration":60,"sizes":{"p":120,"m":140,"g":160}}`))
	require.NoError(t, err)
	assert.Equal(t, "taninoplastia", s.ID)
	assert.True(t, s.Tiered())
	assert.Nil(t, s.Price)

	_, err = decodeService("x", []byte(`{"duration":30}`))
	assert.ErrorIs(t, err, errMalformedRecord)
}

func TestPersonalCollection(t *testing.T) {
	assert.Equal(t, "user/number/11952343456/agendamento", PersonalCollection("11952343456"))
}

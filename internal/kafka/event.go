package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
)

const (
	EventAppointmentCreated   = "appointment_created"
	EventAppointmentUpdated   = "appointment_updated"
	EventAppointmentCompleted = "appointment_completed"
	EventAppointmentCancelled = "appointment_cancelled"
)

// AppointmentEvent is published after an appointment changed in the store.
type AppointmentEvent struct {
	Type            string    `json:"type"`
	AppointmentID   string    `json:"appointment_id"`
	Date            string    `json:"date"`
	Start           string    `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
	Services        []string  `json:"services"`
	CustomerName    string    `json:"customer_name"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email,omitempty"`
	Status          string    `json:"status"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func NewAppointmentEvent(eventType string, a *domain.Appointment, at time.Time) AppointmentEvent {
	return AppointmentEvent{
		Type:            eventType,
		AppointmentID:   a.ID,
		Date:            domain.FormatDate(a.Date),
		Start:           a.Start.String(),
		DurationMinutes: a.DurationMinutes,
		Services:        a.Services,
		CustomerName:    a.Customer.Name,
		Phone:           a.Customer.Phone,
		Email:           a.Customer.Email,
		Status:          string(a.Status),
		OccurredAt:      at.UTC(),
	}
}

func DecodeAppointmentEvent(data []byte) (AppointmentEvent, error) {
	var event AppointmentEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return AppointmentEvent{}, fmt.Errorf("decode appointment event: %w", err)
	}
	if event.Type == "" || event.AppointmentID == "" {
		return AppointmentEvent{}, fmt.Errorf("decode appointment event: missing type or id")
	}
	return event, nil
}

package domain

import "time"

type AppointmentStatus string

const (
	AppointmentStatusActive    AppointmentStatus = "active"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// DefaultStoredDuration applies to records written before durations were persisted.
const DefaultStoredDuration = 30

// Terminal reports whether no further transition is allowed from s.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusActive, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type Appointment struct {
	ID              string
	Date            time.Time
	Start           TimeOfDay
	DurationMinutes int
	Services        []string
	ServiceIDs      []string
	Customer        Customer
	Status          AppointmentStatus
	CreatedAt       time.Time
	CompletedAt     *time.Time
	CancelledAt     *time.Time
}

func (a *Appointment) End() TimeOfDay {
	return a.Start.Add(a.DurationMinutes)
}

// StartsAt returns the absolute start instant in the location of Date.
func (a *Appointment) StartsAt() time.Time {
	return a.Start.On(a.Date)
}

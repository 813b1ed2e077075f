package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SeveN7Igor7/studioivosantos/internal/docstore"
	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
)

// Collections of the document store, kept compatible with existing data.
const (
	CollectionActive    = "agendamentobarbeiro"
	CollectionCompleted = "finalizados"
	CollectionCancelled = "cancelados"
	CollectionDisabled  = "diasdesativados"
	CollectionServices  = "services"
)

const servicesSeparator = ", "

// PersonalCollection holds the active appointments of one customer.
func PersonalCollection(phone string) string {
	return docstore.Join("user", "number", phone, "agendamento")
}

func statusCollection(status domain.AppointmentStatus) string {
	switch status {
	case domain.AppointmentStatusCompleted:
		return CollectionCompleted
	case domain.AppointmentStatusCancelled:
		return CollectionCancelled
	default:
		return CollectionActive
	}
}

// appointmentRecord is the stored shape of an appointment. Field names are
// the legacy ones; serviceIds and createdAt are additive.
type appointmentRecord struct {
	Dia         string   `json:"dia"`
	Horario     string   `json:"horario"`
	Servico     string   `json:"servico"`
	ServiceIDs  []string `json:"serviceIds,omitempty"`
	UserName    string   `json:"userName,omitempty"`
	UserPhone   string   `json:"userPhone,omitempty"`
	UserEmail   string   `json:"userEmail,omitempty"`
	Duration    *int     `json:"duration,omitempty"`
	Status      string   `json:"status,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	CompletedAt string   `json:"completedAt,omitempty"`
	CancelledAt string   `json:"cancelledAt,omitempty"`
}

var errMalformedRecord = errors.New("malformed record")

func encodeAppointment(a *domain.Appointment) ([]byte, error) {
	rec := appointmentRecord{
		Dia:        domain.FormatDate(a.Date),
		Horario:    a.Start.String(),
		Servico:    strings.Join(a.Services, servicesSeparator),
		ServiceIDs: a.ServiceIDs,
		UserName:   a.Customer.Name,
		UserPhone:  a.Customer.Phone,
		UserEmail:  a.Customer.Email,
		Duration:   domain.IntPtr(a.DurationMinutes),
		Status:     string(a.Status),
		CreatedAt:  formatTimestamp(&a.CreatedAt),
	}
	rec.CompletedAt = formatTimestamp(a.CompletedAt)
	rec.CancelledAt = formatTimestamp(a.CancelledAt)
	return json.Marshal(rec)
}

// encodePersonal is the trimmed copy kept under the customer's own path.
func encodePersonal(a *domain.Appointment) ([]byte, error) {
	return json.Marshal(appointmentRecord{
		Dia:        domain.FormatDate(a.Date),
		Horario:    a.Start.String(),
		Servico:    strings.Join(a.Services, servicesSeparator),
		ServiceIDs: a.ServiceIDs,
		Duration:   domain.IntPtr(a.DurationMinutes),
	})
}

// decodeAppointment validates a stored record. The collection it was read
// from decides the status; a missing duration reads as the legacy default.
func decodeAppointment(id string, data []byte, status domain.AppointmentStatus, loc *time.Location) (domain.Appointment, error) {
	var rec appointmentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Appointment{}, fmt.Errorf("%w: %s: %v", errMalformedRecord, id, err)
	}
	day, err := time.ParseInLocation(domain.DateLayout, rec.Dia, loc)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("%w: %s: dia %q", errMalformedRecord, id, rec.Dia)
	}
	start, err := domain.ParseTimeOfDay(rec.Horario)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("%w: %s: %v", errMalformedRecord, id, err)
	}
	duration := domain.DefaultStoredDuration
	if rec.Duration != nil {
		duration = *rec.Duration
	}
	if duration < 0 {
		return domain.Appointment{}, fmt.Errorf("%w: %s: negative duration", errMalformedRecord, id)
	}

	a := domain.Appointment{
		ID:              id,
		Date:            day,
		Start:           start,
		DurationMinutes: duration,
		Services:        splitServices(rec.Servico),
		ServiceIDs:      rec.ServiceIDs,
		Customer: domain.Customer{
			Name:  rec.UserName,
			Phone: rec.UserPhone,
			Email: rec.UserEmail,
		},
		Status: status,
	}
	if ts := parseTimestamp(rec.CreatedAt); ts != nil {
		a.CreatedAt = *ts
	}
	a.CompletedAt = parseTimestamp(rec.CompletedAt)
	a.CancelledAt = parseTimestamp(rec.CancelledAt)
	return a, nil
}

func splitServices(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func formatTimestamp(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &ts
}

type serviceRecord struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Duration    int                `json:"duration,omitempty"`
	Price       *int               `json:"price,omitempty"`
	Sizes       *domain.SizePrices `json:"sizes,omitempty"`
}

func encodeService(s domain.Service) ([]byte, error) {
	return json.Marshal(serviceRecord{
		Name:        s.Name,
		Description: s.Description,
		Duration:    s.DurationMinutes,
		Price:       s.Price,
		Sizes:       s.Sizes,
	})
}

func decodeService(id string, data []byte) (domain.Service, error) {
	var rec serviceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Service{}, fmt.Errorf("%w: service %s: %v", errMalformedRecord, id, err)
	}
	if strings.TrimSpace(rec.Name) == "" {
		return domain.Service{}, fmt.Errorf("%w: service %s has no name", errMalformedRecord, id)
	}
	return domain.Service{
		ID:              id,
		Name:            rec.Name,
		Description:     rec.Description,
		DurationMinutes: rec.Duration,
		Price:           rec.Price,
		Sizes:           rec.Sizes,
	}, nil
}

type disabledDayRecord struct {
	Blocked bool `json:"blocked"`
}

// storeErr classifies a store failure for callers above the repository.
func storeErr(op string, err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/schedule"
	"github.com/SeveN7Igor7/studioivosantos/internal/service/booking"
)

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSelection):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSlotConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRuleViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	if status == http.StatusConflict || status == http.StatusUnprocessableEntity {
		resp.Reason = reasonFor(err)
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		resp.Error = "internal error"
	}
	c.AbortWithStatusJSON(status, resp)
}

func reasonFor(err error) string {
	if errors.Is(err, booking.ErrDayBusy) {
		return "day_busy"
	}
	return schedule.ReasonCode(err)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg})
}

type appointmentResponse struct {
	ID              string          `json:"id"`
	Date            string          `json:"date"`
	Start           string          `json:"start"`
	End             string          `json:"end"`
	DurationMinutes int             `json:"duration_minutes"`
	Services        []string        `json:"services"`
	ServiceIDs      []string        `json:"service_ids,omitempty"`
	Customer        domain.Customer `json:"customer"`
	Status          string          `json:"status"`
	CreatedAt       *time.Time      `json:"created_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
}

func toAppointmentResponse(a *domain.Appointment) appointmentResponse {
	resp := appointmentResponse{
		ID:              a.ID,
		Date:            a.Date.Format(domain.ISODateLayout),
		Start:           a.Start.String(),
		End:             a.End().String(),
		DurationMinutes: a.DurationMinutes,
		Services:        a.Services,
		ServiceIDs:      a.ServiceIDs,
		Customer:        a.Customer,
		Status:          string(a.Status),
		CompletedAt:     a.CompletedAt,
		CancelledAt:     a.CancelledAt,
	}
	if !a.CreatedAt.IsZero() {
		created := a.CreatedAt
		resp.CreatedAt = &created
	}
	return resp
}

func toAppointmentList(list []domain.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(list))
	for i := range list {
		out = append(out, toAppointmentResponse(&list[i]))
	}
	return out
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/service/booking"
)

type AppointmentHandler struct {
	service booking.BookingUseCase
	loc     *time.Location
}

func NewAppointmentHandler(service booking.BookingUseCase, loc *time.Location) *AppointmentHandler {
	return &AppointmentHandler{service: service, loc: loc}
}

func (h *AppointmentHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.book)
	router.POST("/manual", h.createManual)
	router.GET("/:id", h.get)
	router.PUT("/:id", h.updateManual)
	router.POST("/:id/complete", h.complete)
	router.POST("/:id/cancel", h.cancel)
}

// RegisterAvailability mounts the public slot grid endpoint.
func (h *AppointmentHandler) RegisterAvailability(router *gin.RouterGroup) {
	router.GET("/", h.availability)
}

func (h *AppointmentHandler) RegisterCustomers(router *gin.RouterGroup) {
	router.GET("/:phone/appointments", h.customerAppointments)
}

type bookRequest struct {
	ServiceIDs []string        `json:"service_ids" binding:"required"`
	Date       string          `json:"date" binding:"required"`
	Start      string          `json:"start" binding:"required"`
	Customer   domain.Customer `json:"customer"`
}

type manualRequest struct {
	ServiceIDs      []string        `json:"service_ids"`
	Services        []string        `json:"services"`
	Date            string          `json:"date" binding:"required"`
	Start           string          `json:"start" binding:"required"`
	DurationMinutes *int            `json:"duration_minutes"`
	Customer        domain.Customer `json:"customer"`
}

type availabilityResponse struct {
	Date            string           `json:"date"`
	DurationMinutes int              `json:"duration_minutes"`
	Services        []domain.Service `json:"services"`
	Slots           []string         `json:"slots"`
	Reason          string           `json:"reason,omitempty"`
}

func (h *AppointmentHandler) availability(c *gin.Context) {
	date, err := domain.ParseDate(c.Query("date"), h.loc)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	ids := c.QueryArray("services")
	if len(ids) == 0 {
		badRequest(c, "at least one service is required")
		return
	}

	av, err := h.service.Availability(c.Request.Context(), date, ids)
	if err != nil {
		writeError(c, err)
		return
	}
	slots := make([]string, 0, len(av.Slots))
	for _, s := range av.Slots {
		slots = append(slots, s.String())
	}
	c.JSON(http.StatusOK, availabilityResponse{
		Date:            date.Format(domain.ISODateLayout),
		DurationMinutes: av.DurationMinutes,
		Services:        av.Services,
		Slots:           slots,
		Reason:          av.Reason,
	})
}

func (h *AppointmentHandler) book(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	date, err := domain.ParseDate(req.Date, h.loc)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	start, err := domain.ParseTimeOfDay(req.Start)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	a, err := h.service.Book(c.Request.Context(), booking.BookInput{
		ServiceIDs: req.ServiceIDs,
		Date:       date,
		Start:      start,
		Customer:   req.Customer,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAppointmentResponse(a))
}

func (h *AppointmentHandler) get(c *gin.Context) {
	a, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentResponse(a))
}

func (h *AppointmentHandler) complete(c *gin.Context) {
	a, err := h.service.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentResponse(a))
}

func (h *AppointmentHandler) cancel(c *gin.Context) {
	a, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentResponse(a))
}

func (h *AppointmentHandler) createManual(c *gin.Context) {
	input, ok := h.bindManual(c)
	if !ok {
		return
	}
	a, err := h.service.CreateManual(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAppointmentResponse(a))
}

func (h *AppointmentHandler) updateManual(c *gin.Context) {
	input, ok := h.bindManual(c)
	if !ok {
		return
	}
	a, err := h.service.UpdateManual(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentResponse(a))
}

func (h *AppointmentHandler) bindManual(c *gin.Context) (booking.ManualInput, bool) {
	var req manualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return booking.ManualInput{}, false
	}
	date, err := domain.ParseDate(req.Date, h.loc)
	if err != nil {
		badRequest(c, err.Error())
		return booking.ManualInput{}, false
	}
	return booking.ManualInput{
		ServiceIDs:      req.ServiceIDs,
		Services:        req.Services,
		Date:            date,
		Start:           req.Start,
		DurationMinutes: req.DurationMinutes,
		Customer:        req.Customer,
	}, true
}

func (h *AppointmentHandler) customerAppointments(c *gin.Context) {
	list, err := h.service.CustomerAppointments(c.Request.Context(), c.Param("phone"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentList(list))
}

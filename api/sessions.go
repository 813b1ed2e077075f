package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/service/booking"
)

// SessionHandler exposes the step-by-step booking flow used by the public site.
type SessionHandler struct {
	workflow booking.WorkflowUseCase
	loc      *time.Location
}

func NewSessionHandler(workflow booking.WorkflowUseCase, loc *time.Location) *SessionHandler {
	return &SessionHandler{workflow: workflow, loc: loc}
}

func (h *SessionHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.start)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.discard)
	router.PUT("/:id/services", h.selectServices)
	router.PUT("/:id/date", h.selectDate)
	router.PUT("/:id/time", h.selectTime)
	router.POST("/:id/confirm", h.confirm)
}

type selectServicesRequest struct {
	ServiceIDs []string `json:"service_ids"`
}

type selectDateRequest struct {
	Date string `json:"date" binding:"required"`
}

type selectTimeRequest struct {
	Time string `json:"time" binding:"required"`
}

type confirmRequest struct {
	Customer domain.Customer `json:"customer"`
}

func (h *SessionHandler) start(c *gin.Context) {
	sess, err := h.workflow.Start(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *SessionHandler) get(c *gin.Context) {
	sess, err := h.workflow.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *SessionHandler) discard(c *gin.Context) {
	if err := h.workflow.Discard(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) selectServices(c *gin.Context) {
	var req selectServicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	sess, err := h.workflow.SelectServices(c.Request.Context(), c.Param("id"), req.ServiceIDs)
	h.respond(c, sess, err)
}

func (h *SessionHandler) selectDate(c *gin.Context) {
	var req selectDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	date, err := domain.ParseDate(req.Date, h.loc)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	sess, err := h.workflow.SelectDate(c.Request.Context(), c.Param("id"), date)
	h.respond(c, sess, err)
}

func (h *SessionHandler) selectTime(c *gin.Context) {
	var req selectTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	start, err := domain.ParseTimeOfDay(req.Time)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	sess, err := h.workflow.SelectTime(c.Request.Context(), c.Param("id"), start)
	h.respond(c, sess, err)
}

// confirm answers with the session even when booking failed, so the client can
// show the refreshed grid next to the error.
func (h *SessionHandler) confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	sess, err := h.workflow.Confirm(c.Request.Context(), c.Param("id"), req.Customer)
	if err != nil && sess != nil {
		c.JSON(statusFor(err), gin.H{
			"error":   err.Error(),
			"reason":  reasonFor(err),
			"session": sess,
		})
		return
	}
	h.respond(c, sess, err)
}

func (h *SessionHandler) respond(c *gin.Context, sess *booking.Session, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

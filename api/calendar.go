package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/service/calendar"
)

const keepAliveInterval = 25 * time.Second

// CalendarHandler backs the staff calendar screens.
type CalendarHandler struct {
	service calendar.CalendarUseCase
	loc     *time.Location
	now     func() time.Time
}

func NewCalendarHandler(service calendar.CalendarUseCase, loc *time.Location) *CalendarHandler {
	return &CalendarHandler{service: service, loc: loc, now: time.Now}
}

func (h *CalendarHandler) Register(router *gin.RouterGroup) {
	router.GET("/days/:date", h.day)
	router.GET("/months/:year/:month", h.month)
	router.GET("/disabled-days", h.disabledDays)
	router.PUT("/disabled-days/:date", h.setDisabled)
	router.POST("/disabled-days/:date/toggle", h.toggle)
	router.GET("/revenue", h.revenue)
	router.GET("/events", h.events)
}

type setDisabledRequest struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

func (h *CalendarHandler) day(c *gin.Context) {
	date, err := domain.ParseDate(c.Param("date"), h.loc)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	list, err := h.service.Day(c.Request.Context(), date, c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAppointmentList(list))
}

func (h *CalendarHandler) month(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		badRequest(c, "invalid year")
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		badRequest(c, "invalid month")
		return
	}
	stats, err := h.service.Month(c.Request.Context(), year, time.Month(month))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *CalendarHandler) disabledDays(c *gin.Context) {
	days, err := h.service.DisabledDays(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.Format(domain.ISODateLayout))
	}
	c.JSON(http.StatusOK, out)
}

func (h *CalendarHandler) setDisabled(c *gin.Context) {
	date, err := domain.ParseDate(c.Param("date"), h.loc)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req setDisabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.service.SetDayDisabled(c.Request.Context(), date, *req.Disabled); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date.Format(domain.ISODateLayout), "disabled": *req.Disabled})
}

func (h *CalendarHandler) toggle(c *gin.Context) {
	date, err := domain.ParseDate(c.Param("date"), h.loc)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	disabled, err := h.service.ToggleDay(c.Request.Context(), date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date.Format(domain.ISODateLayout), "disabled": disabled})
}

// revenue defaults to the current month when no range is given.
func (h *CalendarHandler) revenue(c *gin.Context) {
	now := h.now().In(h.loc)
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, h.loc)
	to := from.AddDate(0, 1, -1)

	var err error
	if v := c.Query("from"); v != "" {
		if from, err = domain.ParseDate(v, h.loc); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = domain.ParseDate(v, h.loc); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	if to.Before(from) {
		badRequest(c, "to must not be before from")
		return
	}

	rev, err := h.service.Revenue(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rev)
}

// events streams calendar changes as server-sent events until the client leaves.
func (h *CalendarHandler) events(c *gin.Context) {
	updates, err := h.service.Watch(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case u, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent(u.Type, u)
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", gin.H{"at": h.now().UTC().Format(time.RFC3339)})
			return true
		}
	})
}

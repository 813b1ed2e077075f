package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/service/catalog"
)

type ServiceHandler struct {
	service catalog.CatalogUseCase
}

func NewServiceHandler(service catalog.CatalogUseCase) *ServiceHandler {
	return &ServiceHandler{service: service}
}

func (h *ServiceHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.POST("/", h.create)
	router.POST("/seed", h.seed)
	router.GET("/:id", h.get)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.delete)
}

func (h *ServiceHandler) list(c *gin.Context) {
	services, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, services)
}

func (h *ServiceHandler) get(c *gin.Context) {
	svc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (h *ServiceHandler) create(c *gin.Context) {
	var svc domain.Service
	if err := c.ShouldBindJSON(&svc); err != nil {
		badRequest(c, err.Error())
		return
	}
	svc.ID = ""
	saved, err := h.service.Save(c.Request.Context(), svc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *ServiceHandler) update(c *gin.Context) {
	var svc domain.Service
	if err := c.ShouldBindJSON(&svc); err != nil {
		badRequest(c, err.Error())
		return
	}
	svc.ID = c.Param("id")
	saved, err := h.service.Save(c.Request.Context(), svc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *ServiceHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// seed writes the default catalogue; ?overwrite=true replaces existing entries.
func (h *ServiceHandler) seed(c *gin.Context) {
	overwrite, _ := strconv.ParseBool(c.DefaultQuery("overwrite", "false"))
	n, err := h.service.SeedDefaults(c.Request.Context(), overwrite)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seeded": n})
}

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/SeveN7Igor7/studioivosantos/api"
	"github.com/SeveN7Igor7/studioivosantos/config"
	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
	"github.com/SeveN7Igor7/studioivosantos/internal/service/booking"
	"github.com/SeveN7Igor7/studioivosantos/internal/service/calendar"
	"github.com/SeveN7Igor7/studioivosantos/internal/service/catalog"
)

// Checker is a dependency the readiness probe pings.
type Checker interface {
	Ping(ctx context.Context) error
}

type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

type Dependencies struct {
	Bookings booking.BookingUseCase
	Workflow booking.WorkflowUseCase
	Catalog  catalog.CatalogUseCase
	Calendar calendar.CalendarUseCase
	Location *time.Location
	Checks   map[string]Checker
	Metrics  prometheus.Gatherer
	Logger   *logging.Logger
	Docs     bool
}

// NewRouter mounts the public API, the admin API and the operational endpoints.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Metrics == nil {
		deps.Metrics = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(gin.Recovery(), api.RequestID(), api.AccessLog(deps.Logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", readiness(deps.Checks))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))

	if deps.Docs {
		router.GET("/openapi.json", func(c *gin.Context) {
			c.Data(http.StatusOK, "application/json", api.OpenAPI)
		})
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))
	}

	v1 := router.Group("/api/v1")
	if deps.Bookings != nil {
		appointments := api.NewAppointmentHandler(deps.Bookings, deps.Location)
		appointments.Register(v1.Group("/appointments"))
		appointments.RegisterAvailability(v1.Group("/availability"))
		appointments.RegisterCustomers(v1.Group("/customers"))
	}
	if deps.Workflow != nil {
		api.NewSessionHandler(deps.Workflow, deps.Location).Register(v1.Group("/sessions"))
	}
	if deps.Catalog != nil {
		api.NewServiceHandler(deps.Catalog).Register(v1.Group("/services"))
	}
	if deps.Calendar != nil {
		api.NewCalendarHandler(deps.Calendar, deps.Location).Register(v1.Group("/calendar"))
	}
	return router
}

func readiness(checks map[string]Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		c.JSON(status, result)
	}
}

// Run serves handler until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg config.HTTPConfig, handler http.Handler, logger *logging.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           otelhttp.NewHandler(handler, "http.server"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "address", cfg.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		logger.Info("shutting down http server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/SeveN7Igor7/studioivosantos/config"
	"github.com/SeveN7Igor7/studioivosantos/internal/cache"
	"github.com/SeveN7Igor7/studioivosantos/internal/docstore"
	"github.com/SeveN7Igor7/studioivosantos/internal/kafka"
	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
	"github.com/SeveN7Igor7/studioivosantos/internal/metrics"
	"github.com/SeveN7Igor7/studioivosantos/internal/repository"
	"github.com/SeveN7Igor7/studioivosantos/internal/schedule"
	"github.com/SeveN7Igor7/studioivosantos/internal/service/booking"
	"github.com/SeveN7Igor7/studioivosantos/internal/service/calendar"
	"github.com/SeveN7Igor7/studioivosantos/internal/service/catalog"
)

// App holds the wired services shared by the binaries.
type App struct {
	Config   *config.Config
	Logger   *logging.Logger
	Location *time.Location

	Redis    *redis.Client
	Pool     *pgxpool.Pool
	Store    docstore.Store
	Cache    *cache.RedisCache
	Producer *kafka.Producer
	Registry *prometheus.Registry

	Appointments repository.AppointmentRepository
	Days         repository.DayRepository
	Engine       *schedule.Engine
	Catalog      *catalog.CatalogService
	Bookings     *booking.BookingService
	Workflow     *booking.Workflow
	Calendar     *calendar.CalendarService

	closers []func() error
}

// Build connects to the configured backends and wires every service.
// Close releases what Build opened, also after a partial failure.
func Build(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	rules, err := cfg.ShopRules()
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, Location: loc}

	a.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.closers = append(a.closers, a.Redis.Close)
	a.Cache = cache.NewRedisCache(a.Redis, cfg.Store.Prefix, cfg.Booking.ServicesCacheTTL())

	switch cfg.Store.Backend {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.Pool = pool
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		a.Store = docstore.NewPGStore(pool,
			docstore.WithListener(docstore.NewPoolListener(pool)),
			docstore.WithNotifyChannel(cfg.Store.NotifyChannel),
		)
	default:
		a.Store = docstore.NewRedisStore(a.Redis, cfg.Store.Prefix)
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(a.Registry)

	a.Appointments = repository.NewAppointmentRepository(a.Store, loc, logger)
	a.Days = repository.NewDayRepository(a.Store, loc, logger)
	a.Catalog = catalog.NewCatalogService(repository.NewServiceRepository(a.Store, logger), a.Cache, logger)
	a.Engine = schedule.NewEngine(rules)

	opts := []booking.BookingServiceOption{
		booking.WithSlotLocker(a.Cache, cfg.Booking.LockTTL(), cfg.Booking.LockWait()),
		booking.WithMetrics(bookingMetrics),
		booking.WithLogger(logger),
		booking.WithPhoneRegion(cfg.Booking.PhoneRegion),
	}
	if cfg.Kafka.Enabled {
		a.Producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AppointmentsTopic, logger)
		a.closers = append(a.closers, a.Producer.Close)
		opts = append(opts, booking.WithEvents(a.Producer))
	}
	a.Bookings = booking.NewBookingService(a.Appointments, a.Days, a.Catalog, a.Engine, opts...)
	a.Workflow = booking.NewWorkflow(a.Bookings, a.Cache, cfg.Booking.SessionTTL())
	a.Calendar = calendar.NewCalendarService(a.Appointments, a.Days, a.Catalog, loc, logger)

	return a, nil
}

// Checks lists the dependencies the readiness probe should ping.
func (a *App) Checks() map[string]Checker {
	checks := map[string]Checker{
		"store": a.Store,
		"cache": a.Cache,
	}
	if a.Producer != nil {
		checks["kafka"] = CheckerFunc(a.Producer.CheckConnection)
	}
	return checks
}

func (a *App) Router() *gin.Engine {
	return NewRouter(Dependencies{
		Bookings: a.Bookings,
		Workflow: a.Workflow,
		Catalog:  a.Catalog,
		Calendar: a.Calendar,
		Location: a.Location,
		Checks:   a.Checks(),
		Metrics:  a.Registry,
		Logger:   a.Logger,
		Docs:     a.Config.HTTP.Docs,
	})
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

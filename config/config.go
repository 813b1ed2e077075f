package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/SeveN7Igor7/studioivosantos/internal/docstore"
	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/email"
	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
	"github.com/SeveN7Igor7/studioivosantos/internal/schedule"
	"github.com/SeveN7Igor7/studioivosantos/internal/telemetry"
)

const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Store     StoreConfig     `yaml:"store"`
	Shop      ShopConfig      `yaml:"shop"`
	Booking   BookingConfig   `yaml:"booking"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Email     EmailConfig     `yaml:"email"`
}

type HTTPConfig struct {
	Address                string `yaml:"address"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	Docs                   bool   `yaml:"docs"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// URL renders the database as a URL with the given scheme, as migrate expects.
func (d DatabaseConfig) URL(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Enabled           bool     `yaml:"enabled"`
	Brokers           []string `yaml:"brokers"`
	AppointmentsTopic string   `yaml:"appointments_topic"`
	GroupID           string   `yaml:"group_id"`
}

// StoreConfig selects where appointment documents live.
type StoreConfig struct {
	Backend       string `yaml:"backend"`
	Prefix        string `yaml:"prefix"`
	NotifyChannel string `yaml:"notify_channel"`
}

type ShopConfig struct {
	Timezone        string   `yaml:"timezone"`
	Opening         string   `yaml:"opening"`
	WeekdayClosing  string   `yaml:"weekday_closing"`
	SaturdayClosing string   `yaml:"saturday_closing"`
	LunchStart      string   `yaml:"lunch_start"`
	LunchEnd        string   `yaml:"lunch_end"`
	StepMinutes     int      `yaml:"step_minutes"`
	ClosedWeekdays  []string `yaml:"closed_weekdays"`
}

type BookingConfig struct {
	LockTTLSeconds          int    `yaml:"lock_ttl_seconds"`
	LockWaitMillis          int    `yaml:"lock_wait_millis"`
	SessionTTLMinutes       int    `yaml:"session_ttl_minutes"`
	ServicesCacheTTLSeconds int    `yaml:"services_cache_ttl_seconds"`
	PhoneRegion             string `yaml:"phone_region"`
	SeedCatalogue           bool   `yaml:"seed_catalogue"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

type EmailConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	From           string `yaml:"from"`
	UseSSL         bool   `yaml:"use_ssl"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Path returns the config file named by CONFIG_PATH, or config.yaml.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

// LoadConfig reads the YAML file at path. A .env file in the working
// directory is loaded first and ${VAR} references in the file are expanded.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ShutdownTimeoutSeconds == 0 {
		c.HTTP.ShutdownTimeoutSeconds = 5
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = StoreRedis
	}
	if c.Store.NotifyChannel == "" {
		c.Store.NotifyChannel = docstore.DefaultNotifyChannel
	}
	if c.Kafka.AppointmentsTopic == "" {
		c.Kafka.AppointmentsTopic = "appointments"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "barbershop-notifier"
	}

	defaults := schedule.DefaultRules()
	setClock(&c.Shop.Opening, defaults.Opening)
	setClock(&c.Shop.WeekdayClosing, defaults.WeekdayClosing)
	setClock(&c.Shop.SaturdayClosing, defaults.SaturdayClosing)
	setClock(&c.Shop.LunchStart, defaults.LunchStart)
	setClock(&c.Shop.LunchEnd, defaults.LunchEnd)
	if c.Shop.StepMinutes == 0 {
		c.Shop.StepMinutes = defaults.StepMinutes
	}
	if c.Shop.ClosedWeekdays == nil {
		for _, wd := range defaults.ClosedWeekdays {
			c.Shop.ClosedWeekdays = append(c.Shop.ClosedWeekdays, strings.ToLower(wd.String()))
		}
	}

	if c.Booking.LockTTLSeconds == 0 {
		c.Booking.LockTTLSeconds = 10
	}
	if c.Booking.LockWaitMillis == 0 {
		c.Booking.LockWaitMillis = 2000
	}
	if c.Booking.SessionTTLMinutes == 0 {
		c.Booking.SessionTTLMinutes = 30
	}
	if c.Booking.ServicesCacheTTLSeconds == 0 {
		c.Booking.ServicesCacheTTLSeconds = 300
	}
	if c.Booking.PhoneRegion == "" {
		c.Booking.PhoneRegion = domain.DefaultPhoneRegion
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "studioivosantos"
	}
	if c.Telemetry.SampleRatio == 0 {
		c.Telemetry.SampleRatio = 1
	}
	if c.Email.TimeoutSeconds == 0 {
		c.Email.TimeoutSeconds = 10
	}
}

func setClock(field *string, def domain.TimeOfDay) {
	if *field == "" {
		*field = def.String()
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case StoreRedis:
	case StorePostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			errs = append(errs, errors.New("database.host and database.name are required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be %q or %q, got %q", StoreRedis, StorePostgres, c.Store.Backend))
	}
	if strings.Contains(c.Store.Prefix, "/") {
		errs = append(errs, errors.New("store.prefix must not contain '/'"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
	}
	if c.Email.Enabled && (c.Email.Host == "" || c.Email.From == "") {
		errs = append(errs, errors.New("email.host and email.from are required when email is enabled"))
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		errs = append(errs, errors.New("telemetry.otlp_endpoint is required when telemetry is enabled"))
	}
	if c.Booking.LockTTLSeconds < 0 || c.Booking.LockWaitMillis < 0 || c.Booking.SessionTTLMinutes < 0 {
		errs = append(errs, errors.New("booking timings must not be negative"))
	}
	if _, err := c.ShopRules(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	if c.Shop.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Shop.Timezone)
	if err != nil {
		return nil, fmt.Errorf("shop.timezone: %w", err)
	}
	return loc, nil
}

// ShopRules builds the calendar rules the engine applies.
func (c *Config) ShopRules() (schedule.Rules, error) {
	loc, err := c.Location()
	if err != nil {
		return schedule.Rules{}, err
	}
	rules := schedule.Rules{Location: loc, StepMinutes: c.Shop.StepMinutes}

	clocks := []struct {
		name  string
		value string
		dst   *domain.TimeOfDay
	}{
		{"shop.opening", c.Shop.Opening, &rules.Opening},
		{"shop.weekday_closing", c.Shop.WeekdayClosing, &rules.WeekdayClosing},
		{"shop.saturday_closing", c.Shop.SaturdayClosing, &rules.SaturdayClosing},
		{"shop.lunch_start", c.Shop.LunchStart, &rules.LunchStart},
		{"shop.lunch_end", c.Shop.LunchEnd, &rules.LunchEnd},
	}
	for _, cl := range clocks {
		t, err := domain.ParseTimeOfDay(cl.value)
		if err != nil {
			return schedule.Rules{}, fmt.Errorf("%s: %w", cl.name, err)
		}
		*cl.dst = t
	}

	for _, name := range c.Shop.ClosedWeekdays {
		wd, err := parseWeekday(name)
		if err != nil {
			return schedule.Rules{}, err
		}
		rules.ClosedWeekdays = append(rules.ClosedWeekdays, wd)
	}

	if err := rules.Validate(); err != nil {
		return schedule.Rules{}, err
	}
	return rules, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if i, err := strconv.Atoi(n); err == nil && i >= 0 && i <= 6 {
		return time.Weekday(i), nil
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := strings.ToLower(wd.String())
		if n == full || n == full[:3] {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("shop.closed_weekdays: unknown weekday %q", name)
}

func (c *Config) LoggerOptions(service string) logging.Options {
	opts := logging.Options{Level: c.Logging.Level, Format: c.Logging.Format, Service: service}
	if c.Logging.File != "" {
		opts.File = &logging.FileOptions{
			Path:       c.Logging.File,
			MaxSizeMB:  c.Logging.MaxSizeMB,
			MaxBackups: c.Logging.MaxBackups,
			MaxAgeDays: c.Logging.MaxAgeDays,
			Compress:   c.Logging.Compress,
		}
	}
	return opts
}

func (c *Config) TelemetryOptions() telemetry.Config {
	return telemetry.Config{
		Enabled:      c.Telemetry.Enabled,
		ServiceName:  c.Telemetry.ServiceName,
		OTLPEndpoint: c.Telemetry.OTLPEndpoint,
		SampleRatio:  c.Telemetry.SampleRatio,
	}
}

func (c *Config) EmailOptions() email.Config {
	return email.Config{
		Enabled:  c.Email.Enabled,
		Host:     c.Email.Host,
		Port:     c.Email.Port,
		Username: c.Email.Username,
		Password: c.Email.Password,
		From:     c.Email.From,
		UseSSL:   c.Email.UseSSL,
		Timeout:  time.Duration(c.Email.TimeoutSeconds) * time.Second,
	}
}

func (b BookingConfig) LockTTL() time.Duration {
	return time.Duration(b.LockTTLSeconds) * time.Second
}

func (b BookingConfig) LockWait() time.Duration {
	return time.Duration(b.LockWaitMillis) * time.Millisecond
}

func (b BookingConfig) SessionTTL() time.Duration {
	return time.Duration(b.SessionTTLMinutes) * time.Minute
}

func (b BookingConfig) ServicesCacheTTL() time.Duration {
	return time.Duration(b.ServicesCacheTTLSeconds) * time.Second
}

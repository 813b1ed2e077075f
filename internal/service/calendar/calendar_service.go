package calendar

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/SeveN7Igor7/studioivosantos/internal/docstore"
	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
	"github.com/SeveN7Igor7/studioivosantos/internal/repository"
	"github.com/SeveN7Igor7/studioivosantos/internal/schedule"
)

type CalendarUseCase interface {
	Day(ctx context.Context, date time.Time, search string) ([]domain.Appointment, error)
	Month(ctx context.Context, year int, month time.Month) ([]DayStats, error)
	DisabledDays(ctx context.Context) ([]time.Time, error)
	SetDayDisabled(ctx context.Context, date time.Time, disabled bool) error
	ToggleDay(ctx context.Context, date time.Time) (bool, error)
	Revenue(ctx context.Context, from, to time.Time) (*Revenue, error)
	Watch(ctx context.Context) (<-chan Update, error)
}

// ServiceLister provides the catalogue used to price completed work.
type ServiceLister interface {
	List(ctx context.Context) ([]domain.Service, error)
}

// DayStats counts a day's appointments per status.
type DayStats struct {
	Date      string `json:"date"`
	Active    int    `json:"active"`
	Completed int    `json:"completed"`
	Cancelled int    `json:"cancelled"`
	Disabled  bool   `json:"disabled"`
}

const (
	UpdateAppointments = "appointments"
	UpdateDays         = "days"
)

// Update tells watchers which part of the calendar changed.
type Update struct {
	Type       string `json:"type"`
	Collection string `json:"collection"`
	Key        string `json:"key"`
	Op         string `json:"op"`
	Date       string `json:"date,omitempty"`
}

type CalendarService struct {
	appointments repository.AppointmentRepository
	days         repository.DayRepository
	services     ServiceLister
	loc          *time.Location
	logger       *logging.Logger
}

func NewCalendarService(
	appointments repository.AppointmentRepository,
	days repository.DayRepository,
	services ServiceLister,
	loc *time.Location,
	logger *logging.Logger,
) *CalendarService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &CalendarService{appointments: appointments, days: days, services: services, loc: loc, logger: logger}
}

// Day lists every appointment of date in any status, ordered by time. A
// non-empty search keeps those whose customer name or phone contains it,
// ignoring case and accents.
func (s *CalendarService) Day(ctx context.Context, date time.Time, search string) ([]domain.Appointment, error) {
	all, err := s.allStatuses(ctx)
	if err != nil {
		return nil, err
	}
	day := domain.DateIn(date, s.loc)
	needle := fold(search)

	var out []domain.Appointment
	for _, a := range all {
		if !domain.SameDay(a.Date, day) {
			continue
		}
		if needle != "" && !strings.Contains(fold(a.Customer.Name), needle) && !strings.Contains(a.Customer.Phone, needle) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start == out[j].Start {
			return out[i].ID < out[j].ID
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

// Month returns one entry per calendar day of the month.
func (s *CalendarService) Month(ctx context.Context, year int, month time.Month) ([]DayStats, error) {
	var (
		all      []domain.Appointment
		disabled schedule.DaySet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = s.allStatuses(gctx)
		return err
	})
	g.Go(func() error {
		set, err := s.days.DisabledDays(gctx)
		disabled = set
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	stats := make([]DayStats, 0, 31)
	index := make(map[string]int, 31)
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		key := d.Format(domain.ISODateLayout)
		_, off := disabled[key]
		index[key] = len(stats)
		stats = append(stats, DayStats{Date: key, Disabled: off})
	}

	for _, a := range all {
		i, ok := index[a.Date.Format(domain.ISODateLayout)]
		if !ok {
			continue
		}
		switch a.Status {
		case domain.AppointmentStatusCompleted:
			stats[i].Completed++
		case domain.AppointmentStatusCancelled:
			stats[i].Cancelled++
		default:
			stats[i].Active++
		}
	}
	return stats, nil
}

// DisabledDays returns the disabled days in chronological order.
func (s *CalendarService) DisabledDays(ctx context.Context) ([]time.Time, error) {
	set, err := s.days.DisabledDays(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(set))
	for key := range set {
		d, err := time.ParseInLocation(domain.ISODateLayout, key, s.loc)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (s *CalendarService) SetDayDisabled(ctx context.Context, date time.Time, disabled bool) error {
	day := domain.DateIn(date, s.loc)
	if err := s.days.SetDisabled(ctx, day, disabled); err != nil {
		return err
	}
	s.logger.Info("day availability changed", "date", day.Format(domain.ISODateLayout), "disabled", disabled)
	return nil
}

// ToggleDay flips the disabled marker of date and returns the new state.
func (s *CalendarService) ToggleDay(ctx context.Context, date time.Time) (bool, error) {
	day := domain.DateIn(date, s.loc)
	current, err := s.days.IsDisabled(ctx, day)
	if err != nil {
		return false, err
	}
	if err := s.SetDayDisabled(ctx, day, !current); err != nil {
		return false, err
	}
	return !current, nil
}

// Watch turns store changes into calendar updates until ctx is done.
func (s *CalendarService) Watch(ctx context.Context) (<-chan Update, error) {
	changes, err := s.appointments.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan Update, 16)
	go func() {
		defer close(out)
		for change := range changes {
			select {
			case out <- s.toUpdate(change):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *CalendarService) toUpdate(change docstore.Change) Update {
	u := Update{
		Type:       UpdateAppointments,
		Collection: change.Collection,
		Key:        change.Key,
		Op:         string(change.Op),
	}
	if change.Collection == repository.CollectionDisabled {
		u.Type = UpdateDays
		if d, err := time.ParseInLocation(domain.DisabledDayLayout, change.Key, s.loc); err == nil {
			u.Date = d.Format(domain.ISODateLayout)
		}
	}
	return u
}

func (s *CalendarService) allStatuses(ctx context.Context) ([]domain.Appointment, error) {
	statuses := []domain.AppointmentStatus{
		domain.AppointmentStatusActive,
		domain.AppointmentStatusCompleted,
		domain.AppointmentStatusCancelled,
	}
	lists := make([][]domain.Appointment, len(statuses))
	g, gctx := errgroup.WithContext(ctx)
	for i, status := range statuses {
		g.Go(func() error {
			list, err := s.appointments.ListByStatus(gctx, status)
			lists[i] = list
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.Appointment
	for _, l := range lists {
		all = append(all, l...)
	}
	return all, nil
}

// fold lowercases s and strips diacritics so "joão" matches "Joao".
func fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	out, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

var _ CalendarUseCase = (*CalendarService)(nil)

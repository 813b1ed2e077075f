package calendar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
)

type DailyRevenue struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
	Count int    `json:"count"`
}

type MonthlyRevenue struct {
	Month string `json:"month"`
	Total int    `json:"total"`
	Count int    `json:"count"`
}

// Revenue sums completed appointments between From and To, both inclusive.
type Revenue struct {
	From     string           `json:"from"`
	To       string           `json:"to"`
	Total    int              `json:"total"`
	Count    int              `json:"count"`
	Daily    []DailyRevenue   `json:"daily"`
	Monthly  []MonthlyRevenue `json:"monthly"`
	Unpriced []string         `json:"unpriced,omitempty"`
}

func (s *CalendarService) Revenue(ctx context.Context, from, to time.Time) (*Revenue, error) {
	from, to = domain.DateIn(from, s.loc), domain.DateIn(to, s.loc)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range ends before it starts", domain.ErrInvalidSelection)
	}

	completed, err := s.appointments.ListByStatus(ctx, domain.AppointmentStatusCompleted)
	if err != nil {
		return nil, err
	}
	catalogue, err := s.services.List(ctx)
	if err != nil {
		return nil, err
	}
	prices := newPriceTable(catalogue)

	rev := &Revenue{
		From:    from.Format(domain.ISODateLayout),
		To:      to.Format(domain.ISODateLayout),
		Daily:   []DailyRevenue{},
		Monthly: []MonthlyRevenue{},
	}
	daily := map[string]*DailyRevenue{}
	monthly := map[string]*MonthlyRevenue{}
	unpriced := map[string]bool{}

	for _, a := range completed {
		day := domain.DateIn(a.Date, s.loc)
		if day.Before(from) || day.After(to) {
			continue
		}
		amount := 0
		for _, name := range a.Services {
			price, ok := prices.price(name)
			if !ok {
				unpriced[name] = true
				continue
			}
			amount += price
		}

		dk := day.Format(domain.ISODateLayout)
		if daily[dk] == nil {
			daily[dk] = &DailyRevenue{Date: dk}
		}
		daily[dk].Total += amount
		daily[dk].Count++

		mk := day.Format("2006-01")
		if monthly[mk] == nil {
			monthly[mk] = &MonthlyRevenue{Month: mk}
		}
		monthly[mk].Total += amount
		monthly[mk].Count++

		rev.Total += amount
		rev.Count++
	}

	for _, d := range daily {
		rev.Daily = append(rev.Daily, *d)
	}
	sort.Slice(rev.Daily, func(i, j int) bool { return rev.Daily[i].Date < rev.Daily[j].Date })
	for _, m := range monthly {
		rev.Monthly = append(rev.Monthly, *m)
	}
	sort.Slice(rev.Monthly, func(i, j int) bool { return rev.Monthly[i].Month < rev.Monthly[j].Month })
	for name := range unpriced {
		rev.Unpriced = append(rev.Unpriced, name)
	}
	sort.Strings(rev.Unpriced)
	return rev, nil
}

type priceTable map[string]domain.Service

func newPriceTable(services []domain.Service) priceTable {
	t := make(priceTable, len(services))
	for _, svc := range services {
		t[fold(svc.Name)] = svc
	}
	return t
}

// price resolves a stored service name. Tiered services may carry a size
// suffix ("Carbonoplastia G", "Carbonoplastia (P)"); without one the medium
// price applies.
func (t priceTable) price(name string) (int, bool) {
	key := fold(name)
	if svc, ok := t[key]; ok {
		return flatOrMedium(svc)
	}

	base, size := splitSize(key)
	svc, ok := t[base]
	if !ok || size == 0 {
		return 0, false
	}
	if svc.Sizes == nil {
		return flatOrMedium(svc)
	}
	switch size {
	case 'p':
		return svc.Sizes.Small, true
	case 'g':
		return svc.Sizes.Large, true
	default:
		return svc.Sizes.Medium, true
	}
}

func flatOrMedium(svc domain.Service) (int, bool) {
	switch {
	case svc.Price != nil:
		return *svc.Price, true
	case svc.Sizes != nil:
		return svc.Sizes.Medium, true
	default:
		return 0, false
	}
}

// splitSize separates a trailing P, M or G size marker from a folded name.
func splitSize(name string) (string, byte) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(name), ")")
	i := strings.LastIndexAny(trimmed, " (-")
	if i < 0 {
		return name, 0
	}
	marker := strings.TrimSpace(trimmed[i+1:])
	if len(marker) != 1 || !strings.Contains("pmg", marker) {
		return name, 0
	}
	base := strings.TrimRight(trimmed[:i], " (-")
	return base, marker[0]
}

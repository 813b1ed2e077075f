package schedule

import "github.com/SeveN7Igor7/studioivosantos/internal/domain"

// ResolveDuration snaps a selection of services to 0, 30 or 60 minutes.
// Durations are bucketed, never summed: stored bookings depend on it.
func ResolveDuration(classes []domain.DurationClass) int {
	short := 0
	for _, c := range classes {
		switch c {
		case domain.DurationLong:
			return 60
		case domain.DurationShort:
			short++
		}
	}
	switch {
	case short >= 2:
		return 60
	case short == 1:
		return 30
	default:
		return 0
	}
}

// ResolveServices is ResolveDuration over a service selection.
func ResolveServices(services []domain.Service) int {
	classes := make([]domain.DurationClass, 0, len(services))
	for _, s := range services {
		classes = append(classes, s.Class())
	}
	return ResolveDuration(classes)
}

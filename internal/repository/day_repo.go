package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/SeveN7Igor7/studioivosantos/internal/docstore"
	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
	"github.com/SeveN7Igor7/studioivosantos/internal/schedule"
)

// DayRepository manages days the shop closed by hand.
type DayRepository interface {
	DisabledDays(ctx context.Context) (schedule.DaySet, error)
	IsDisabled(ctx context.Context, day time.Time) (bool, error)
	SetDisabled(ctx context.Context, day time.Time, disabled bool) error
}

type DocDayRepository struct {
	store  docstore.Store
	loc    *time.Location
	logger *logging.Logger
}

func NewDayRepository(store docstore.Store, loc *time.Location, logger *logging.Logger) DayRepository {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &DocDayRepository{store: store, loc: loc, logger: logger}
}

func (r *DocDayRepository) DisabledDays(ctx context.Context) (schedule.DaySet, error) {
	docs, err := r.store.List(ctx, CollectionDisabled)
	if err != nil {
		return nil, storeErr("list "+CollectionDisabled, err)
	}
	days := schedule.NewDaySet()
	for key, data := range docs {
		day, err := time.ParseInLocation(domain.DisabledDayLayout, key, r.loc)
		if err != nil {
			r.logger.Warn("skipping disabled day", "key", key, "error", err)
			continue
		}
		var rec disabledDayRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			r.logger.Warn("skipping disabled day", "key", key, "error", err)
			continue
		}
		if rec.Blocked {
			days.Add(day)
		}
	}
	return days, nil
}

func (r *DocDayRepository) IsDisabled(ctx context.Context, day time.Time) (bool, error) {
	data, err := r.store.Get(ctx, r.path(day))
	if err != nil {
		err = storeErr("get disabled day", err)
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	var rec disabledDayRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		r.logger.Warn("malformed disabled day", "day", domain.FormatDate(day), "error", err)
		return false, nil
	}
	return rec.Blocked, nil
}

// SetDisabled blocks the day, or removes the marker entirely to re-open it.
func (r *DocDayRepository) SetDisabled(ctx context.Context, day time.Time, disabled bool) error {
	path := r.path(day)
	if !disabled {
		if err := r.store.Remove(ctx, path); err != nil {
			return storeErr("remove "+path, err)
		}
		return nil
	}
	data, err := json.Marshal(disabledDayRecord{Blocked: true})
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, path, data); err != nil {
		return storeErr("set "+path, err)
	}
	return nil
}

func (r *DocDayRepository) path(day time.Time) string {
	return docstore.Join(CollectionDisabled, domain.DateIn(day, r.loc).Format(domain.DisabledDayLayout))
}

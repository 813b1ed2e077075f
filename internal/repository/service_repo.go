package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/SeveN7Igor7/studioivosantos/internal/docstore"
	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
)

type ServiceRepository interface {
	List(ctx context.Context) ([]domain.Service, error)
	Get(ctx context.Context, id string) (*domain.Service, error)
	Save(ctx context.Context, s domain.Service) error
	Delete(ctx context.Context, id string) error
}

type DocServiceRepository struct {
	store  docstore.Store
	logger *logging.Logger
}

func NewServiceRepository(store docstore.Store, logger *logging.Logger) ServiceRepository {
	if logger == nil {
		logger = logging.Discard()
	}
	return &DocServiceRepository{store: store, logger: logger}
}

// List returns the catalogue ordered by name.
func (r *DocServiceRepository) List(ctx context.Context) ([]domain.Service, error) {
	docs, err := r.store.List(ctx, CollectionServices)
	if err != nil {
		return nil, storeErr("list "+CollectionServices, err)
	}
	out := make([]domain.Service, 0, len(docs))
	for id, data := range docs {
		s, err := decodeService(id, data)
		if err != nil {
			r.logger.Warn("skipping service record", "id", id, "error", err)
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *DocServiceRepository) Get(ctx context.Context, id string) (*domain.Service, error) {
	path := docstore.Join(CollectionServices, id)
	data, err := r.store.Get(ctx, path)
	if err != nil {
		return nil, storeErr("get "+path, err)
	}
	s, err := decodeService(id, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return &s, nil
}

func (r *DocServiceRepository) Save(ctx context.Context, s domain.Service) error {
	if strings.TrimSpace(s.ID) == "" || strings.Contains(s.ID, "/") {
		return fmt.Errorf("%w: invalid service id %q", domain.ErrInvalidSelection, s.ID)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: service name is required", domain.ErrInvalidSelection)
	}
	if s.DurationMinutes < 0 {
		return fmt.Errorf("%w: negative duration", domain.ErrInvalidSelection)
	}
	data, err := encodeService(s)
	if err != nil {
		return err
	}
	path := docstore.Join(CollectionServices, s.ID)
	if err := r.store.Set(ctx, path, data); err != nil {
		return storeErr("set "+path, err)
	}
	return nil
}

func (r *DocServiceRepository) Delete(ctx context.Context, id string) error {
	path := docstore.Join(CollectionServices, id)
	if err := r.store.Remove(ctx, path); err != nil {
		return storeErr("remove "+path, err)
	}
	return nil
}

package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SeveN7Igor7/studioivosantos/internal/domain"
	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
	"github.com/SeveN7Igor7/studioivosantos/internal/repository"
)

type CatalogUseCase interface {
	List(ctx context.Context) ([]domain.Service, error)
	Get(ctx context.Context, id string) (*domain.Service, error)
	Save(ctx context.Context, s domain.Service) (*domain.Service, error)
	Delete(ctx context.Context, id string) error
	Resolve(ctx context.Context, ids []string) ([]domain.Service, error)
	SeedDefaults(ctx context.Context, overwrite bool) (int, error)
}

type Cache interface {
	GetServices(ctx context.Context) ([]domain.Service, error)
	SetServices(ctx context.Context, services []domain.Service) error
	InvalidateServices(ctx context.Context) error
}

type CatalogService struct {
	repo   repository.ServiceRepository
	cache  Cache
	logger *logging.Logger
}

// NewCatalogService accepts a nil cache; every read then goes to the store.
func NewCatalogService(repo repository.ServiceRepository, cache Cache, logger *logging.Logger) *CatalogService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &CatalogService{repo: repo, cache: cache, logger: logger}
}

// List serves the catalogue from cache when possible. An empty store is
// seeded with the default catalogue first.
func (s *CatalogService) List(ctx context.Context) ([]domain.Service, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetServices(ctx); err == nil && len(cached) > 0 {
			return cached, nil
		} else if err != nil {
			s.logger.Warn("services cache read failed", "error", err)
		}
	}

	services, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		if _, err := s.SeedDefaults(ctx, false); err != nil {
			return nil, err
		}
		if services, err = s.repo.List(ctx); err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		if err := s.cache.SetServices(ctx, services); err != nil {
			s.logger.Warn("services cache write failed", "error", err)
		}
	}
	return services, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Service, error) {
	return s.repo.Get(ctx, id)
}

// Save creates or replaces a service. A missing id gets a fresh one.
func (s *CatalogService) Save(ctx context.Context, svc domain.Service) (*domain.Service, error) {
	if svc.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, err
		}
		svc.ID = id.String()
	}
	if err := s.repo.Save(ctx, svc); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return &svc, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Resolve maps selected ids to services, keeping selection order and
// dropping duplicates. Unknown ids fail the whole selection.
func (s *CatalogService) Resolve(ctx context.Context, ids []string) ([]domain.Service, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one service is required", domain.ErrInvalidSelection)
	}
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Service, len(all))
	for _, svc := range all {
		byID[svc.ID] = svc
	}

	seen := make(map[string]bool, len(ids))
	out := make([]domain.Service, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		svc, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown service %q", domain.ErrInvalidSelection, id)
		}
		out = append(out, svc)
	}
	return out, nil
}

// SeedDefaults writes the default catalogue. Without overwrite, services that
// already exist are left alone. It returns how many services were written.
func (s *CatalogService) SeedDefaults(ctx context.Context, overwrite bool) (int, error) {
	written := 0
	for _, svc := range DefaultCatalogue() {
		if !overwrite {
			_, err := s.repo.Get(ctx, svc.ID)
			if err == nil {
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return written, err
			}
		}
		if err := s.repo.Save(ctx, svc); err != nil {
			return written, err
		}
		written++
	}
	if written > 0 {
		s.logger.Info("seeded service catalogue", "count", written)
		s.invalidate(ctx)
	}
	return written, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateServices(ctx); err != nil {
		s.logger.Warn("services cache invalidation failed", "error", err)
	}
}

var _ CatalogUseCase = (*CatalogService)(nil)

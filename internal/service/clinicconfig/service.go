package clinicconfig

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
)

const cacheKey = "clinic_config"

// Service serves the clinic profile through a short-lived cache; the row is
// read on almost every page but edited a few times a year.
type Service struct {
	repo  repository.ClinicConfigRepository
	cache *cache.Cache
}

func NewService(repo repository.ClinicConfigRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (s *Service) Get(ctx context.Context) (*model.ClinicConfig, error) {
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*model.ClinicConfig), nil
	}

	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	s.cache.SetDefault(cacheKey, cfg)
	return cfg, nil
}

func (s *Service) Update(ctx context.Context, req *model.UpdateClinicConfigRequest) (*model.ClinicConfig, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}

	if req.Name != nil {
		cfg.Name = *req.Name
	}
	if req.RUC != nil {
		cfg.RUC = *req.RUC
	}
	if req.Address != nil {
		cfg.Address = *req.Address
	}
	if req.Phone != nil {
		cfg.Phone = *req.Phone
	}
	if req.Email != nil {
		cfg.Email = *req.Email
	}
	if req.Currency != nil {
		cfg.Currency = *req.Currency
	}
	if req.InvoiceSerie != nil {
		cfg.InvoiceSerie = *req.InvoiceSerie
	}
	if req.LogoURL != nil {
		cfg.LogoURL = req.LogoURL
	}

	if err := s.repo.Update(ctx, cfg); err != nil {
		return nil, errors.Internal(err)
	}
	s.cache.Delete(cacheKey)
	return cfg, nil
}

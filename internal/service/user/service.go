package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
)

// Service covers admin-side user management: listing accounts, assigning
// staff roles and disabling access.
type Service struct {
	users repository.UserRepository
}

func NewService(users repository.UserRepository) *Service {
	return &Service{users: users}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("user", err)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, role *model.UserRole, pg model.Pagination) ([]*model.User, error) {
	return s.users.List(ctx, role, pg)
}

func (s *Service) ListMedics(ctx context.Context) ([]*model.User, error) {
	return s.users.ListByRole(ctx, model.UserRoleMedic)
}

func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, role model.UserRole) (*model.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("user", err)
	}
	u.Role = role
	if err := s.users.Update(ctx, u); err != nil {
		return nil, errors.Internal(err)
	}
	return u, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status model.UserStatus) (*model.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("user", err)
	}
	u.Status = status
	if err := s.users.Update(ctx, u); err != nil {
		return nil, errors.Internal(err)
	}
	return u, nil
}

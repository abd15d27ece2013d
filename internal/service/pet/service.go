package pet

import (
	"context"

	"github.com/google/uuid"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
)

type Service struct {
	pets  repository.PetRepository
	users repository.UserRepository
}

func NewService(pets repository.PetRepository, users repository.UserRepository) *Service {
	return &Service{pets: pets, users: users}
}

// Create registers a pet. Clients register their own pets; staff can pass
// an explicit owner.
func (s *Service) Create(ctx context.Context, actor *model.TokenClaims, req *model.CreatePetRequest) (*model.Pet, error) {
	ownerID := actor.UserID
	if req.OwnerID != nil {
		if actor.Role == model.UserRoleClient && *req.OwnerID != actor.UserID {
			return nil, errors.Forbidden("clients can only register their own pets")
		}
		ownerID = *req.OwnerID
	}

	owner, err := s.users.Get(ctx, ownerID)
	if err != nil {
		return nil, errors.NotFound("owner", err)
	}
	if owner.Role != model.UserRoleClient {
		return nil, errors.Validation("pet owner must be a client")
	}

	pet := &model.Pet{
		OwnerID:   ownerID,
		Name:      req.Name,
		Species:   req.Species,
		Breed:     req.Breed,
		Sex:       req.Sex,
		BirthDate: req.BirthDate,
		WeightKg:  req.WeightKg,
		Notes:     req.Notes,
	}
	if err := s.pets.Create(ctx, pet); err != nil {
		return nil, errors.Internal(err)
	}
	return pet, nil
}

func (s *Service) Get(ctx context.Context, actor *model.TokenClaims, id uuid.UUID) (*model.Pet, error) {
	pet, err := s.pets.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("pet", err)
	}
	if actor.Role == model.UserRoleClient && pet.OwnerID != actor.UserID {
		return nil, errors.Forbidden("pet does not belong to client")
	}
	return pet, nil
}

func (s *Service) Update(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, req *model.UpdatePetRequest) (*model.Pet, error) {
	pet, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		pet.Name = *req.Name
	}
	if req.Breed != nil {
		pet.Breed = req.Breed
	}
	if req.WeightKg != nil {
		pet.WeightKg = req.WeightKg
	}
	if req.Notes != nil {
		pet.Notes = req.Notes
	}

	if err := s.pets.Update(ctx, pet); err != nil {
		return nil, errors.Internal(err)
	}
	return pet, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Pet, error) {
	return s.pets.ListByOwner(ctx, ownerID)
}

func (s *Service) List(ctx context.Context, pg model.Pagination) ([]*model.Pet, error) {
	return s.pets.List(ctx, pg)
}

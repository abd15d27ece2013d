package clinical

import (
	"context"

	"github.com/google/uuid"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
)

// Service manages pet medical histories. Records are written by medics and
// readable by staff and the pet's owner.
type Service struct {
	records repository.ClinicalRecordRepository
	pets    repository.PetRepository
}

func NewService(records repository.ClinicalRecordRepository, pets repository.PetRepository) *Service {
	return &Service{records: records, pets: pets}
}

func (s *Service) Create(ctx context.Context, medicID uuid.UUID, req *model.CreateClinicalRecordRequest) (*model.ClinicalRecord, error) {
	pet, err := s.pets.Get(ctx, req.PetID)
	if err != nil {
		return nil, errors.NotFound("pet", err)
	}

	rec := &model.ClinicalRecord{
		PetID:         req.PetID,
		MedicID:       medicID,
		AppointmentID: req.AppointmentID,
		Diagnosis:     req.Diagnosis,
		Treatment:     req.Treatment,
		Prescription:  req.Prescription,
		WeightKg:      req.WeightKg,
		NextDoseAt:    req.NextDoseAt,
		DoseNote:      req.DoseNote,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, errors.Internal(err)
	}

	// Keep the pet's recorded weight current.
	if req.WeightKg != nil {
		pet.WeightKg = req.WeightKg
		if err := s.pets.Update(ctx, pet); err != nil {
			return nil, errors.Internal(err)
		}
	}
	return rec, nil
}

func (s *Service) ListByPet(ctx context.Context, actor *model.TokenClaims, petID uuid.UUID) ([]*model.ClinicalRecord, error) {
	if actor.Role == model.UserRoleClient {
		pet, err := s.pets.Get(ctx, petID)
		if err != nil {
			return nil, errors.NotFound("pet", err)
		}
		if pet.OwnerID != actor.UserID {
			return nil, errors.Forbidden("pet does not belong to client")
		}
	}
	return s.records.ListByPet(ctx, petID)
}

func (s *Service) Get(ctx context.Context, actor *model.TokenClaims, id uuid.UUID) (*model.ClinicalRecord, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("clinical record", err)
	}
	if actor.Role == model.UserRoleClient && rec.OwnerID != actor.UserID {
		return nil, errors.Forbidden("record does not belong to client")
	}
	return rec, nil
}

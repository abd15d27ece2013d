package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
)

type petRepository struct {
	db sqlx.ExtContext
}

func NewPetRepository(db *sqlx.DB) repository.PetRepository {
	return &petRepository{db: db}
}

func (r *petRepository) Create(ctx context.Context, pet *model.Pet) error {
	query := `
		INSERT INTO pets (
			id, owner_id, name, species, breed, sex, birth_date, weight_kg,
			notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	now := time.Now()
	pet.ID = uuid.New()
	pet.CreatedAt = now
	pet.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		pet.ID, pet.OwnerID, pet.Name, pet.Species, pet.Breed, pet.Sex,
		pet.BirthDate, pet.WeightKg, pet.Notes, pet.CreatedAt, pet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create pet: %w", err)
	}
	return nil
}

func (r *petRepository) Get(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	query := `
		SELECT p.*, u.first_name || ' ' || u.last_name AS owner_name
		FROM pets p
		JOIN users u ON u.id = p.owner_id
		WHERE p.id = $1`

	var pet model.Pet
	if err := sqlx.GetContext(ctx, r.db, &pet, query, id); err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}
	return &pet, nil
}

func (r *petRepository) Update(ctx context.Context, pet *model.Pet) error {
	query := `
		UPDATE pets SET name = $1, breed = $2, weight_kg = $3, notes = $4, updated_at = $5
		WHERE id = $6`

	pet.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		pet.Name, pet.Breed, pet.WeightKg, pet.Notes, pet.UpdatedAt, pet.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pet: %w", err)
	}
	return nil
}

func (r *petRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Pet, error) {
	var pets []*model.Pet
	err := sqlx.SelectContext(ctx, r.db, &pets,
		`SELECT * FROM pets WHERE owner_id = $1 ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	return pets, nil
}

func (r *petRepository) List(ctx context.Context, p model.Pagination) ([]*model.Pet, error) {
	limit := p.PageSize
	if limit <= 0 {
		limit = 50
	}
	offset := 0
	if p.Page > 1 {
		offset = (p.Page - 1) * limit
	}

	query := `
		SELECT p.*, u.first_name || ' ' || u.last_name AS owner_name
		FROM pets p
		JOIN users u ON u.id = p.owner_id
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2`

	var pets []*model.Pet
	if err := sqlx.SelectContext(ctx, r.db, &pets, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	return pets, nil
}

package model

import "github.com/google/uuid"

type Pet struct {
	Base
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	Species   string    `json:"species" db:"species"`
	Breed     *string   `json:"breed" db:"breed"`
	Sex       *string   `json:"sex" db:"sex"`
	BirthDate *string   `json:"birth_date" db:"birth_date"`
	WeightKg  *float64  `json:"weight_kg" db:"weight_kg"`
	Notes     *string   `json:"notes" db:"notes"`

	OwnerName string `json:"owner_name,omitempty" db:"owner_name"`
}

type CreatePetRequest struct {
	OwnerID   *uuid.UUID `json:"owner_id"`
	Name      string     `json:"name" binding:"required"`
	Species   string     `json:"species" binding:"required"`
	Breed     *string    `json:"breed"`
	Sex       *string    `json:"sex"`
	BirthDate *string    `json:"birth_date"`
	WeightKg  *float64   `json:"weight_kg"`
	Notes     *string    `json:"notes"`
}

type UpdatePetRequest struct {
	Name     *string  `json:"name"`
	Breed    *string  `json:"breed"`
	WeightKg *float64 `json:"weight_kg"`
	Notes    *string  `json:"notes"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// ClinicalRecord is one entry in a pet's medical history. NextDoseAt marks
// when a follow-up dose (vaccine, antiparasitic) is due; the reminder worker
// sweeps on it.
type ClinicalRecord struct {
	Base
	PetID         uuid.UUID  `json:"pet_id" db:"pet_id"`
	MedicID       uuid.UUID  `json:"medic_id" db:"medic_id"`
	AppointmentID *uuid.UUID `json:"appointment_id" db:"appointment_id"`
	Diagnosis     string     `json:"diagnosis" db:"diagnosis"`
	Treatment     *string    `json:"treatment" db:"treatment"`
	Prescription  *string    `json:"prescription" db:"prescription"`
	WeightKg      *float64   `json:"weight_kg" db:"weight_kg"`
	NextDoseAt    *time.Time `json:"next_dose_at" db:"next_dose_at"`
	DoseNote      *string    `json:"dose_note" db:"dose_note"`

	PetName   string    `json:"pet_name,omitempty" db:"pet_name"`
	OwnerID   uuid.UUID `json:"owner_id,omitempty" db:"owner_id"`
	MedicName string    `json:"medic_name,omitempty" db:"medic_name"`
}

type CreateClinicalRecordRequest struct {
	PetID         uuid.UUID  `json:"pet_id" binding:"required"`
	AppointmentID *uuid.UUID `json:"appointment_id"`
	Diagnosis     string     `json:"diagnosis" binding:"required"`
	Treatment     *string    `json:"treatment"`
	Prescription  *string    `json:"prescription"`
	WeightKg      *float64   `json:"weight_kg"`
	NextDoseAt    *time.Time `json:"next_dose_at"`
	DoseNote      *string    `json:"dose_note"`
}

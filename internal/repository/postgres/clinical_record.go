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

type clinicalRecordRepository struct {
	db sqlx.ExtContext
}

func NewClinicalRecordRepository(db *sqlx.DB) repository.ClinicalRecordRepository {
	return &clinicalRecordRepository{db: db}
}

func (r *clinicalRecordRepository) Create(ctx context.Context, rec *model.ClinicalRecord) error {
	query := `
		INSERT INTO clinical_records (
			id, pet_id, medic_id, appointment_id, diagnosis, treatment,
			prescription, weight_kg, next_dose_at, dose_note, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	now := time.Now()
	rec.ID = uuid.New()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.PetID, rec.MedicID, rec.AppointmentID, rec.Diagnosis,
		rec.Treatment, rec.Prescription, rec.WeightKg, rec.NextDoseAt,
		rec.DoseNote, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create clinical record: %w", err)
	}
	return nil
}

func (r *clinicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.ClinicalRecord, error) {
	query := `
		SELECT cr.*, p.name AS pet_name, p.owner_id,
			m.first_name || ' ' || m.last_name AS medic_name
		FROM clinical_records cr
		JOIN pets p ON p.id = cr.pet_id
		JOIN users m ON m.id = cr.medic_id
		WHERE cr.id = $1`

	var rec model.ClinicalRecord
	if err := sqlx.GetContext(ctx, r.db, &rec, query, id); err != nil {
		return nil, fmt.Errorf("failed to get clinical record: %w", err)
	}
	return &rec, nil
}

func (r *clinicalRecordRepository) ListByPet(ctx context.Context, petID uuid.UUID) ([]*model.ClinicalRecord, error) {
	query := `
		SELECT cr.*, m.first_name || ' ' || m.last_name AS medic_name
		FROM clinical_records cr
		JOIN users m ON m.id = cr.medic_id
		WHERE cr.pet_id = $1
		ORDER BY cr.created_at DESC`

	var records []*model.ClinicalRecord
	if err := sqlx.SelectContext(ctx, r.db, &records, query, petID); err != nil {
		return nil, fmt.Errorf("failed to list clinical records: %w", err)
	}
	return records, nil
}

func (r *clinicalRecordRepository) ListDueDoses(ctx context.Context, from, to time.Time) ([]*model.ClinicalRecord, error) {
	query := `
		SELECT cr.*, p.name AS pet_name, p.owner_id
		FROM clinical_records cr
		JOIN pets p ON p.id = cr.pet_id
		WHERE cr.next_dose_at >= $1 AND cr.next_dose_at < $2
		ORDER BY cr.next_dose_at`

	var records []*model.ClinicalRecord
	if err := sqlx.SelectContext(ctx, r.db, &records, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to list due doses: %w", err)
	}
	return records, nil
}

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

type appointmentRepository struct {
	db sqlx.ExtContext
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, client_id, pet_id, medic_id, service, date, start_time,
			duration_minutes, attention_type, address, reason, status,
			postponements, rescheduled_by_client, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	now := time.Now()
	appt.ID = uuid.New()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		appt.ID, appt.ClientID, appt.PetID, appt.MedicID, appt.Service,
		appt.Date, appt.StartTime, appt.DurationMinutes, appt.AttentionType,
		appt.Address, appt.Reason, appt.Status, appt.Postponements,
		appt.RescheduledByClient, appt.CreatedAt, appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT a.*,
			u.first_name || ' ' || u.last_name AS client_name,
			p.name AS pet_name
		FROM appointments a
		JOIN users u ON u.id = a.client_id
		JOIN pets p ON p.id = a.pet_id
		WHERE a.id = $1`

	var appt model.Appointment
	if err := sqlx.GetContext(ctx, r.db, &appt, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appt *model.Appointment) error {
	query := `
		UPDATE appointments SET
			medic_id = $1, date = $2, start_time = $3, duration_minutes = $4,
			status = $5, postponements = $6, rescheduled_by_client = $7,
			address = $8, reason = $9, updated_at = $10
		WHERE id = $11`

	appt.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		appt.MedicID, appt.Date, appt.StartTime, appt.DurationMinutes,
		appt.Status, appt.Postponements, appt.RescheduledByClient,
		appt.Address, appt.Reason, appt.UpdatedAt, appt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) ExistsAt(ctx context.Context, date, startTime string, exclude *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE date = $1 AND start_time = $2
			  AND status NOT IN ('cancelled')
			  AND ($3::uuid IS NULL OR id <> $3)
		)`

	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, date, startTime, exclude); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return exists, nil
}

func (r *appointmentRepository) ListActiveByDate(ctx context.Context, date string) ([]*model.Appointment, error) {
	query := `
		SELECT * FROM appointments
		WHERE date = $1 AND status NOT IN ('cancelled')
		ORDER BY start_time`

	var appts []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.db, &appts, query, date); err != nil {
		return nil, fmt.Errorf("failed to list appointments by date: %w", err)
	}
	return appts, nil
}

func (r *appointmentRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT a.*, p.name AS pet_name
		FROM appointments a
		JOIN pets p ON p.id = a.pet_id
		WHERE a.client_id = $1
		ORDER BY a.date DESC, a.start_time DESC`

	var appts []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.db, &appts, query, clientID); err != nil {
		return nil, fmt.Errorf("failed to list client appointments: %w", err)
	}
	return appts, nil
}

func (r *appointmentRepository) ListByDateRange(ctx context.Context, from, to string, status *model.AppointmentStatus) ([]*model.Appointment, error) {
	query := `
		SELECT a.*,
			u.first_name || ' ' || u.last_name AS client_name,
			p.name AS pet_name
		FROM appointments a
		JOIN users u ON u.id = a.client_id
		JOIN pets p ON p.id = a.pet_id
		WHERE a.date >= $1 AND a.date <= $2
		  AND ($3::text IS NULL OR a.status = $3)
		ORDER BY a.date, a.start_time`

	var appts []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.db, &appts, query, from, to, status); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

func (r *appointmentRepository) ListForReminder(ctx context.Context, date string) ([]*model.Appointment, error) {
	query := `
		SELECT a.*,
			u.first_name || ' ' || u.last_name AS client_name,
			p.name AS pet_name
		FROM appointments a
		JOIN users u ON u.id = a.client_id
		JOIN pets p ON p.id = a.pet_id
		WHERE a.date = $1
		  AND a.status IN ('pending', 'confirmed', 'postponed', 'rescheduled_by_client')
		  AND a.reminder_sent_at IS NULL
		ORDER BY a.start_time`

	var appts []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.db, &appts, query, date); err != nil {
		return nil, fmt.Errorf("failed to list reminder appointments: %w", err)
	}
	return appts, nil
}

func (r *appointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET reminder_sent_at = $1, reminders = reminders + 1 WHERE id = $2`, at, id); err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

func (r *appointmentRepository) CountByStatus(ctx context.Context, from, to string) (map[model.AppointmentStatus]int, error) {
	query := `
		SELECT status, COUNT(*) AS n
		FROM appointments
		WHERE date >= $1 AND date <= $2
		GROUP BY status`

	rows := []struct {
		Status model.AppointmentStatus `db:"status"`
		N      int                     `db:"n"`
	}{}
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}

	counts := make(map[model.AppointmentStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}

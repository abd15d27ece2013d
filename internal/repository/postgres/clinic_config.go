package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
)

type clinicConfigRepository struct {
	db sqlx.ExtContext
}

func NewClinicConfigRepository(db *sqlx.DB) repository.ClinicConfigRepository {
	return &clinicConfigRepository{db: db}
}

// Get returns the single clinic profile row.
func (r *clinicConfigRepository) Get(ctx context.Context) (*model.ClinicConfig, error) {
	var cfg model.ClinicConfig
	if err := sqlx.GetContext(ctx, r.db, &cfg, `SELECT * FROM clinic_config LIMIT 1`); err != nil {
		return nil, fmt.Errorf("failed to get clinic config: %w", err)
	}
	return &cfg, nil
}

func (r *clinicConfigRepository) Update(ctx context.Context, cfg *model.ClinicConfig) error {
	query := `
		UPDATE clinic_config SET
			name = $1, ruc = $2, address = $3, phone = $4, email = $5,
			currency = $6, invoice_serie = $7, logo_url = $8, updated_at = $9
		WHERE id = $10`

	cfg.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		cfg.Name, cfg.RUC, cfg.Address, cfg.Phone, cfg.Email, cfg.Currency,
		cfg.InvoiceSerie, cfg.LogoURL, cfg.UpdatedAt, cfg.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update clinic config: %w", err)
	}
	return nil
}

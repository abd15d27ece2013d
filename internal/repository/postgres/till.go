package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
)

type tillRepository struct {
	db sqlx.ExtContext
}

func NewTillRepository(db *sqlx.DB) repository.TillRepository {
	return &tillRepository{db: db}
}

func (r *tillRepository) CreateSession(ctx context.Context, s *model.TillSession) error {
	query := `
		INSERT INTO till_sessions (
			id, date, opened_by, status, opening_amount, services_total,
			products_total, extra_income, expenses, final_amount, opened_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	now := time.Now()
	s.ID = uuid.New()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Date, s.OpenedBy, s.Status, s.OpeningAmount, s.ServicesTotal,
		s.ProductsTotal, s.ExtraIncome, s.Expenses, s.FinalAmount, s.OpenedAt,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create till session: %w", err)
	}
	return nil
}

func (r *tillRepository) GetSession(ctx context.Context, id uuid.UUID) (*model.TillSession, error) {
	var s model.TillSession
	if err := sqlx.GetContext(ctx, r.db, &s, `SELECT * FROM till_sessions WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get till session: %w", err)
	}
	return &s, nil
}

func (r *tillRepository) GetOpenSession(ctx context.Context, date string) (*model.TillSession, error) {
	var s model.TillSession
	err := sqlx.GetContext(ctx, r.db, &s,
		`SELECT * FROM till_sessions WHERE status = 'open' AND date = $1 ORDER BY opened_at DESC LIMIT 1`, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open till session: %w", err)
	}
	return &s, nil
}

func (r *tillRepository) GetSessionByDate(ctx context.Context, date string) (*model.TillSession, error) {
	var s model.TillSession
	err := sqlx.GetContext(ctx, r.db, &s,
		`SELECT * FROM till_sessions WHERE date = $1 ORDER BY opened_at DESC LIMIT 1`, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get till session by date: %w", err)
	}
	return &s, nil
}

func (r *tillRepository) UpdateSession(ctx context.Context, s *model.TillSession) error {
	query := `
		UPDATE till_sessions SET
			status = $1, services_total = $2, products_total = $3,
			extra_income = $4, expenses = $5, final_amount = $6,
			counted_amount = $7, difference = $8, closing_note = $9,
			closed_by = $10, closed_at = $11, updated_at = $12
		WHERE id = $13`

	s.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		s.Status, s.ServicesTotal, s.ProductsTotal, s.ExtraIncome,
		s.Expenses, s.FinalAmount, s.CountedAmount, s.Difference,
		s.ClosingNote, s.ClosedBy, s.ClosedAt, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update till session: %w", err)
	}
	return nil
}

func (r *tillRepository) ListSessions(ctx context.Context, from, to string) ([]*model.TillSession, error) {
	var sessions []*model.TillSession
	err := sqlx.SelectContext(ctx, r.db, &sessions,
		`SELECT * FROM till_sessions WHERE date >= $1 AND date <= $2 ORDER BY date DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list till sessions: %w", err)
	}
	return sessions, nil
}

func (r *tillRepository) CreateMovement(ctx context.Context, m *model.TillMovement) error {
	query := `
		INSERT INTO till_movements (
			id, session_id, kind, category, method, concept, amount,
			recorded_by, invoice_id, product_id, quantity, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	now := time.Now()
	m.ID = uuid.New()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.SessionID, m.Kind, m.Category, m.Method, m.Concept,
		m.Amount, m.RecordedBy, m.InvoiceID, m.ProductID, m.Quantity,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create till movement: %w", err)
	}
	return nil
}

func (r *tillRepository) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]*model.TillMovement, error) {
	var movements []*model.TillMovement
	err := sqlx.SelectContext(ctx, r.db, &movements,
		`SELECT * FROM till_movements WHERE session_id = $1 ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list till movements: %w", err)
	}
	return movements, nil
}

func (r *tillRepository) SumByMethod(ctx context.Context, sessionID uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error) {
	query := `
		SELECT method, COALESCE(SUM(amount), 0) AS total
		FROM till_movements
		WHERE session_id = $1 AND kind = 'income'
		GROUP BY method`

	rows := []struct {
		Method model.PaymentMethod `db:"method"`
		Total  decimal.Decimal     `db:"total"`
	}{}
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to sum movements by method: %w", err)
	}

	sums := make(map[model.PaymentMethod]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.Method] = row.Total
	}
	return sums, nil
}

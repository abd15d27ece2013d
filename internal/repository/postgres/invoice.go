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

type invoiceRepository struct {
	db sqlx.ExtContext
}

func NewInvoiceRepository(db *sqlx.DB) repository.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *model.Invoice) error {
	query := `
		INSERT INTO invoices (
			id, number, client_id, client_name, client_dni, kind, status,
			method, total, services_part, products_part, issued_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	now := time.Now()
	inv.ID = uuid.New()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.Number, inv.ClientID, inv.ClientName, inv.ClientDNI,
		inv.Kind, inv.Status, inv.Method, inv.Total, inv.ServicesPart,
		inv.ProductsPart, inv.IssuedBy, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	if err := sqlx.GetContext(ctx, r.db, &inv, `SELECT * FROM invoices WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	lines, err := r.ListLines(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Lines = make([]model.InvoiceLine, len(lines))
	for i, line := range lines {
		inv.Lines[i] = *line
	}
	return &inv, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *model.Invoice) error {
	query := `
		UPDATE invoices SET
			client_name = $1, client_dni = $2, kind = $3, status = $4,
			method = $5, total = $6, services_part = $7, products_part = $8,
			updated_at = $9
		WHERE id = $10`

	inv.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		inv.ClientName, inv.ClientDNI, inv.Kind, inv.Status, inv.Method,
		inv.Total, inv.ServicesPart, inv.ProductsPart, inv.UpdatedAt, inv.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, from, to string, status *model.InvoiceStatus) ([]*model.Invoice, error) {
	query := `
		SELECT * FROM invoices
		WHERE created_at::date >= $1 AND created_at::date <= $2
		  AND ($3::text IS NULL OR status = $3)
		ORDER BY created_at DESC`

	var invoices []*model.Invoice
	if err := sqlx.SelectContext(ctx, r.db, &invoices, query, from, to, status); err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// NextNumber allocates the next sequential receipt number for a serie,
// formatted as "SERIE-000001". Callers run it inside a transaction.
func (r *invoiceRepository) NextNumber(ctx context.Context, serie string) (string, error) {
	query := `
		SELECT COALESCE(MAX(CAST(SPLIT_PART(number, '-', 2) AS INTEGER)), 0) + 1
		FROM invoices
		WHERE number LIKE $1 || '-%'`

	var next int
	if err := sqlx.GetContext(ctx, r.db, &next, query, serie); err != nil {
		return "", fmt.Errorf("failed to allocate invoice number: %w", err)
	}
	return fmt.Sprintf("%s-%06d", serie, next), nil
}

func (r *invoiceRepository) CreateLine(ctx context.Context, line *model.InvoiceLine) error {
	query := `
		INSERT INTO invoice_lines (
			id, invoice_id, kind, product_id, concept, quantity, unit_price,
			subtotal, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now()
	line.ID = uuid.New()
	line.CreatedAt = now
	line.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		line.ID, line.InvoiceID, line.Kind, line.ProductID, line.Concept,
		line.Quantity, line.UnitPrice, line.Subtotal, line.CreatedAt, line.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice line: %w", err)
	}
	return nil
}

func (r *invoiceRepository) GetLine(ctx context.Context, id uuid.UUID) (*model.InvoiceLine, error) {
	var line model.InvoiceLine
	if err := sqlx.GetContext(ctx, r.db, &line, `SELECT * FROM invoice_lines WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get invoice line: %w", err)
	}
	return &line, nil
}

func (r *invoiceRepository) UpdateLine(ctx context.Context, line *model.InvoiceLine) error {
	query := `
		UPDATE invoice_lines SET
			concept = $1, quantity = $2, unit_price = $3, subtotal = $4, updated_at = $5
		WHERE id = $6`

	line.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		line.Concept, line.Quantity, line.UnitPrice, line.Subtotal,
		line.UpdatedAt, line.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice line: %w", err)
	}
	return nil
}

func (r *invoiceRepository) DeleteLine(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM invoice_lines WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete invoice line: %w", err)
	}
	return nil
}

func (r *invoiceRepository) ListLines(ctx context.Context, invoiceID uuid.UUID) ([]*model.InvoiceLine, error) {
	var lines []*model.InvoiceLine
	err := sqlx.SelectContext(ctx, r.db, &lines,
		`SELECT * FROM invoice_lines WHERE invoice_id = $1 ORDER BY created_at`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoice lines: %w", err)
	}
	return lines, nil
}

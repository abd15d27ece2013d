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

type productRepository struct {
	db sqlx.ExtContext
}

func NewProductRepository(db *sqlx.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (
			id, name, sku, category, description, price, stock, min_stock,
			active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	now := time.Now()
	p.ID = uuid.New()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.SKU, p.Category, p.Description, p.Price, p.Stock,
		p.MinStock, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *productRepository) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if err := sqlx.GetContext(ctx, r.db, &p, `SELECT * FROM products WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (r *productRepository) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var p model.Product
	if err := sqlx.GetContext(ctx, r.db, &p, `SELECT * FROM products WHERE sku = $1`, sku); err != nil {
		return nil, fmt.Errorf("failed to get product by sku: %w", err)
	}
	return &p, nil
}

func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products SET
			name = $1, category = $2, description = $3, price = $4,
			min_stock = $5, active = $6, updated_at = $7
		WHERE id = $8`

	p.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		p.Name, p.Category, p.Description, p.Price, p.MinStock, p.Active,
		p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (r *productRepository) List(ctx context.Context, activeOnly bool, pg model.Pagination) ([]*model.Product, error) {
	limit := pg.PageSize
	if limit <= 0 {
		limit = 50
	}
	offset := 0
	if pg.Page > 1 {
		offset = (pg.Page - 1) * limit
	}

	query := `
		SELECT * FROM products
		WHERE ($1 = false OR active = true)
		ORDER BY name
		LIMIT $2 OFFSET $3`

	var products []*model.Product
	if err := sqlx.SelectContext(ctx, r.db, &products, query, activeOnly, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *productRepository) ListLowStock(ctx context.Context) ([]*model.Product, error) {
	var products []*model.Product
	err := sqlx.SelectContext(ctx, r.db, &products,
		`SELECT * FROM products WHERE active = true AND stock <= min_stock ORDER BY stock`)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	return products, nil
}

// AdjustStock applies delta atomically; the CHECK on stock keeps it from
// going negative, surfacing as a constraint error.
func (r *productRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock = stock + $1, updated_at = $2 WHERE id = $3 AND stock + $1 >= 0`,
		delta, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("stock adjustment of %d rejected for product %s", delta, id)
	}
	return nil
}

func (r *productRepository) CreateInventoryMovement(ctx context.Context, m *model.InventoryMovement) error {
	query := `
		INSERT INTO inventory_movements (
			id, product_id, direction, quantity, reason, invoice_id,
			recorded_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now()
	m.ID = uuid.New()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.ProductID, m.Direction, m.Quantity, m.Reason, m.InvoiceID,
		m.RecordedBy, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create inventory movement: %w", err)
	}
	return nil
}

func (r *productRepository) ListInventoryMovements(ctx context.Context, productID uuid.UUID) ([]*model.InventoryMovement, error) {
	var movements []*model.InventoryMovement
	err := sqlx.SelectContext(ctx, r.db, &movements,
		`SELECT * FROM inventory_movements WHERE product_id = $1 ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory movements: %w", err)
	}
	return movements, nil
}

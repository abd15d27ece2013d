package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	Base
	Name        string          `json:"name" db:"name"`
	SKU         string          `json:"sku" db:"sku"`
	Category    string          `json:"category" db:"category"`
	Description *string         `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	MinStock    int             `json:"min_stock" db:"min_stock"`
	Active      bool            `json:"active" db:"active"`
}

// LowStock reports whether the product is at or below its reorder threshold.
func (p *Product) LowStock() bool {
	return p.Stock <= p.MinStock
}

type StockDirection string

const (
	StockInbound  StockDirection = "inbound"
	StockOutbound StockDirection = "outbound"
)

// InventoryMovement is the audit trail of every stock change.
type InventoryMovement struct {
	Base
	ProductID  uuid.UUID      `json:"product_id" db:"product_id"`
	Direction  StockDirection `json:"direction" db:"direction"`
	Quantity   int            `json:"quantity" db:"quantity"`
	Reason     string         `json:"reason" db:"reason"`
	InvoiceID  *uuid.UUID     `json:"invoice_id" db:"invoice_id"`
	RecordedBy uuid.UUID      `json:"recorded_by" db:"recorded_by"`
}

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	SKU         string          `json:"sku" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock" binding:"gte=0"`
	MinStock    int             `json:"min_stock" binding:"gte=0"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	MinStock    *int             `json:"min_stock"`
	Active      *bool            `json:"active"`
}

type AdjustStockRequest struct {
	Direction StockDirection `json:"direction" binding:"required,oneof=inbound outbound"`
	Quantity  int            `json:"quantity" binding:"required,gt=0"`
	Reason    string         `json:"reason" binding:"required"`
}

package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusVoid    InvoiceStatus = "void"
)

type InvoiceKind string

const (
	InvoiceKindService InvoiceKind = "service"
	InvoiceKindProduct InvoiceKind = "product"
	InvoiceKindMixed   InvoiceKind = "mixed"
)

type LineKind string

const (
	LineKindService LineKind = "service"
	LineKindProduct LineKind = "product"
)

// Invoice is a simple sale receipt (boleta). Its kind is derived from the
// kinds of its lines and its total is the sum of line subtotals.
type Invoice struct {
	Base
	Number       string          `json:"number" db:"number"`
	ClientID     *uuid.UUID      `json:"client_id" db:"client_id"`
	ClientName   string          `json:"client_name" db:"client_name"`
	ClientDNI    *string         `json:"client_dni" db:"client_dni"`
	Kind         InvoiceKind     `json:"kind" db:"kind"`
	Status       InvoiceStatus   `json:"status" db:"status"`
	Method       *PaymentMethod  `json:"method" db:"method"`
	Total        decimal.Decimal `json:"total" db:"total"`
	ServicesPart decimal.Decimal `json:"services_part" db:"services_part"`
	ProductsPart decimal.Decimal `json:"products_part" db:"products_part"`
	IssuedBy     uuid.UUID       `json:"issued_by" db:"issued_by"`

	Lines []InvoiceLine `json:"lines,omitempty" db:"-"`
}

type InvoiceLine struct {
	Base
	InvoiceID uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	Kind      LineKind        `json:"kind" db:"kind"`
	ProductID *uuid.UUID      `json:"product_id" db:"product_id"`
	Concept   string          `json:"concept" db:"concept"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal" db:"subtotal"`
}

type CreateInvoiceRequest struct {
	ClientID   *uuid.UUID `json:"client_id"`
	ClientName string     `json:"client_name" binding:"required"`
	ClientDNI  *string    `json:"client_dni"`
}

type InvoiceLineRequest struct {
	Kind      LineKind        `json:"kind" binding:"required,oneof=service product"`
	ProductID *uuid.UUID      `json:"product_id"`
	Concept   string          `json:"concept"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type PayInvoiceRequest struct {
	Method PaymentMethod `json:"method" binding:"required,oneof=cash card yape plin"`
}

type QuickSaleRequest struct {
	ProductID  uuid.UUID     `json:"product_id" binding:"required"`
	Quantity   int           `json:"quantity" binding:"required,gt=0"`
	Method     PaymentMethod `json:"method" binding:"required,oneof=cash card yape plin"`
	ClientName string        `json:"client_name"`
}

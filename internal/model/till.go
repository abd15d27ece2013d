package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TillStatus string

const (
	TillStatusOpen   TillStatus = "open"
	TillStatusClosed TillStatus = "closed"
)

type MovementKind string

const (
	MovementKindIncome  MovementKind = "income"
	MovementKindExpense MovementKind = "expense"
)

type MovementCategory string

const (
	CategoryService        MovementCategory = "service"
	CategoryProduct        MovementCategory = "product"
	CategoryExtraIncome    MovementCategory = "extra_income"
	CategoryGeneralExpense MovementCategory = "general_expense"
	// CategoryMixed marks income that bundles services and products in a
	// single charge; report totals count it toward both streams.
	CategoryMixed MovementCategory = "mixed"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentYape PaymentMethod = "yape"
	PaymentPlin PaymentMethod = "plin"
)

// TillSession is one cash-register shift. All monetary totals are
// denormalized onto the row and recomputed after every movement write.
type TillSession struct {
	Base
	Date          string           `json:"date" db:"date"`
	OpenedBy      uuid.UUID        `json:"opened_by" db:"opened_by"`
	ClosedBy      *uuid.UUID       `json:"closed_by" db:"closed_by"`
	Status        TillStatus       `json:"status" db:"status"`
	OpeningAmount decimal.Decimal  `json:"opening_amount" db:"opening_amount"`
	ServicesTotal decimal.Decimal  `json:"services_total" db:"services_total"`
	ProductsTotal decimal.Decimal  `json:"products_total" db:"products_total"`
	ExtraIncome   decimal.Decimal  `json:"extra_income" db:"extra_income"`
	Expenses      decimal.Decimal  `json:"expenses" db:"expenses"`
	FinalAmount   decimal.Decimal  `json:"final_amount" db:"final_amount"`
	CountedAmount *decimal.Decimal `json:"counted_amount" db:"counted_amount"`
	Difference    *decimal.Decimal `json:"difference" db:"difference"`
	ClosingNote   *string          `json:"closing_note" db:"closing_note"`
	OpenedAt      time.Time        `json:"opened_at" db:"opened_at"`
	ClosedAt      *time.Time       `json:"closed_at" db:"closed_at"`
}

type TillMovement struct {
	Base
	SessionID  uuid.UUID        `json:"session_id" db:"session_id"`
	Kind       MovementKind     `json:"kind" db:"kind"`
	Category   MovementCategory `json:"category" db:"category"`
	Method     PaymentMethod    `json:"method" db:"method"`
	Concept    string           `json:"concept" db:"concept"`
	Amount     decimal.Decimal  `json:"amount" db:"amount"`
	RecordedBy uuid.UUID        `json:"recorded_by" db:"recorded_by"`
	InvoiceID  *uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	ProductID  *uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity   *int             `json:"quantity" db:"quantity"`
}

// SessionTotals is the recomputed aggregate view of a session's ledger.
type SessionTotals struct {
	ServicesTotal decimal.Decimal `json:"services_total"`
	ProductsTotal decimal.Decimal `json:"products_total"`
	ExtraIncome   decimal.Decimal `json:"extra_income"`
	Expenses      decimal.Decimal `json:"expenses"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
}

// MethodBreakdown sums session income per payment method.
type MethodBreakdown struct {
	Cash decimal.Decimal `json:"cash"`
	Card decimal.Decimal `json:"card"`
	Yape decimal.Decimal `json:"yape"`
	Plin decimal.Decimal `json:"plin"`
}

type OpenTillRequest struct {
	OpeningAmount decimal.Decimal `json:"opening_amount" binding:"required"`
}

type RecordMovementRequest struct {
	Kind     MovementKind     `json:"kind" binding:"required,oneof=income expense"`
	Category MovementCategory `json:"category" binding:"required,oneof=service product extra_income general_expense mixed"`
	Method   PaymentMethod    `json:"method" binding:"required,oneof=cash card yape plin"`
	Concept  string           `json:"concept" binding:"required"`
	Amount   decimal.Decimal  `json:"amount" binding:"required"`
}

type CloseTillRequest struct {
	CountedAmount decimal.Decimal `json:"counted_amount" binding:"required"`
	ClosingNote   *string         `json:"closing_note"`
}

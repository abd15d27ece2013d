package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/clinicconfig"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/till"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
)

// Service issues sale receipts. Every write that touches more than one
// table (invoice + stock + ledger) runs in a single serializable
// transaction through the tx runner.
type Service struct {
	invoices repository.InvoiceRepository
	tx       repository.BillingTxRunner
	clinic   *clinicconfig.Service
	logger   zerolog.Logger
	clock    func() time.Time
}

func NewService(invoices repository.InvoiceRepository, tx repository.BillingTxRunner, clinic *clinicconfig.Service, logger zerolog.Logger) *Service {
	return &Service{invoices: invoices, tx: tx, clinic: clinic, logger: logger, clock: time.Now}
}

func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// CreateInvoice opens an empty pending receipt and allocates its number.
func (s *Service) CreateInvoice(ctx context.Context, issuedBy uuid.UUID, req *model.CreateInvoiceRequest) (*model.Invoice, error) {
	serie := s.invoiceSerie(ctx)

	var inv *model.Invoice
	err := s.tx.InTx(ctx, func(repos repository.BillingRepos) error {
		number, err := repos.Invoices.NextNumber(ctx, serie)
		if err != nil {
			return errors.Internal(err)
		}
		inv = &model.Invoice{
			Number:     number,
			ClientID:   req.ClientID,
			ClientName: req.ClientName,
			ClientDNI:  req.ClientDNI,
			Kind:       model.InvoiceKindService,
			Status:     model.InvoiceStatusPending,
			IssuedBy:   issuedBy,
		}
		if err := repos.Invoices.Create(ctx, inv); err != nil {
			return errors.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// AddLine appends a line to a pending invoice. Product lines reserve stock
// immediately; the reservation is released if the line is removed or the
// invoice voided.
func (s *Service) AddLine(ctx context.Context, invoiceID uuid.UUID, userID uuid.UUID, req *model.InvoiceLineRequest) (*model.Invoice, error) {
	var inv *model.Invoice
	err := s.tx.InTx(ctx, func(repos repository.BillingRepos) error {
		var err error
		inv, err = repos.Invoices.Get(ctx, invoiceID)
		if err != nil {
			return errors.NotFound("invoice", err)
		}
		if inv.Status != model.InvoiceStatusPending {
			return errors.RuleViolation("only pending invoices can be edited")
		}

		line := &model.InvoiceLine{
			InvoiceID: invoiceID,
			Kind:      req.Kind,
			Quantity:  req.Quantity,
		}

		switch req.Kind {
		case model.LineKindProduct:
			if req.ProductID == nil {
				return errors.Validation("product lines require a product_id")
			}
			product, err := repos.Products.Get(ctx, *req.ProductID)
			if err != nil {
				return errors.NotFound("product", err)
			}
			if product.Stock < req.Quantity {
				return errors.InsufficientStock(fmt.Sprintf(
					"%s has %d units, requested %d", product.Name, product.Stock, req.Quantity))
			}
			if err := applyStock(ctx, repos.Products, product.ID, -req.Quantity, "invoice line", &invoiceID, userID); err != nil {
				return err
			}
			line.ProductID = req.ProductID
			line.Concept = product.Name
			line.UnitPrice = product.Price
		case model.LineKindService:
			if req.Concept == "" {
				return errors.Validation("service lines require a concept")
			}
			if !req.UnitPrice.IsPositive() {
				return errors.Validation("service lines require a positive unit price")
			}
			line.Concept = req.Concept
			line.UnitPrice = req.UnitPrice
		}

		line.Subtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		if err := repos.Invoices.CreateLine(ctx, line); err != nil {
			return errors.Internal(err)
		}
		return recomputeInvoice(ctx, repos.Invoices, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// UpdateLine changes a line's quantity, adjusting product stock by the
// delta.
func (s *Service) UpdateLine(ctx context.Context, invoiceID, lineID uuid.UUID, userID uuid.UUID, quantity int) (*model.Invoice, error) {
	if quantity <= 0 {
		return nil, errors.Validation("quantity must be positive")
	}

	var inv *model.Invoice
	err := s.tx.InTx(ctx, func(repos repository.BillingRepos) error {
		var err error
		inv, err = repos.Invoices.Get(ctx, invoiceID)
		if err != nil {
			return errors.NotFound("invoice", err)
		}
		if inv.Status != model.InvoiceStatusPending {
			return errors.RuleViolation("only pending invoices can be edited")
		}

		line, err := repos.Invoices.GetLine(ctx, lineID)
		if err != nil {
			return errors.NotFound("invoice line", err)
		}
		if line.InvoiceID != invoiceID {
			return errors.Validation("line does not belong to invoice")
		}

		if line.Kind == model.LineKindProduct && line.ProductID != nil {
			delta := quantity - line.Quantity
			if delta != 0 {
				product, err := repos.Products.Get(ctx, *line.ProductID)
				if err != nil {
					return errors.NotFound("product", err)
				}
				if delta > 0 && product.Stock < delta {
					return errors.InsufficientStock(fmt.Sprintf(
						"%s has %d units, requested %d more", product.Name, product.Stock, delta))
				}
				if err := applyStock(ctx, repos.Products, product.ID, -delta, "invoice line update", &invoiceID, userID); err != nil {
					return err
				}
			}
		}

		line.Quantity = quantity
		line.Subtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
		if err := repos.Invoices.UpdateLine(ctx, line); err != nil {
			return errors.Internal(err)
		}
		return recomputeInvoice(ctx, repos.Invoices, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// RemoveLine deletes a line and returns any reserved stock.
func (s *Service) RemoveLine(ctx context.Context, invoiceID, lineID uuid.UUID, userID uuid.UUID) (*model.Invoice, error) {
	var inv *model.Invoice
	err := s.tx.InTx(ctx, func(repos repository.BillingRepos) error {
		var err error
		inv, err = repos.Invoices.Get(ctx, invoiceID)
		if err != nil {
			return errors.NotFound("invoice", err)
		}
		if inv.Status != model.InvoiceStatusPending {
			return errors.RuleViolation("only pending invoices can be edited")
		}

		line, err := repos.Invoices.GetLine(ctx, lineID)
		if err != nil {
			return errors.NotFound("invoice line", err)
		}
		if line.InvoiceID != invoiceID {
			return errors.Validation("line does not belong to invoice")
		}

		if line.Kind == model.LineKindProduct && line.ProductID != nil {
			if err := applyStock(ctx, repos.Products, *line.ProductID, line.Quantity, "invoice line removed", &invoiceID, userID); err != nil {
				return err
			}
		}
		if err := repos.Invoices.DeleteLine(ctx, lineID); err != nil {
			return errors.Internal(err)
		}
		return recomputeInvoice(ctx, repos.Invoices, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// PayInvoice marks the invoice paid and writes its income into the open
// till session: one ledger movement per income stream, so a mixed receipt
// produces a service movement and a product movement.
func (s *Service) PayInvoice(ctx context.Context, invoiceID, userID uuid.UUID, req *model.PayInvoiceRequest) (*model.Invoice, error) {
	today := s.clock().Format(model.DateLayout)
	var inv *model.Invoice
	err := s.tx.InTx(ctx, func(repos repository.BillingRepos) error {
		var err error
		inv, err = repos.Invoices.Get(ctx, invoiceID)
		if err != nil {
			return errors.NotFound("invoice", err)
		}
		if inv.Status == model.InvoiceStatusPaid {
			return errors.RuleViolation("invoice is already paid")
		}
		if inv.Status == model.InvoiceStatusVoid {
			return errors.RuleViolation("invoice is void")
		}
		if len(inv.Lines) == 0 {
			return errors.RuleViolation("invoice has no lines")
		}

		inv.Status = model.InvoiceStatusPaid
		inv.Method = &req.Method
		if err := repos.Invoices.Update(ctx, inv); err != nil {
			return errors.Internal(err)
		}

		if inv.ServicesPart.IsPositive() {
			movement := &model.TillMovement{
				Kind:       model.MovementKindIncome,
				Category:   model.CategoryService,
				Method:     req.Method,
				Concept:    "Boleta " + inv.Number + " (servicios)",
				Amount:     inv.ServicesPart,
				RecordedBy: userID,
				InvoiceID:  &inv.ID,
			}
			if err := till.RecordLinkedMovement(ctx, repos.Till, today, movement); err != nil {
				return err
			}
		}
		if inv.ProductsPart.IsPositive() {
			movement := &model.TillMovement{
				Kind:       model.MovementKindIncome,
				Category:   model.CategoryProduct,
				Method:     req.Method,
				Concept:    "Boleta " + inv.Number + " (productos)",
				Amount:     inv.ProductsPart,
				RecordedBy: userID,
				InvoiceID:  &inv.ID,
			}
			if err := till.RecordLinkedMovement(ctx, repos.Till, today, movement); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// VoidInvoice cancels a pending invoice, restoring any reserved stock.
func (s *Service) VoidInvoice(ctx context.Context, invoiceID, userID uuid.UUID) (*model.Invoice, error) {
	var inv *model.Invoice
	err := s.tx.InTx(ctx, func(repos repository.BillingRepos) error {
		var err error
		inv, err = repos.Invoices.Get(ctx, invoiceID)
		if err != nil {
			return errors.NotFound("invoice", err)
		}
		if inv.Status != model.InvoiceStatusPending {
			return errors.RuleViolation("only pending invoices can be voided")
		}

		for i := range inv.Lines {
			line := &inv.Lines[i]
			if line.Kind == model.LineKindProduct && line.ProductID != nil {
				if err := applyStock(ctx, repos.Products, *line.ProductID, line.Quantity, "invoice voided", &invoiceID, userID); err != nil {
					return err
				}
			}
		}

		inv.Status = model.InvoiceStatusVoid
		return repos.Invoices.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// QuickSale sells a product over the counter in one step: invoice, line,
// payment, stock decrement and till movement, all or nothing.
func (s *Service) QuickSale(ctx context.Context, userID uuid.UUID, req *model.QuickSaleRequest) (*model.Invoice, error) {
	serie := s.invoiceSerie(ctx)
	today := s.clock().Format(model.DateLayout)
	clientName := req.ClientName
	if clientName == "" {
		clientName = "Cliente de mostrador"
	}

	var inv *model.Invoice
	err := s.tx.InTx(ctx, func(repos repository.BillingRepos) error {
		product, err := repos.Products.Get(ctx, req.ProductID)
		if err != nil {
			return errors.NotFound("product", err)
		}
		if product.Stock < req.Quantity {
			return errors.InsufficientStock(fmt.Sprintf(
				"%s has %d units, requested %d", product.Name, product.Stock, req.Quantity))
		}

		number, err := repos.Invoices.NextNumber(ctx, serie)
		if err != nil {
			return errors.Internal(err)
		}

		total := product.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))
		inv = &model.Invoice{
			Number:       number,
			ClientName:   clientName,
			Kind:         model.InvoiceKindProduct,
			Status:       model.InvoiceStatusPaid,
			Method:       &req.Method,
			Total:        total,
			ProductsPart: total,
			IssuedBy:     userID,
		}
		if err := repos.Invoices.Create(ctx, inv); err != nil {
			return errors.Internal(err)
		}

		line := &model.InvoiceLine{
			InvoiceID: inv.ID,
			Kind:      model.LineKindProduct,
			ProductID: &req.ProductID,
			Concept:   product.Name,
			Quantity:  req.Quantity,
			UnitPrice: product.Price,
			Subtotal:  total,
		}
		if err := repos.Invoices.CreateLine(ctx, line); err != nil {
			return errors.Internal(err)
		}

		if err := applyStock(ctx, repos.Products, product.ID, -req.Quantity, "quick sale", &inv.ID, userID); err != nil {
			return err
		}

		movement := &model.TillMovement{
			Kind:       model.MovementKindIncome,
			Category:   model.CategoryProduct,
			Method:     req.Method,
			Concept:    "Venta rápida " + product.Name,
			Amount:     total,
			RecordedBy: userID,
			InvoiceID:  &inv.ID,
			ProductID:  &req.ProductID,
			Quantity:   &req.Quantity,
		}
		return till.RecordLinkedMovement(ctx, repos.Till, today, movement)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("invoice", err)
	}
	return inv, nil
}

func (s *Service) ListInvoices(ctx context.Context, from, to string, status *model.InvoiceStatus) ([]*model.Invoice, error) {
	if from == "" {
		from = s.clock().Format(model.DateLayout)
	}
	if to == "" {
		to = from
	}
	return s.invoices.List(ctx, from, to, status)
}

// recomputeInvoice rebuilds totals, the service/product split and the
// derived kind from the invoice's lines.
func recomputeInvoice(ctx context.Context, repo repository.InvoiceRepository, inv *model.Invoice) error {
	lines, err := repo.ListLines(ctx, inv.ID)
	if err != nil {
		return errors.Internal(err)
	}

	services := decimal.Zero
	products := decimal.Zero
	for _, line := range lines {
		switch line.Kind {
		case model.LineKindService:
			services = services.Add(line.Subtotal)
		case model.LineKindProduct:
			products = products.Add(line.Subtotal)
		}
	}

	inv.ServicesPart = services
	inv.ProductsPart = products
	inv.Total = services.Add(products)
	switch {
	case services.IsPositive() && products.IsPositive():
		inv.Kind = model.InvoiceKindMixed
	case products.IsPositive():
		inv.Kind = model.InvoiceKindProduct
	default:
		inv.Kind = model.InvoiceKindService
	}

	inv.Lines = make([]model.InvoiceLine, len(lines))
	for i, line := range lines {
		inv.Lines[i] = *line
	}
	if err := repo.Update(ctx, inv); err != nil {
		return errors.Internal(err)
	}
	return nil
}

// applyStock adjusts product stock and records the inventory movement that
// explains the change.
func applyStock(ctx context.Context, repo repository.ProductRepository, productID uuid.UUID, delta int, reason string, invoiceID *uuid.UUID, userID uuid.UUID) error {
	if delta == 0 {
		return nil
	}
	if err := repo.AdjustStock(ctx, productID, delta); err != nil {
		return errors.Internal(err)
	}

	direction := model.StockInbound
	quantity := delta
	if delta < 0 {
		direction = model.StockOutbound
		quantity = -delta
	}
	movement := &model.InventoryMovement{
		ProductID:  productID,
		Direction:  direction,
		Quantity:   quantity,
		Reason:     reason,
		InvoiceID:  invoiceID,
		RecordedBy: userID,
	}
	if err := repo.CreateInventoryMovement(ctx, movement); err != nil {
		return errors.Internal(err)
	}
	return nil
}

func (s *Service) invoiceSerie(ctx context.Context) string {
	if s.clinic != nil {
		if cfg, err := s.clinic.Get(ctx); err == nil && cfg.InvoiceSerie != "" {
			return cfg.InvoiceSerie
		}
	}
	return "B001"
}

package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
)

// Dashboard aggregates the figures shown on the admin landing page.
type Dashboard struct {
	From             string                          `json:"from"`
	To               string                          `json:"to"`
	Appointments     map[model.AppointmentStatus]int `json:"appointments"`
	ServicesIncome   decimal.Decimal                 `json:"services_income"`
	ProductsIncome   decimal.Decimal                 `json:"products_income"`
	ExtraIncome      decimal.Decimal                 `json:"extra_income"`
	Expenses         decimal.Decimal                 `json:"expenses"`
	NetIncome        decimal.Decimal                 `json:"net_income"`
	LowStockProducts []*model.Product                `json:"low_stock_products"`
	SessionsClosed   int                             `json:"sessions_closed"`
	SessionsWithDiff int                             `json:"sessions_with_difference"`
}

type Service struct {
	appointments repository.AppointmentRepository
	till         repository.TillRepository
	products     repository.ProductRepository
	clock        func() time.Time
}

func NewService(appointments repository.AppointmentRepository, till repository.TillRepository, products repository.ProductRepository) *Service {
	return &Service{appointments: appointments, till: till, products: products, clock: time.Now}
}

func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// BuildDashboard summarizes appointments and till activity over a date
// range. Income figures come from the closed sessions' denormalized
// totals, so the mixed-category double count carries through here too.
func (s *Service) BuildDashboard(ctx context.Context, from, to string) (*Dashboard, error) {
	if to == "" {
		to = s.clock().Format(model.DateLayout)
	}
	if from == "" {
		from = s.clock().AddDate(0, 0, -30).Format(model.DateLayout)
	}

	counts, err := s.appointments.CountByStatus(ctx, from, to)
	if err != nil {
		return nil, errors.Internal(err)
	}

	sessions, err := s.till.ListSessions(ctx, from, to)
	if err != nil {
		return nil, errors.Internal(err)
	}

	d := &Dashboard{
		From:           from,
		To:             to,
		Appointments:   counts,
		ServicesIncome: decimal.Zero,
		ProductsIncome: decimal.Zero,
		ExtraIncome:    decimal.Zero,
		Expenses:       decimal.Zero,
	}
	for _, session := range sessions {
		d.ServicesIncome = d.ServicesIncome.Add(session.ServicesTotal)
		d.ProductsIncome = d.ProductsIncome.Add(session.ProductsTotal)
		d.ExtraIncome = d.ExtraIncome.Add(session.ExtraIncome)
		d.Expenses = d.Expenses.Add(session.Expenses)
		if session.Status == model.TillStatusClosed {
			d.SessionsClosed++
			if session.Difference != nil && !session.Difference.IsZero() {
				d.SessionsWithDiff++
			}
		}
	}
	d.NetIncome = d.ServicesIncome.
		Add(d.ProductsIncome).
		Add(d.ExtraIncome).
		Sub(d.Expenses)

	lowStock, err := s.products.ListLowStock(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	d.LowStockProducts = lowStock

	return d, nil
}

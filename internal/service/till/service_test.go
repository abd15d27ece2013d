package till

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
)

type fakeTillRepo struct {
	sessions  map[uuid.UUID]*model.TillSession
	movements map[uuid.UUID][]*model.TillMovement
}

func newFakeTillRepo() *fakeTillRepo {
	return &fakeTillRepo{
		sessions:  make(map[uuid.UUID]*model.TillSession),
		movements: make(map[uuid.UUID][]*model.TillMovement),
	}
}

func (r *fakeTillRepo) CreateSession(_ context.Context, s *model.TillSession) error {
	s.ID = uuid.New()
	clone := *s
	r.sessions[s.ID] = &clone
	return nil
}

func (r *fakeTillRepo) GetSession(_ context.Context, id uuid.UUID) (*model.TillSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (r *fakeTillRepo) GetOpenSession(_ context.Context, date string) (*model.TillSession, error) {
	for _, s := range r.sessions {
		if s.Status == model.TillStatusOpen && s.Date == date {
			clone := *s
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeTillRepo) GetSessionByDate(_ context.Context, date string) (*model.TillSession, error) {
	for _, s := range r.sessions {
		if s.Date == date {
			clone := *s
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeTillRepo) UpdateSession(_ context.Context, s *model.TillSession) error {
	clone := *s
	r.sessions[s.ID] = &clone
	return nil
}

func (r *fakeTillRepo) ListSessions(_ context.Context, from, to string) ([]*model.TillSession, error) {
	var out []*model.TillSession
	for _, s := range r.sessions {
		if s.Date >= from && s.Date <= to {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeTillRepo) CreateMovement(_ context.Context, m *model.TillMovement) error {
	m.ID = uuid.New()
	clone := *m
	r.movements[m.SessionID] = append(r.movements[m.SessionID], &clone)
	return nil
}

func (r *fakeTillRepo) ListMovements(_ context.Context, sessionID uuid.UUID) ([]*model.TillMovement, error) {
	return r.movements[sessionID], nil
}

func (r *fakeTillRepo) SumByMethod(_ context.Context, sessionID uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error) {
	sums := make(map[model.PaymentMethod]decimal.Decimal)
	for _, m := range r.movements[sessionID] {
		if m.Kind == model.MovementKindIncome {
			sums[m.Method] = sums[m.Method].Add(m.Amount)
		}
	}
	return sums, nil
}

// passthroughTx runs fn directly against the fake repository.
type passthroughTx struct {
	repo repository.TillRepository
}

func (tx passthroughTx) InTx(_ context.Context, fn func(repo repository.TillRepository) error) error {
	return fn(tx.repo)
}

func newTillService() (*Service, *fakeTillRepo) {
	repo := newFakeTillRepo()
	svc := NewService(repo, passthroughTx{repo: repo}, zerolog.Nop())
	svc.WithClock(func() time.Time {
		return time.Date(2024, 6, 3, 8, 30, 0, 0, time.UTC)
	})
	return svc, repo
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openSession(t *testing.T, svc *Service) *model.TillSession {
	t.Helper()
	session, err := svc.OpenSession(context.Background(), uuid.New(), &model.OpenTillRequest{
		OpeningAmount: dec("100.00"),
	})
	require.NoError(t, err)
	return session
}

func record(t *testing.T, svc *Service, kind model.MovementKind, cat model.MovementCategory, amount string) {
	t.Helper()
	_, err := svc.RecordMovement(context.Background(), uuid.New(), &model.RecordMovementRequest{
		Kind:     kind,
		Category: cat,
		Method:   model.PaymentCash,
		Concept:  "test",
		Amount:   dec(amount),
	})
	require.NoError(t, err)
}

func TestOpenSessionRejectsSecondOpen(t *testing.T) {
	svc, _ := newTillService()

	first := openSession(t, svc)

	existing, err := svc.OpenSession(context.Background(), uuid.New(), &model.OpenTillRequest{
		OpeningAmount: dec("50.00"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindAlreadyOpen))
	require.NotNil(t, existing)
	assert.Equal(t, first.ID, existing.ID)
}

func TestOpenSessionRejectsNegativeAmount(t *testing.T) {
	svc, _ := newTillService()

	_, err := svc.OpenSession(context.Background(), uuid.New(), &model.OpenTillRequest{
		OpeningAmount: dec("-1.00"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestOpenSessionSeedsFinalAmount(t *testing.T) {
	svc, _ := newTillService()

	session := openSession(t, svc)
	assert.True(t, session.FinalAmount.Equal(dec("100.00")))
	assert.Equal(t, "2024-06-03", session.Date)
}

func TestRecordMovementRequiresOpenSession(t *testing.T) {
	svc, _ := newTillService()

	_, err := svc.RecordMovement(context.Background(), uuid.New(), &model.RecordMovementRequest{
		Kind:     model.MovementKindIncome,
		Category: model.CategoryService,
		Method:   model.PaymentCash,
		Concept:  "consulta",
		Amount:   dec("40.00"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRuleViolation))
}

func TestRecordMovementCategoryRules(t *testing.T) {
	svc, _ := newTillService()
	openSession(t, svc)

	_, err := svc.RecordMovement(context.Background(), uuid.New(), &model.RecordMovementRequest{
		Kind:     model.MovementKindExpense,
		Category: model.CategoryService,
		Method:   model.PaymentCash,
		Concept:  "compra",
		Amount:   dec("10.00"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))

	_, err = svc.RecordMovement(context.Background(), uuid.New(), &model.RecordMovementRequest{
		Kind:     model.MovementKindIncome,
		Category: model.CategoryGeneralExpense,
		Method:   model.PaymentCash,
		Concept:  "ingreso",
		Amount:   dec("10.00"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestRecomputeFinalAmount(t *testing.T) {
	svc, repo := newTillService()
	session := openSession(t, svc)

	record(t, svc, model.MovementKindIncome, model.CategoryService, "40.00")
	record(t, svc, model.MovementKindIncome, model.CategoryProduct, "25.50")
	record(t, svc, model.MovementKindIncome, model.CategoryExtraIncome, "10.00")
	record(t, svc, model.MovementKindExpense, model.CategoryGeneralExpense, "15.00")

	stored, err := repo.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, stored.ServicesTotal.Equal(dec("40.00")))
	assert.True(t, stored.ProductsTotal.Equal(dec("25.50")))
	assert.True(t, stored.ExtraIncome.Equal(dec("10.00")))
	assert.True(t, stored.Expenses.Equal(dec("15.00")))
	// 100 + 40 + 25.50 + 10 - 15
	assert.True(t, stored.FinalAmount.Equal(dec("160.50")))
}

// A mixed movement counts toward both income streams, so the services and
// products columns jointly exceed the cash it actually brought in.
func TestRecomputeMixedCountsTwice(t *testing.T) {
	svc, repo := newTillService()
	session := openSession(t, svc)

	record(t, svc, model.MovementKindIncome, model.CategoryMixed, "30.00")

	stored, err := repo.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, stored.ServicesTotal.Equal(dec("30.00")))
	assert.True(t, stored.ProductsTotal.Equal(dec("30.00")))
	// The final amount double-counts the mixed movement as well.
	assert.True(t, stored.FinalAmount.Equal(dec("160.00")))
}

func TestCloseSessionComputesDifference(t *testing.T) {
	svc, _ := newTillService()
	session := openSession(t, svc)

	record(t, svc, model.MovementKindIncome, model.CategoryService, "40.00")

	closed, err := svc.CloseSession(context.Background(), session.ID, uuid.New(), &model.CloseTillRequest{
		CountedAmount: dec("135.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, model.TillStatusClosed, closed.Status)
	require.NotNil(t, closed.Difference)
	// counted 135 against a running total of 140
	assert.True(t, closed.Difference.Equal(dec("-5.00")))
	// The counted value overwrites the running total.
	assert.True(t, closed.FinalAmount.Equal(dec("135.00")))
	require.NotNil(t, closed.ClosedAt)
}

// Closing an already closed session is allowed; the later count wins and the
// variance is taken against the previous counted value.
func TestCloseSessionAgainRecounts(t *testing.T) {
	svc, _ := newTillService()
	session := openSession(t, svc)

	_, err := svc.CloseSession(context.Background(), session.ID, uuid.New(), &model.CloseTillRequest{
		CountedAmount: dec("90.00"),
	})
	require.NoError(t, err)

	closed, err := svc.CloseSession(context.Background(), session.ID, uuid.New(), &model.CloseTillRequest{
		CountedAmount: dec("95.00"),
	})
	require.NoError(t, err)
	require.NotNil(t, closed.Difference)
	assert.True(t, closed.Difference.Equal(dec("5.00")))
	assert.True(t, closed.FinalAmount.Equal(dec("95.00")))
}

func TestSessionWithTotalsKeepsCountedAmountAfterClose(t *testing.T) {
	svc, _ := newTillService()
	session := openSession(t, svc)
	record(t, svc, model.MovementKindIncome, model.CategoryService, "40.00")

	_, err := svc.CloseSession(context.Background(), session.ID, uuid.New(), &model.CloseTillRequest{
		CountedAmount: dec("135.00"),
	})
	require.NoError(t, err)

	got, _, _, err := svc.SessionWithTotals(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, got.FinalAmount.Equal(dec("135.00")))
}

func TestSessionWithTotalsBreaksDownMethods(t *testing.T) {
	svc, _ := newTillService()
	session := openSession(t, svc)

	for _, m := range []struct {
		method model.PaymentMethod
		amount string
	}{
		{model.PaymentCash, "40.00"},
		{model.PaymentYape, "25.00"},
		{model.PaymentYape, "15.00"},
	} {
		_, err := svc.RecordMovement(context.Background(), uuid.New(), &model.RecordMovementRequest{
			Kind:     model.MovementKindIncome,
			Category: model.CategoryService,
			Method:   m.method,
			Concept:  "consulta",
			Amount:   dec(m.amount),
		})
		require.NoError(t, err)
	}

	_, movements, breakdown, err := svc.SessionWithTotals(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 3)
	assert.True(t, breakdown.Cash.Equal(dec("40.00")))
	assert.True(t, breakdown.Yape.Equal(dec("40.00")))
	assert.True(t, breakdown.Card.IsZero())
	assert.True(t, breakdown.Plin.IsZero())
}

func TestRecordLinkedMovementRequiresOpenSession(t *testing.T) {
	repo := newFakeTillRepo()

	err := RecordLinkedMovement(context.Background(), repo, "2024-06-03", &model.TillMovement{
		Kind:     model.MovementKindIncome,
		Category: model.CategoryService,
		Method:   model.PaymentCash,
		Concept:  "Boleta B001-000001 (servicios)",
		Amount:   dec("40.00"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRuleViolation))
}

func TestOpenSessionIgnoresStaleOpenSession(t *testing.T) {
	svc, repo := newTillService()

	// An open session left over from a previous day must not block today.
	require.NoError(t, repo.CreateSession(context.Background(), &model.TillSession{
		Date:          "2024-06-02",
		Status:        model.TillStatusOpen,
		OpeningAmount: dec("80.00"),
		FinalAmount:   dec("80.00"),
	}))

	session, err := svc.OpenSession(context.Background(), uuid.New(), &model.OpenTillRequest{
		OpeningAmount: dec("100.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-03", session.Date)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	svc, repo := newTillService()
	session := openSession(t, svc)

	record(t, svc, model.MovementKindIncome, model.CategoryService, "40.00")
	record(t, svc, model.MovementKindExpense, model.CategoryGeneralExpense, "15.00")

	first, err := repo.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	require.NoError(t, Recompute(context.Background(), repo, first))

	again, err := repo.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	require.NoError(t, Recompute(context.Background(), repo, again))

	assert.True(t, again.ServicesTotal.Equal(first.ServicesTotal))
	assert.True(t, again.Expenses.Equal(first.Expenses))
	assert.True(t, again.FinalAmount.Equal(first.FinalAmount))
	assert.True(t, again.FinalAmount.Equal(dec("125.00")))
}

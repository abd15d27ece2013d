package till

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
)

// Service manages cash-register sessions. Session totals are denormalized
// onto the row and recomputed from the movement ledger after every write.
type Service struct {
	repo   repository.TillRepository
	tx     repository.TillTxRunner
	logger zerolog.Logger
	clock  func() time.Time
}

func NewService(repo repository.TillRepository, tx repository.TillTxRunner, logger zerolog.Logger) *Service {
	return &Service{repo: repo, tx: tx, logger: logger, clock: time.Now}
}

func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// OpenSession starts today's shift. Only one session may be open at a
// time; a second open returns the existing session alongside the error so
// the caller can show it.
func (s *Service) OpenSession(ctx context.Context, userID uuid.UUID, req *model.OpenTillRequest) (*model.TillSession, error) {
	if req.OpeningAmount.IsNegative() {
		return nil, errors.Validation("opening amount cannot be negative")
	}

	now := s.clock()
	today := now.Format(model.DateLayout)
	if existing, err := s.repo.GetOpenSession(ctx, today); err == nil {
		return existing, errors.AlreadyOpen("a till session is already open")
	} else if !stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.Internal(err)
	}

	session := &model.TillSession{
		Date:          today,
		OpenedBy:      userID,
		Status:        model.TillStatusOpen,
		OpeningAmount: req.OpeningAmount,
		FinalAmount:   req.OpeningAmount,
		OpenedAt:      now,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, errors.Internal(err)
	}
	return session, nil
}

// RecordMovement appends a movement to the open session and recomputes the
// session totals inside one serializable transaction.
func (s *Service) RecordMovement(ctx context.Context, userID uuid.UUID, req *model.RecordMovementRequest) (*model.TillMovement, error) {
	if !req.Amount.IsPositive() {
		return nil, errors.Validation("amount must be positive")
	}
	if req.Kind == model.MovementKindExpense && req.Category != model.CategoryGeneralExpense {
		return nil, errors.Validation("expenses must use the general_expense category")
	}
	if req.Kind == model.MovementKindIncome && req.Category == model.CategoryGeneralExpense {
		return nil, errors.Validation("income cannot use the general_expense category")
	}

	var movement *model.TillMovement
	err := s.tx.InTx(ctx, func(repo repository.TillRepository) error {
		session, err := s.openSession(ctx, repo)
		if err != nil {
			return err
		}

		movement = &model.TillMovement{
			SessionID:  session.ID,
			Kind:       req.Kind,
			Category:   req.Category,
			Method:     req.Method,
			Concept:    req.Concept,
			Amount:     req.Amount,
			RecordedBy: userID,
		}
		if err := repo.CreateMovement(ctx, movement); err != nil {
			return errors.Internal(err)
		}
		return Recompute(ctx, repo, session)
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// RecordLinkedMovement appends a movement carrying invoice or product
// references to the given date's open session. The billing service calls
// it from inside its own transaction, so it takes the bound repository
// rather than opening one.
func RecordLinkedMovement(ctx context.Context, repo repository.TillRepository, date string, m *model.TillMovement) error {
	session, err := repo.GetOpenSession(ctx, date)
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.RuleViolation("no open till session")
	}
	if err != nil {
		return errors.Internal(err)
	}

	m.SessionID = session.ID
	if err := repo.CreateMovement(ctx, m); err != nil {
		return errors.Internal(err)
	}
	return Recompute(ctx, repo, session)
}

// Recompute rebuilds the session totals from its full movement ledger and
// persists them. The mixed category counts toward both the services and the
// products stream, so the two columns can sum past the actual cash.
func Recompute(ctx context.Context, repo repository.TillRepository, session *model.TillSession) error {
	movements, err := repo.ListMovements(ctx, session.ID)
	if err != nil {
		return errors.Internal(err)
	}

	services := decimal.Zero
	products := decimal.Zero
	extra := decimal.Zero
	expenses := decimal.Zero

	for _, m := range movements {
		if m.Kind == model.MovementKindExpense {
			expenses = expenses.Add(m.Amount)
			continue
		}
		switch m.Category {
		case model.CategoryService:
			services = services.Add(m.Amount)
		case model.CategoryProduct:
			products = products.Add(m.Amount)
		case model.CategoryExtraIncome:
			extra = extra.Add(m.Amount)
		case model.CategoryMixed:
			services = services.Add(m.Amount)
			products = products.Add(m.Amount)
		}
	}

	session.ServicesTotal = services
	session.ProductsTotal = products
	session.ExtraIncome = extra
	session.Expenses = expenses
	session.FinalAmount = session.OpeningAmount.
		Add(services).
		Add(products).
		Add(extra).
		Sub(expenses)

	if err := repo.UpdateSession(ctx, session); err != nil {
		return errors.Internal(err)
	}
	return nil
}

// CloseSession records the counted cash against the running total. The
// variance is computed against the cached final amount before it is
// overwritten with the counted value; a session can be closed more than
// once and the later close wins.
func (s *Service) CloseSession(ctx context.Context, sessionID, userID uuid.UUID, req *model.CloseTillRequest) (*model.TillSession, error) {
	var session *model.TillSession
	err := s.tx.InTx(ctx, func(repo repository.TillRepository) error {
		var err error
		session, err = repo.GetSession(ctx, sessionID)
		if err != nil {
			return errors.NotFound("till session", err)
		}

		difference := req.CountedAmount.Sub(session.FinalAmount)
		now := s.clock()

		session.Status = model.TillStatusClosed
		session.CountedAmount = &req.CountedAmount
		session.Difference = &difference
		session.FinalAmount = req.CountedAmount
		session.ClosingNote = req.ClosingNote
		session.ClosedBy = &userID
		session.ClosedAt = &now

		return repo.UpdateSession(ctx, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SessionWithTotals returns the session with its movements and the income
// split per payment method. Open sessions are recomputed from the ledger on
// read; closed ones keep their counted final amount.
func (s *Service) SessionWithTotals(ctx context.Context, sessionID uuid.UUID) (*model.TillSession, []*model.TillMovement, *model.MethodBreakdown, error) {
	var (
		session   *model.TillSession
		movements []*model.TillMovement
		sums      map[model.PaymentMethod]decimal.Decimal
	)
	err := s.tx.InTx(ctx, func(repo repository.TillRepository) error {
		var err error
		session, err = repo.GetSession(ctx, sessionID)
		if err != nil {
			return errors.NotFound("till session", err)
		}
		if session.Status == model.TillStatusOpen {
			if err := Recompute(ctx, repo, session); err != nil {
				return err
			}
		}
		movements, err = repo.ListMovements(ctx, sessionID)
		if err != nil {
			return errors.Internal(err)
		}
		sums, err = repo.SumByMethod(ctx, sessionID)
		if err != nil {
			return errors.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	breakdown := &model.MethodBreakdown{
		Cash: sums[model.PaymentCash],
		Card: sums[model.PaymentCard],
		Yape: sums[model.PaymentYape],
		Plin: sums[model.PaymentPlin],
	}
	return session, movements, breakdown, nil
}

// TodaySession returns the current date's session, open or closed.
func (s *Service) TodaySession(ctx context.Context) (*model.TillSession, error) {
	session, err := s.repo.GetSessionByDate(ctx, s.clock().Format(model.DateLayout))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("till session", err)
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	return session, nil
}

func (s *Service) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]*model.TillMovement, error) {
	return s.repo.ListMovements(ctx, sessionID)
}

func (s *Service) ListSessions(ctx context.Context, from, to string) ([]*model.TillSession, error) {
	return s.repo.ListSessions(ctx, from, to)
}

func (s *Service) openSession(ctx context.Context, repo repository.TillRepository) (*model.TillSession, error) {
	session, err := repo.GetOpenSession(ctx, s.clock().Format(model.DateLayout))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.RuleViolation("no open till session")
	}
	if err != nil {
		return nil, errors.Internal(err)
	}
	return session, nil
}

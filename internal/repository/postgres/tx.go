package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
)

// runSerializable executes fn inside a serializable transaction, rolling
// back on error or panic.
func runSerializable(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// AppointmentTxRunner binds a transactional appointment repository to each
// invocation, so the overlap scan and the booking insert commit atomically.
type AppointmentTxRunner struct {
	db *sqlx.DB
}

func NewAppointmentTxRunner(db *sqlx.DB) *AppointmentTxRunner {
	return &AppointmentTxRunner{db: db}
}

func (r *AppointmentTxRunner) InTx(ctx context.Context, fn func(repo repository.AppointmentRepository) error) error {
	return runSerializable(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&appointmentRepository{db: tx})
	})
}

// TillTxRunner binds a transactional till repository to each invocation.
type TillTxRunner struct {
	db *sqlx.DB
}

func NewTillTxRunner(db *sqlx.DB) *TillTxRunner {
	return &TillTxRunner{db: db}
}

func (r *TillTxRunner) InTx(ctx context.Context, fn func(repo repository.TillRepository) error) error {
	return runSerializable(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&tillRepository{db: tx})
	})
}

// BillingTxRunner binds invoice, product and till repositories to one
// serializable transaction so invoice, stock and ledger writes land
// atomically.
type BillingTxRunner struct {
	db *sqlx.DB
}

func NewBillingTxRunner(db *sqlx.DB) *BillingTxRunner {
	return &BillingTxRunner{db: db}
}

func (r *BillingTxRunner) InTx(ctx context.Context, fn func(repos repository.BillingRepos) error) error {
	return runSerializable(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(repository.BillingRepos{
			Invoices: &invoiceRepository{db: tx},
			Products: &productRepository{db: tx},
			Till:     &tillRepository{db: tx},
		})
	})
}

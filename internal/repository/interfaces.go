package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByDNI(ctx context.Context, dni string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdateLoginAttempts(ctx context.Context, id uuid.UUID, attempts int, lastAttempt time.Time) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, role *model.UserRole, p model.Pagination) ([]*model.User, error)
	ListByRole(ctx context.Context, role model.UserRole) ([]*model.User, error)
}

type PetRepository interface {
	Create(ctx context.Context, pet *model.Pet) error
	Get(ctx context.Context, id uuid.UUID) (*model.Pet, error)
	Update(ctx context.Context, pet *model.Pet) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Pet, error)
	List(ctx context.Context, p model.Pagination) ([]*model.Pet, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Update(ctx context.Context, appt *model.Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsAt probes for an active appointment at the exact (date, start)
	// slot, ignoring durations.
	ExistsAt(ctx context.Context, date, startTime string, exclude *uuid.UUID) (bool, error)
	// ListActiveByDate returns non-cancelled appointments for interval
	// overlap checks.
	ListActiveByDate(ctx context.Context, date string) ([]*model.Appointment, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*model.Appointment, error)
	ListByDateRange(ctx context.Context, from, to string, status *model.AppointmentStatus) ([]*model.Appointment, error)
	ListForReminder(ctx context.Context, date string) ([]*model.Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
	CountByStatus(ctx context.Context, from, to string) (map[model.AppointmentStatus]int, error)
}

// AppointmentTxRunner executes fn against a transactional appointment
// repository. The overlap scan and the insert of a booking must run inside
// it so concurrent requests cannot both claim the same slot.
type AppointmentTxRunner interface {
	InTx(ctx context.Context, fn func(repo AppointmentRepository) error) error
}

type TillRepository interface {
	CreateSession(ctx context.Context, s *model.TillSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*model.TillSession, error)
	// GetOpenSession returns the open session for the given date, if any.
	GetOpenSession(ctx context.Context, date string) (*model.TillSession, error)
	GetSessionByDate(ctx context.Context, date string) (*model.TillSession, error)
	UpdateSession(ctx context.Context, s *model.TillSession) error
	ListSessions(ctx context.Context, from, to string) ([]*model.TillSession, error)

	CreateMovement(ctx context.Context, m *model.TillMovement) error
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]*model.TillMovement, error)
	SumByMethod(ctx context.Context, sessionID uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error)
}

// TillTxRunner executes fn against a transactional till repository. Writes
// that recompute session totals must run inside it.
type TillTxRunner interface {
	InTx(ctx context.Context, fn func(repo TillRepository) error) error
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *model.Invoice) error
	Get(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	Update(ctx context.Context, inv *model.Invoice) error
	List(ctx context.Context, from, to string, status *model.InvoiceStatus) ([]*model.Invoice, error)
	NextNumber(ctx context.Context, serie string) (string, error)

	CreateLine(ctx context.Context, line *model.InvoiceLine) error
	GetLine(ctx context.Context, id uuid.UUID) (*model.InvoiceLine, error)
	UpdateLine(ctx context.Context, line *model.InvoiceLine) error
	DeleteLine(ctx context.Context, id uuid.UUID) error
	ListLines(ctx context.Context, invoiceID uuid.UUID) ([]*model.InvoiceLine, error)
}

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetBySKU(ctx context.Context, sku string) (*model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	List(ctx context.Context, activeOnly bool, p model.Pagination) ([]*model.Product, error)
	ListLowStock(ctx context.Context) ([]*model.Product, error)
	// AdjustStock applies a signed delta and fails on negative result.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error

	CreateInventoryMovement(ctx context.Context, m *model.InventoryMovement) error
	ListInventoryMovements(ctx context.Context, productID uuid.UUID) ([]*model.InventoryMovement, error)
}

// BillingRepos bundles the repositories a billing transaction touches.
type BillingRepos struct {
	Invoices InvoiceRepository
	Products ProductRepository
	Till     TillRepository
}

type BillingTxRunner interface {
	InTx(ctx context.Context, fn func(repos BillingRepos) error) error
}

type ClinicalRecordRepository interface {
	Create(ctx context.Context, rec *model.ClinicalRecord) error
	Get(ctx context.Context, id uuid.UUID) (*model.ClinicalRecord, error)
	ListByPet(ctx context.Context, petID uuid.UUID) ([]*model.ClinicalRecord, error)
	// ListDueDoses returns records whose next dose falls inside [from, to).
	ListDueDoses(ctx context.Context, from, to time.Time) ([]*model.ClinicalRecord, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// Exists reports whether a notification of this type already targets the
	// related entity; the reminder worker uses it as an idempotency guard.
	Exists(ctx context.Context, typ model.NotificationType, relatedID uuid.UUID) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID, role model.UserRole, unreadOnly bool) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID, role model.UserRole) error
}

type ClinicConfigRepository interface {
	Get(ctx context.Context) (*model.ClinicConfig, error)
	Update(ctx context.Context, cfg *model.ClinicConfig) error
}

package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/VictorRomo99/veterinaria-pro/internal/email"
	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/notification"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
)

// Service implements the scheduling engine. Notification and email side
// effects are best effort: a delivery failure never rolls back a booking.
type Service struct {
	appointments  repository.AppointmentRepository
	tx            repository.AppointmentTxRunner
	users         repository.UserRepository
	pets          repository.PetRepository
	notifications *notification.Service
	email         email.Service
	logger        zerolog.Logger
	clock         func() time.Time
}

func NewService(
	appointments repository.AppointmentRepository,
	tx repository.AppointmentTxRunner,
	users repository.UserRepository,
	pets repository.PetRepository,
	notifications *notification.Service,
	emailSvc email.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		appointments:  appointments,
		tx:            tx,
		users:         users,
		pets:          pets,
		notifications: notifications,
		email:         emailSvc,
		logger:        logger,
		clock:         time.Now,
	}
}

// WithClock overrides the time source. Tests use it to pin "today".
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Schedule books a new appointment for a client's pet. Validation runs in a
// fixed order so the client always sees the most fundamental problem first:
// calendar rules, then working hours, then slot conflicts.
func (s *Service) Schedule(ctx context.Context, clientID uuid.UUID, req *model.ScheduleAppointmentRequest) (*model.Appointment, error) {
	pet, err := s.pets.Get(ctx, req.PetID)
	if err != nil {
		return nil, errors.NotFound("pet", err)
	}
	if pet.OwnerID != clientID {
		return nil, errors.Forbidden("pet does not belong to client")
	}

	duration := model.DurationFor(req.Service)
	if err := validateWindow(req.Date, req.StartTime, duration); err != nil {
		return nil, err
	}

	attention := model.AttentionFor(req.Service)
	appt := &model.Appointment{
		ClientID:        clientID,
		PetID:           req.PetID,
		Service:         req.Service,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: duration,
		AttentionType:   attention,
		Address:         req.Address,
		Reason:          req.Reason,
		Status:          model.AppointmentStatusPending,
	}

	// Overlap scan and insert commit together, so two concurrent bookings
	// cannot both claim the same interval.
	err = s.tx.InTx(ctx, func(repo repository.AppointmentRepository) error {
		if err := detectConflict(ctx, repo, req.Date, req.StartTime, duration, nil); err != nil {
			return err
		}
		if attention == model.AttentionHomeVisit && (req.Address == nil || *req.Address == "") {
			return errors.Validation("home visit requires an address")
		}
		if err := repo.Create(ctx, appt); err != nil {
			return errors.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	appt.PetName = pet.Name

	s.notifyStaff(ctx, model.NotificationAppointmentCreated, "Nueva cita",
		fmt.Sprintf("Cita de %s el %s a las %s", req.Service, req.Date, req.StartTime), appt.ID)
	s.emailClient(ctx, clientID, func(to string) error {
		return s.email.SendAppointmentConfirmation(ctx, to, appt)
	})

	return appt, nil
}

// CheckAvailability probes the exact (date, start) slot only. It is a pure
// read: no calendar rules, no interval overlap. A "free" answer can still
// be rejected by Schedule, the booking path owns the final decision.
func (s *Service) CheckAvailability(ctx context.Context, date, startTime string) (bool, error) {
	taken, err := s.appointments.ExistsAt(ctx, date, startTime, nil)
	if err != nil {
		return false, errors.Internal(err)
	}
	return !taken, nil
}

// Confirm moves a pending or postponed appointment to confirmed.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("appointment", err)
	}
	if appt.Status == model.AppointmentStatusCancelled {
		return nil, errors.RuleViolation("cannot confirm a cancelled appointment")
	}
	appt.Status = model.AppointmentStatusConfirmed
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, errors.Internal(err)
	}

	s.notifyClient(ctx, appt.ClientID, model.NotificationAppointmentConfirmed, "Cita confirmada",
		fmt.Sprintf("Tu cita del %s a las %s fue confirmada", appt.Date, appt.StartTime), appt.ID)
	return appt, nil
}

// StaffReschedule postpones an appointment to a new slot. Each appointment
// carries at most two postponements; the third attempt is rejected.
func (s *Service) StaffReschedule(ctx context.Context, id uuid.UUID, req *model.RescheduleRequest) (*model.Appointment, error) {
	var appt *model.Appointment
	err := s.tx.InTx(ctx, func(repo repository.AppointmentRepository) error {
		var err error
		appt, err = repo.Get(ctx, id)
		if err != nil {
			return errors.NotFound("appointment", err)
		}
		if appt.Status == model.AppointmentStatusCancelled {
			return errors.RuleViolation("cannot reschedule a cancelled appointment")
		}
		if appt.Postponements >= model.MaxPostponements {
			return errors.LimitExceeded(fmt.Sprintf(
				"appointment already postponed %d times", appt.Postponements))
		}

		// Reschedules probe the exact target slot only; interval overlap is
		// not rechecked here.
		if err := validateDayAndClock(req.Date, req.StartTime); err != nil {
			return err
		}
		taken, err := repo.ExistsAt(ctx, req.Date, req.StartTime, &id)
		if err != nil {
			return errors.Internal(err)
		}
		if taken {
			return errors.Conflict("slot already taken")
		}

		appt.Date = req.Date
		appt.StartTime = req.StartTime
		appt.Status = model.AppointmentStatusPostponed
		appt.Postponements++
		if err := repo.Update(ctx, appt); err != nil {
			return errors.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyClient(ctx, appt.ClientID, model.NotificationAppointmentPostponed, "Cita reprogramada",
		fmt.Sprintf("Tu cita fue movida al %s a las %s", appt.Date, appt.StartTime), appt.ID)
	s.emailClient(ctx, appt.ClientID, func(to string) error {
		return s.email.SendAppointmentPostponed(ctx, to, appt)
	})
	return appt, nil
}

// ClientReschedule lets the owner move their own appointment once. A second
// client-side reschedule is rejected regardless of the postponement count.
func (s *Service) ClientReschedule(ctx context.Context, clientID, id uuid.UUID, req *model.RescheduleRequest) (*model.Appointment, error) {
	var appt *model.Appointment
	err := s.tx.InTx(ctx, func(repo repository.AppointmentRepository) error {
		var err error
		appt, err = repo.Get(ctx, id)
		if err != nil {
			return errors.NotFound("appointment", err)
		}
		if appt.ClientID != clientID {
			return errors.Forbidden("appointment does not belong to client")
		}
		if appt.Status == model.AppointmentStatusCancelled {
			return errors.RuleViolation("cannot reschedule a cancelled appointment")
		}
		if appt.RescheduledByClient {
			return errors.LimitExceeded("appointment was already rescheduled by the client")
		}

		if err := validateDayAndClock(req.Date, req.StartTime); err != nil {
			return err
		}
		taken, err := repo.ExistsAt(ctx, req.Date, req.StartTime, &id)
		if err != nil {
			return errors.Internal(err)
		}
		if taken {
			return errors.Conflict("slot already taken")
		}

		appt.Date = req.Date
		appt.StartTime = req.StartTime
		appt.Status = model.AppointmentStatusRescheduledByClient
		appt.RescheduledByClient = true
		if err := repo.Update(ctx, appt); err != nil {
			return errors.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyStaff(ctx, model.NotificationAppointmentRescheduled, "Cita reprogramada por cliente",
		fmt.Sprintf("La cita del %s fue movida a las %s", appt.Date, appt.StartTime), appt.ID)
	return appt, nil
}

// StaffCancel flips the appointment to cancelled, keeping the row for
// reporting.
func (s *Service) StaffCancel(ctx context.Context, id uuid.UUID) (model.CancelOutcome, error) {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return "", errors.NotFound("appointment", err)
	}
	appt.Status = model.AppointmentStatusCancelled
	if err := s.appointments.Update(ctx, appt); err != nil {
		return "", errors.Internal(err)
	}

	s.notifyClient(ctx, appt.ClientID, model.NotificationAppointmentCancelled, "Cita cancelada",
		fmt.Sprintf("Tu cita del %s a las %s fue cancelada", appt.Date, appt.StartTime), appt.ID)
	s.emailClient(ctx, appt.ClientID, func(to string) error {
		return s.email.SendAppointmentCancelled(ctx, to, appt)
	})
	return model.CancelOutcomeStatusChanged, nil
}

// ClientCancel removes the row entirely: a client-cancelled appointment
// leaves no trace in the agenda.
func (s *Service) ClientCancel(ctx context.Context, clientID, id uuid.UUID) (model.CancelOutcome, error) {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return "", errors.NotFound("appointment", err)
	}
	if appt.ClientID != clientID {
		return "", errors.Forbidden("appointment does not belong to client")
	}
	if err := s.appointments.Delete(ctx, id); err != nil {
		return "", errors.Internal(err)
	}

	s.notifyStaff(ctx, model.NotificationAppointmentCancelled, "Cita cancelada por cliente",
		fmt.Sprintf("La cita del %s a las %s fue cancelada por el cliente", appt.Date, appt.StartTime), appt.ID)
	return model.CancelOutcomeDeleted, nil
}

// Complete marks an attended appointment as completed.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("appointment", err)
	}
	if appt.Status == model.AppointmentStatusCancelled {
		return nil, errors.RuleViolation("cannot complete a cancelled appointment")
	}
	appt.Status = model.AppointmentStatusCompleted
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, errors.Internal(err)
	}
	return appt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("appointment", err)
	}
	return appt, nil
}

func (s *Service) ListForClient(ctx context.Context, clientID uuid.UUID) ([]*model.Appointment, error) {
	return s.appointments.ListByClient(ctx, clientID)
}

func (s *Service) ListForReception(ctx context.Context, from, to string, status *model.AppointmentStatus) ([]*model.Appointment, error) {
	if from == "" {
		from = s.clock().Format(model.DateLayout)
	}
	if to == "" {
		to = from
	}
	return s.appointments.ListByDateRange(ctx, from, to, status)
}

// SendReminders mails every client with an unreminded appointment on the
// given date and marks the rows, so repeated calls do not spam.
func (s *Service) SendReminders(ctx context.Context, date string) (int, error) {
	appts, err := s.appointments.ListForReminder(ctx, date)
	if err != nil {
		return 0, errors.Internal(err)
	}

	sent := 0
	for _, appt := range appts {
		client, err := s.users.Get(ctx, appt.ClientID)
		if err != nil {
			s.logger.Warn().Err(err).Str("appointment_id", appt.ID.String()).Msg("reminder: client lookup failed")
			continue
		}
		if err := s.email.SendAppointmentReminder(ctx, client.Email, appt); err != nil {
			s.logger.Warn().Err(err).Str("email", client.Email).Msg("reminder: send failed")
			continue
		}
		if err := s.appointments.MarkReminderSent(ctx, appt.ID, s.clock()); err != nil {
			s.logger.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("reminder: mark failed")
			continue
		}
		s.notifyClient(ctx, appt.ClientID, model.NotificationAppointmentReminder, "Recordatorio de cita",
			fmt.Sprintf("Tienes una cita el %s a las %s", appt.Date, appt.StartTime), appt.ID)
		sent++
	}
	return sent, nil
}

// SendReminder mails the client of a single appointment on request. Unlike
// the daily sweep it can be repeated; each send bumps the reminder count.
func (s *Service) SendReminder(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("appointment", err)
	}

	client, err := s.users.Get(ctx, appt.ClientID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if err := s.email.SendAppointmentReminder(ctx, client.Email, appt); err != nil {
		return nil, errors.Internal(err)
	}

	now := s.clock()
	if err := s.appointments.MarkReminderSent(ctx, appt.ID, now); err != nil {
		return nil, errors.Internal(err)
	}
	appt.Reminders++
	appt.ReminderSentAt = &now

	s.notifyClient(ctx, appt.ClientID, model.NotificationAppointmentReminder, "Recordatorio de cita",
		fmt.Sprintf("Tienes una cita el %s a las %s", appt.Date, appt.StartTime), appt.ID)
	return appt, nil
}

// validateWindow enforces the calendar-side booking rules: open day,
// working hours, lunch break, and the visit fitting before closing.
func validateWindow(date, startTime string, duration int) error {
	if err := validateDayAndClock(date, startTime); err != nil {
		return err
	}

	start := model.MinuteOf(startTime)
	end := start + duration
	if end > model.ClosingMinute {
		return errors.RuleViolation("appointment does not fit before closing time")
	}
	// A visit may not straddle the lunch break either way.
	if start < model.LunchEndMinute && end > model.LunchStartMinute {
		return errors.RuleViolation("appointment overlaps the lunch break")
	}
	return nil
}

// detectConflict scans the date's active appointments for interval overlap.
// It runs on the transaction-bound repository so the scan and the following
// insert see the same ledger.
func detectConflict(ctx context.Context, repo repository.AppointmentRepository, date, startTime string, duration int, exclude *uuid.UUID) error {
	start := model.MinuteOf(startTime)
	end := start + duration

	existing, err := repo.ListActiveByDate(ctx, date)
	if err != nil {
		return errors.Internal(err)
	}
	for _, other := range existing {
		if exclude != nil && other.ID == *exclude {
			continue
		}
		otherStart := model.MinuteOf(other.StartTime)
		otherEnd := other.EndMinute()
		if start < otherEnd && end > otherStart {
			return errors.Conflict(fmt.Sprintf(
				"slot conflicts with an appointment at %s", other.StartTime))
		}
	}
	return nil
}

// validateDayAndClock checks calendar-level rules shared by booking and
// reschedule paths: parseable date, not Sunday, start inside working hours
// and outside lunch.
func validateDayAndClock(date, startTime string) error {
	day, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return errors.Validation("invalid date, expected YYYY-MM-DD")
	}
	if day.Weekday() == time.Sunday {
		return errors.RuleViolation("the clinic is closed on Sundays")
	}

	start := model.MinuteOf(startTime)
	if start < 0 {
		return errors.Validation("invalid time, expected HH:MM")
	}
	if start < model.OpeningMinute || start >= model.ClosingMinute {
		return errors.RuleViolation("outside working hours (08:00-19:00)")
	}
	if start >= model.LunchStartMinute && start < model.LunchEndMinute {
		return errors.RuleViolation("the clinic is on lunch break (13:00-14:00)")
	}
	return nil
}

func (s *Service) notifyStaff(ctx context.Context, typ model.NotificationType, title, message string, relatedID uuid.UUID) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.NotifyRole(ctx, model.UserRoleReceptionist, typ, title, message, &relatedID); err != nil {
		s.logger.Warn().Err(err).Msg("failed to notify staff")
	}
}

func (s *Service) notifyClient(ctx context.Context, clientID uuid.UUID, typ model.NotificationType, title, message string, relatedID uuid.UUID) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.NotifyUser(ctx, clientID, typ, title, message, &relatedID); err != nil {
		s.logger.Warn().Err(err).Msg("failed to notify client")
	}
}

func (s *Service) emailClient(ctx context.Context, clientID uuid.UUID, send func(to string) error) {
	if s.email == nil {
		return
	}
	client, err := s.users.Get(ctx, clientID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("email: client lookup failed")
		return
	}
	if err := send(client.Email); err != nil {
		s.logger.Warn().Err(err).Str("email", client.Email).Msg("email: send failed")
	}
}

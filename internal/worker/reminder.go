package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/VictorRomo99/veterinaria-pro/internal/email"
	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/appointment"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/notification"
	"github.com/VictorRomo99/veterinaria-pro/pkg/metrics"
)

// ReminderWorker sweeps on an interval for two things: tomorrow's
// appointments that have not been reminded yet, and clinical records whose
// next dose enters the 24-hour or 1-hour window. Each sweep is idempotent;
// dose reminders are guarded by a notification existence check so running
// every ten minutes never duplicates one.
type ReminderWorker struct {
	appointments  *appointment.Service
	records       repository.ClinicalRecordRepository
	users         repository.UserRepository
	notifications *notification.Service
	email         email.Service
	logger        zerolog.Logger

	interval  time.Duration
	window24h time.Duration
	window1h  time.Duration
	clock     func() time.Time
	metrics   *metrics.WorkerMetrics
}

type ReminderConfig struct {
	Interval  time.Duration
	Window24h time.Duration
	Window1h  time.Duration
}

func NewReminderWorker(
	appointments *appointment.Service,
	records repository.ClinicalRecordRepository,
	users repository.UserRepository,
	notifications *notification.Service,
	emailSvc email.Service,
	logger zerolog.Logger,
	cfg ReminderConfig,
) *ReminderWorker {
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.Window24h == 0 {
		cfg.Window24h = 24 * time.Hour
	}
	if cfg.Window1h == 0 {
		cfg.Window1h = time.Hour
	}
	return &ReminderWorker{
		appointments:  appointments,
		records:       records,
		users:         users,
		notifications: notifications,
		email:         emailSvc,
		logger:        logger,
		interval:      cfg.Interval,
		window24h:     cfg.Window24h,
		window1h:      cfg.Window1h,
		clock:         time.Now,
	}
}

// WithMetrics attaches prometheus counters; nil metrics are skipped.
func (w *ReminderWorker) WithMetrics(m *metrics.WorkerMetrics) *ReminderWorker {
	w.metrics = m
	return w
}

// WithClock overrides the time source for tests.
func (w *ReminderWorker) WithClock(clock func() time.Time) *ReminderWorker {
	w.clock = clock
	return w
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one pass of both reminder kinds.
func (w *ReminderWorker) Sweep(ctx context.Context) {
	now := w.clock()
	if w.metrics != nil {
		w.metrics.SweepsTotal.Inc()
		timer := prometheus.NewTimer(w.metrics.SweepDuration)
		defer timer.ObserveDuration()
	}

	tomorrow := now.AddDate(0, 0, 1).Format(model.DateLayout)
	sent, err := w.appointments.SendReminders(ctx, tomorrow)
	if err != nil {
		w.logger.Error().Err(err).Msg("appointment reminder sweep failed")
		w.countFailure("appointment")
	} else if sent > 0 {
		w.logger.Info().Int("sent", sent).Str("date", tomorrow).Msg("appointment reminders sent")
		if w.metrics != nil {
			w.metrics.AppointmentReminders.Add(float64(sent))
		}
	}

	if err := w.sweepDoses(ctx, now, w.window24h, model.NotificationDoseReminder24h, "24h"); err != nil {
		w.logger.Error().Err(err).Msg("24h dose reminder sweep failed")
		w.countFailure("dose_24h")
	}
	if err := w.sweepDoses(ctx, now, w.window1h, model.NotificationDoseReminder1h, "1h"); err != nil {
		w.logger.Error().Err(err).Msg("1h dose reminder sweep failed")
		w.countFailure("dose_1h")
	}
}

func (w *ReminderWorker) countFailure(kind string) {
	if w.metrics != nil {
		w.metrics.ReminderFailures.WithLabelValues(kind).Inc()
	}
}

func (w *ReminderWorker) sweepDoses(ctx context.Context, now time.Time, window time.Duration, typ model.NotificationType, label string) error {
	records, err := w.records.ListDueDoses(ctx, now, now.Add(window))
	if err != nil {
		return err
	}

	for _, rec := range records {
		exists, err := w.notifications.Exists(ctx, typ, rec.ID)
		if err != nil {
			w.logger.Error().Err(err).Str("record_id", rec.ID.String()).Msg("dose reminder guard check failed")
			continue
		}
		if exists {
			continue
		}

		note := "dosis pendiente"
		if rec.DoseNote != nil {
			note = *rec.DoseNote
		}

		err = w.notifications.NotifyUser(ctx, rec.OwnerID, typ,
			"Dosis próxima",
			fmt.Sprintf("%s tiene una dosis próxima: %s", rec.PetName, note),
			&rec.ID)
		if err != nil {
			w.logger.Error().Err(err).Str("record_id", rec.ID.String()).Msg("dose reminder notification failed")
			continue
		}
		if w.metrics != nil {
			w.metrics.DoseReminders.WithLabelValues(label).Inc()
		}

		if owner, err := w.users.Get(ctx, rec.OwnerID); err == nil {
			if err := w.email.SendDoseReminder(ctx, owner.Email, rec.PetName, note); err != nil {
				w.logger.Warn().Err(err).Str("email", owner.Email).Msg("dose reminder email failed")
			}
		}
	}
	return nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/VictorRomo99/veterinaria-pro/config"
	"github.com/VictorRomo99/veterinaria-pro/internal/email"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository/postgres"
	appointmentService "github.com/VictorRomo99/veterinaria-pro/internal/service/appointment"
	notificationService "github.com/VictorRomo99/veterinaria-pro/internal/service/notification"
	"github.com/VictorRomo99/veterinaria-pro/internal/worker"
	"github.com/VictorRomo99/veterinaria-pro/pkg/logger"
	"github.com/VictorRomo99/veterinaria-pro/pkg/messaging"
	"github.com/VictorRomo99/veterinaria-pro/pkg/messaging/redis"
	"github.com/VictorRomo99/veterinaria-pro/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Logging.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	petRepo := postgres.NewPetRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	appointmentTx := postgres.NewAppointmentTxRunner(db)
	clinicalRepo := postgres.NewClinicalRecordRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		brokerLogger := appLogger.Zerolog()
		broker, err = redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &brokerLogger)
		if err != nil {
			appLogger.Warn("failed to connect to redis, live notifications disabled", map[string]interface{}{
				"error": err.Error(),
			})
			broker = nil
		} else {
			defer broker.Close()
		}
	}

	var emailSvc email.Service = email.NopService{}
	if cfg.SMTP.Host != "" {
		emailSvc = email.NewSMTPService(cfg.SMTP)
	}

	notificationSvc := notificationService.NewService(notificationRepo, broker, appLogger.Zerolog())
	appointmentSvc := appointmentService.NewService(appointmentRepo, appointmentTx, userRepo, petRepo, notificationSvc, emailSvc, appLogger.Zerolog())

	workerMetrics := metrics.NewWorkerMetrics("vetclinic_worker")

	reminder := worker.NewReminderWorker(
		appointmentSvc,
		clinicalRepo,
		userRepo,
		notificationSvc,
		emailSvc,
		appLogger.Zerolog(),
		worker.ReminderConfig{
			Interval:  cfg.Worker.ReminderInterval,
			Window24h: cfg.Worker.DoseWindow24h,
			Window1h:  cfg.Worker.DoseWindow1h,
		},
	).WithMetrics(workerMetrics)

	ctx, cancel := context.WithCancel(context.Background())
	go reminder.Start(ctx)

	appLogger.Info("reminder worker started", map[string]interface{}{
		"interval": cfg.Worker.ReminderInterval.String(),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down worker", nil)
	cancel()
}

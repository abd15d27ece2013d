package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/VictorRomo99/veterinaria-pro/config"
	adminHandler "github.com/VictorRomo99/veterinaria-pro/internal/handler/admin"
	appointmentHandler "github.com/VictorRomo99/veterinaria-pro/internal/handler/appointment"
	authHandler "github.com/VictorRomo99/veterinaria-pro/internal/handler/auth"
	clinicalHandler "github.com/VictorRomo99/veterinaria-pro/internal/handler/clinical"
	healthHandler "github.com/VictorRomo99/veterinaria-pro/internal/handler/health"
	invoiceHandler "github.com/VictorRomo99/veterinaria-pro/internal/handler/invoice"
	notificationHandler "github.com/VictorRomo99/veterinaria-pro/internal/handler/notification"
	petHandler "github.com/VictorRomo99/veterinaria-pro/internal/handler/pet"
	productHandler "github.com/VictorRomo99/veterinaria-pro/internal/handler/product"
	tillHandler "github.com/VictorRomo99/veterinaria-pro/internal/handler/till"
	"github.com/VictorRomo99/veterinaria-pro/internal/email"
	"github.com/VictorRomo99/veterinaria-pro/internal/middleware"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository/postgres"
	"github.com/VictorRomo99/veterinaria-pro/internal/router"
	appointmentService "github.com/VictorRomo99/veterinaria-pro/internal/service/appointment"
	authService "github.com/VictorRomo99/veterinaria-pro/internal/service/auth"
	billingService "github.com/VictorRomo99/veterinaria-pro/internal/service/billing"
	clinicalService "github.com/VictorRomo99/veterinaria-pro/internal/service/clinical"
	clinicconfigService "github.com/VictorRomo99/veterinaria-pro/internal/service/clinicconfig"
	notificationService "github.com/VictorRomo99/veterinaria-pro/internal/service/notification"
	petService "github.com/VictorRomo99/veterinaria-pro/internal/service/pet"
	productService "github.com/VictorRomo99/veterinaria-pro/internal/service/product"
	reportService "github.com/VictorRomo99/veterinaria-pro/internal/service/report"
	tillService "github.com/VictorRomo99/veterinaria-pro/internal/service/till"
	userService "github.com/VictorRomo99/veterinaria-pro/internal/service/user"
	"github.com/VictorRomo99/veterinaria-pro/pkg/auth"
	"github.com/VictorRomo99/veterinaria-pro/pkg/logger"
	"github.com/VictorRomo99/veterinaria-pro/pkg/messaging"
	"github.com/VictorRomo99/veterinaria-pro/pkg/messaging/redis"
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

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	petRepo := postgres.NewPetRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	tillRepo := postgres.NewTillRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)
	productRepo := postgres.NewProductRepository(db)
	clinicalRepo := postgres.NewClinicalRecordRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	clinicConfigRepo := postgres.NewClinicConfigRepository(db)
	appointmentTx := postgres.NewAppointmentTxRunner(db)
	tillTx := postgres.NewTillTxRunner(db)
	billingTx := postgres.NewBillingTxRunner(db)

	// Broker is optional; the API runs without live notifications.
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

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})

	// Services
	notificationSvc := notificationService.NewService(notificationRepo, broker, appLogger.Zerolog())
	appointmentSvc := appointmentService.NewService(appointmentRepo, appointmentTx, userRepo, petRepo, notificationSvc, emailSvc, appLogger.Zerolog())
	tillSvc := tillService.NewService(tillRepo, tillTx, appLogger.Zerolog())
	clinicConfigSvc := clinicconfigService.NewService(clinicConfigRepo)
	billingSvc := billingService.NewService(invoiceRepo, billingTx, clinicConfigSvc, appLogger.Zerolog())
	productSvc := productService.NewService(productRepo, notificationSvc, appLogger.Zerolog())
	authSvc := authService.NewService(userRepo, jwtSvc, emailSvc, appLogger.Zerolog())
	petSvc := petService.NewService(petRepo, userRepo)
	clinicalSvc := clinicalService.NewService(clinicalRepo, petRepo)
	userSvc := userService.NewService(userRepo)
	reportSvc := reportService.NewService(appointmentRepo, tillRepo, productRepo)

	authMW := middleware.NewAuthMiddleware(jwtSvc)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Security.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Security.AllowedOrigins
	}

	r := router.NewRouter(
		healthHandler.NewHandler(db),
		router.Config{
			RateLimitEnabled:  cfg.RateLimit.Enabled,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			RateBurst:         cfg.RateLimit.Burst,
			RequestTimeout:    cfg.Server.RequestTimeout,
			CORSConfig:        corsConfig,
			MetricsPrefix:     "vetclinic_api",
		},
		authHandler.NewHandler(authSvc),
		appointmentHandler.NewHandler(appointmentSvc, authMW),
		tillHandler.NewHandler(tillSvc, authMW),
		invoiceHandler.NewHandler(billingSvc, authMW),
		productHandler.NewHandler(productSvc, authMW),
		petHandler.NewHandler(petSvc, authMW),
		clinicalHandler.NewHandler(clinicalSvc, authMW),
		notificationHandler.NewHandler(notificationSvc, authMW),
		adminHandler.NewHandler(userSvc, clinicConfigSvc, reportSvc, authMW),
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("starting API server", map[string]interface{}{"port": cfg.Server.Port})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

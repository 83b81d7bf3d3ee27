package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brlk/golang_services/internal/notification_service/adapters/delayqueue"
	"github.com/brlk/golang_services/internal/notification_service/app"
	"github.com/brlk/golang_services/internal/notification_service/domain"
	"github.com/brlk/golang_services/internal/notification_service/provider"
	httptransport "github.com/brlk/golang_services/internal/notification_service/transport/http"
	"github.com/brlk/golang_services/internal/platform/config"
	"github.com/brlk/golang_services/internal/platform/logger"
	"github.com/brlk/golang_services/internal/platform/messagebroker"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName        = "notification-service"
	defaultMetricsPort = 9090
	shutdownTimeout    = 15 * time.Second
	requestTimeout     = 60 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	appLogger := logger.NewWithWriter(os.Stdout, cfg.LogLevel, cfg.LogFormat).With("service", serviceName)

	metricsPort := cfg.MetricsPort
	if metricsPort == 0 {
		metricsPort = defaultMetricsPort
		appLogger.Info("Metrics port not configured, using default", "port", metricsPort)
	}

	region := domain.NewRegion(cfg.RegionCallingCode, cfg.RegionTrunkPrefix, cfg.RegionUTCOffsetMinutes)
	outboundClient := &http.Client{Timeout: cfg.OutboundCallTimeout}

	appLogger.Info("Notification service starting...",
		"http_port", cfg.ServerPort,
		"metrics_port", metricsPort,
		"log_level", cfg.LogLevel,
		"whatsapp_enabled", cfg.WhatsAppEnabled(),
		"delay_queue_enabled", cfg.DelayQueueEnabled(),
		"nats_enabled", cfg.NATSUrl != "",
	)

	smsSender := newSMSSender(cfg, region, outboundClient, appLogger)

	var templateSender app.TemplateSender
	if cfg.WhatsAppEnabled() {
		templateSender = provider.NewWhatsAppProvider(appLogger, cfg.WhatsAppAPIURL, cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppLanguageCode, outboundClient)
	} else {
		appLogger.Warn("WhatsApp credentials not set, template channel disabled")
	}

	var queue app.DelayQueue
	if cfg.DelayQueueEnabled() {
		queue = delayqueue.NewQStashClient(appLogger, cfg.QStashURL, cfg.QStashToken, cfg.CallbackURL(), outboundClient)
		appLogger.Info("Delay queue configured", "callback_url", cfg.CallbackURL())
	} else {
		appLogger.Warn("QSTASH_TOKEN or PUBLIC_BASE_URL not set, reminders will not be scheduled")
	}

	var events app.EventPublisher
	if cfg.NATSUrl != "" {
		natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, serviceName, appLogger)
		if err != nil {
			appLogger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		events = natsClient
		appLogger.Info("Successfully connected to NATS")
	}

	composer := app.NewComposer(app.ComposerConfig{
		Region:               region,
		BrandName:            cfg.BrandName,
		SupportContactURL:    cfg.SupportContactURL,
		RescheduleBaseURL:    cfg.RescheduleBaseURL,
		ConfirmationTemplate: cfg.WhatsAppTemplateConfirmation,
		ReminderTemplate:     cfg.WhatsAppTemplateReminder,
	})
	bookingService := app.NewBookingService(composer, smsSender, templateSender, queue, events, cfg.OutboundCallTimeout, appLogger)
	reminderService := app.NewReminderService(smsSender, templateSender, events, cfg.OutboundCallTimeout, appLogger)

	verifier := delayqueue.NewSignatureVerifier(cfg.QStashCurrentSigningKey, cfg.QStashNextSigningKey)
	if !verifier.Enabled() {
		appLogger.Warn("QStash signing keys not set, reminder callbacks are not verified")
	}
	if cfg.CalWebhookSecret == "" {
		appLogger.Warn("CAL_WEBHOOK_SECRET not set, booking webhooks are not verified")
	}

	webhookHandler := httptransport.NewWebhookHandler(bookingService, reminderService, validator.New(), appLogger, httptransport.HandlerOptions{
		CalWebhookSecret: cfg.CalWebhookSecret,
		QStashVerifier:   verifier,
		CallbackURL:      cfg.CallbackURL(),
		Features: map[string]bool{
			"sms":         cfg.TextLKAPIToken != "",
			"sms_mock":    cfg.TextLKAPIToken == "" && cfg.SMSMockEnabled,
			"whatsapp":    cfg.WhatsAppEnabled(),
			"delay_queue": cfg.DelayQueueEnabled(),
			"events":      cfg.NATSUrl != "",
		},
	})

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Recoverer)
	router.Use(chiMiddleware.Timeout(requestTimeout))
	router.Use(httptransport.RequestLogger(appLogger))
	router.Use(httptransport.PrometheusMetricsMiddleware)
	webhookHandler.RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", metricsPort),
		Handler: metricsMux,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server ListenAndServe error", "error", err)
			return err
		}
		appLogger.Info("HTTP server shut down gracefully.")
		return nil
	})

	g.Go(func() error {
		appLogger.Info("Metrics HTTP server starting", "address", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Metrics HTTP server ListenAndServe error", "error", err)
			return err
		}
		appLogger.Info("Metrics HTTP server shut down gracefully.")
		return nil
	})

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)

	g.Go(func() error {
		select {
		case sig := <-stopSignal:
			appLogger.Info("Received termination signal", "signal", sig.String())
			mainCancel()
			return nil
		case <-groupCtx.Done():
			return nil
		}
	})

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Initiating graceful shutdown of servers...")

		shutdownCtx, cancelShutdownTimeout := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdownTimeout()

		var shutdownErrors error
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Metrics HTTP server graceful shutdown failed", "error", err)
			shutdownErrors = errors.Join(shutdownErrors, fmt.Errorf("metrics http shutdown: %w", err))
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("HTTP server graceful shutdown failed", "error", err)
			shutdownErrors = errors.Join(shutdownErrors, fmt.Errorf("http shutdown: %w", err))
		}
		return shutdownErrors
	})

	appLogger.Info("Notification service is ready and running.")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Service group encountered an error during run/shutdown", "error", err)
	}

	appLogger.Info("Notification service shut down successfully.")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/ecommerce-copilot/api/internal/handlers"
	"github.com/ecommerce-copilot/api/internal/platform/config"
	pfirestore "github.com/ecommerce-copilot/api/internal/platform/firestore"
	"github.com/ecommerce-copilot/api/internal/platform/jobs"
	"github.com/ecommerce-copilot/api/internal/platform/observability"
	firestoreRepo "github.com/ecommerce-copilot/api/internal/repositories/firestore"
	"github.com/ecommerce-copilot/api/internal/services"
	"github.com/ecommerce-copilot/api/internal/shopify"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load(ctx)
	if err != nil {
		if errors.Is(err, config.ErrUnsupportedPlatform) {
			logger.Fatal("unsupported commerce platform", zap.Error(err))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	serviceLogger := func(ctx context.Context, event string, fields map[string]any) {
		zfields := make([]zap.Field, 0, len(fields))
		for k, v := range fields {
			zfields = append(zfields, zap.Any(k, v))
		}
		observability.FromContext(ctx).Named("services").Info(event, zfields...)
	}

	commerce, err := newCommerceGateway(cfg, logger)
	if err != nil {
		// Keep serving traffic; every commerce call reports the missing
		// configuration to the caller instead of crashing the process.
		logger.Error("commerce gateway not fully configured", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	defer func() {
		if err := firestoreProvider.Close(); err != nil {
			logger.Warn("firestore provider close error", zap.Error(err))
		}
	}()

	eventRepo, err := firestoreRepo.NewEventRepository(firestoreProvider, cfg.Firestore.EventsCollection)
	if err != nil {
		logger.Fatal("failed to initialise event repository", zap.Error(err))
	}

	var publisher services.EventPublisher
	var pubsubClient *pubsub.Client
	if topic := strings.TrimSpace(cfg.Events.PubSubTopic); topic != "" {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.Firestore.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		publisher, err = jobs.NewPubSubEventPublisher(pubsubClient.Topic(topic))
		if err != nil {
			logger.Fatal("failed to initialise event publisher", zap.Error(err))
		}
	}
	defer func() {
		if pubsubClient != nil {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub client close error", zap.Error(err))
			}
		}
	}()

	resolver, err := services.NewOrderResolver(services.OrderResolverDeps{
		Commerce: commerce,
		Logger:   serviceLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise order resolver", zap.Error(err))
	}

	eligibility, err := services.NewEligibilityEngine(services.EligibilityEngineDeps{
		ReturnWindowDays: cfg.Commerce.ReturnWindowDays,
	})
	if err != nil {
		logger.Fatal("failed to initialise eligibility engine", zap.Error(err))
	}

	workflow, err := services.NewCancellationWorkflow(services.CancellationWorkflowDeps{
		Commerce:    commerce,
		Eligibility: eligibility,
		Logger:      serviceLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise cancellation workflow", zap.Error(err))
	}

	stock, err := services.NewStockService(services.StockServiceDeps{
		Commerce: commerce,
		Logger:   serviceLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise stock service", zap.Error(err))
	}

	classifier, err := services.NewClassifierService(services.ClassifierServiceDeps{
		Endpoint: cfg.Classifier.Endpoint,
		APIKey:   cfg.Classifier.APIKey,
		Model:    cfg.Classifier.Model,
		Timeout:  cfg.Classifier.Timeout,
		Logger:   serviceLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise classifier", zap.Error(err))
	}

	events, err := services.NewEventLogService(services.EventLogServiceDeps{
		Repository: eventRepo,
		Publisher:  publisher,
		Platform:   cfg.Commerce.Platform,
		Logger:     serviceLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise event log", zap.Error(err))
	}

	supportHandlers, err := handlers.NewSupportHandlers(handlers.SupportHandlersDeps{
		Resolver:    resolver,
		Eligibility: eligibility,
		Workflow:    workflow,
		Stock:       stock,
		Classifier:  classifier,
		Events:      events,
	})
	if err != nil {
		logger.Fatal("failed to initialise support handlers", zap.Error(err))
	}

	orderHandlers, err := handlers.NewOrderHandlers(commerce)
	if err != nil {
		logger.Fatal("failed to initialise order handlers", zap.Error(err))
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithReadinessCheck("firestore", func(ctx context.Context) error {
			_, err := firestoreProvider.Client(ctx)
			return err
		}),
	)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithSupportRoutes(supportHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("support api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newCommerceGateway builds the configured platform's gateway. The only
// platform today is Shopify; config validation already rejected anything else.
func newCommerceGateway(cfg config.Config, logger *zap.Logger) (services.CommerceGateway, error) {
	switch cfg.Commerce.Platform {
	case "shopify":
		client, err := shopify.NewClient(shopify.ClientConfig{
			StoreDomain: cfg.Commerce.StoreDomain,
			StoreURL:    cfg.Commerce.StoreURL,
			AccessToken: cfg.Commerce.AccessToken,
			APIVersion:  cfg.Commerce.APIVersion,
			Timeout:     cfg.Commerce.RequestTimeout,
		})
		if err != nil {
			return client, err
		}
		logger.Info("shopify gateway ready",
			zap.String("store_domain", shopify.ResolveStoreDomain(cfg.Commerce.StoreDomain, cfg.Commerce.StoreURL)),
			zap.String("api_version", cfg.Commerce.APIVersion),
		)
		return client, nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnsupportedPlatform, cfg.Commerce.Platform)
	}
}

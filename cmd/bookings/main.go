package main

import (
	bookingshandler "gatherly/internal/bookings/handler"
	bookingsrepo "gatherly/internal/bookings/repository"
	bookingsservice "gatherly/internal/bookings/service"
	bookingsvalidator "gatherly/internal/bookings/validator"
	earningshandler "gatherly/internal/earnings/handler"
	earningsrepo "gatherly/internal/earnings/repository"
	earningsservice "gatherly/internal/earnings/service"
	eventshandler "gatherly/internal/events/handler"
	eventsrepo "gatherly/internal/events/repository"
	eventsservice "gatherly/internal/events/service"
	eventsvalidator "gatherly/internal/events/validator"
	"gatherly/internal/payments/gateway"
	paymentshandler "gatherly/internal/payments/handler"
	paymentsrepo "gatherly/internal/payments/repository"
	reviewshandler "gatherly/internal/reviews/handler"
	reviewsrepo "gatherly/internal/reviews/repository"
	reviewsservice "gatherly/internal/reviews/service"
	reviewsvalidator "gatherly/internal/reviews/validator"
	usersrepo "gatherly/internal/users/repository"
	"gatherly/pkg/app"
	"gatherly/pkg/auth"
	"gatherly/pkg/config"
	"gatherly/pkg/contracts"
	"gatherly/pkg/kafka"
	kafka_config "gatherly/pkg/kafka/config"
	kafka_middleware "gatherly/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	if err := cfg.ValidatePayments(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}

	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication(cfg)

	metrics := kafka_middleware.NewMetrics()
	bookingEvents := newPublisher(cfg, serverApp, metrics, cfg.BookingEventsTopic, cfg.BookingEventsDLQ)
	reviewEvents := newPublisher(cfg, serverApp, metrics, cfg.ReviewEventsTopic, cfg.ReviewEventsDLQ)

	handlers := initHandlers(cfg, bookingEvents, reviewEvents)
	serverApp.SetApp(auth.NewVerifier(cfg.JWTSecret), metrics, handlers...)
	serverApp.Run()
}

func initHandlers(cfg *config.Config, bookingEvents, reviewEvents kafka.Publisher) []contracts.Handler {
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	lockRepo := bookingsrepo.NewMongoEventLockRepository(cfg)
	eventRepo := eventsrepo.NewMongoEventRepository(cfg)
	userRepo := usersrepo.NewMongoUserRepository(cfg)
	paymentRepo := paymentsrepo.NewMongoPaymentRepository(cfg)
	reviewRepo := reviewsrepo.NewMongoReviewRepository(cfg)

	gw := gateway.NewRetrying(
		gateway.NewStripe(gateway.StripeConfig{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			Timeout:       cfg.GatewayTimeout,
		}, cfg.Log),
		cfg.GatewayMaxRetries,
		cfg.GatewayRetryBackoff,
		cfg.Log,
	)

	eventService := eventsservice.NewEventService(
		eventRepo,
		eventsvalidator.NewEventValidator(),
		bookingRepo,
		cfg,
	)

	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		lockRepo,
		eventRepo,
		userRepo,
		paymentRepo,
		gw,
		bookingEvents,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		cfg,
	)

	earningsService := earningsservice.NewEarningsService(
		earningsrepo.NewMongoEarningsRepository(cfg),
		cfg,
	)

	reviewService := reviewsservice.NewReviewService(
		reviewRepo,
		bookingRepo,
		reviewEvents,
		reviewsvalidator.NewReviewValidator(),
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		eventshandler.NewEventHandler(eventService, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		paymentshandler.NewPaymentHandler(bookingService, gw, cfg.Log),
		earningshandler.NewEarningsHandler(earningsService, cfg.Log),
		reviewshandler.NewReviewHandler(reviewService, cfg.Log),
	}
}

// newPublisher returns a Kafka producer for topic, or a no-op publisher when
// Kafka is disabled. Lifecycle events are best effort, so a broken Kafka
// setup degrades to no-op instead of failing startup.
func newPublisher(cfg *config.Config, serverApp *app.Application, metrics *kafka_middleware.Metrics, topic, dlq string) kafka.Publisher {
	if !cfg.KafkaEnabled {
		return kafka.NoopPublisher{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Error("Kafka configuration invalid, publishing disabled", "topic", topic, "error", err)
		return kafka.NoopPublisher{}
	}

	producer, err := kafka.NewProducer(kafkaCfg, topic, dlq, cfg.Log)
	if err != nil {
		cfg.Log.Error("Failed to create Kafka producer, publishing disabled", "topic", topic, "error", err)
		return kafka.NoopPublisher{}
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(metrics.ProducerMiddleware())
	}

	serverApp.OnShutdown(producer.Close)
	cfg.Log.Info("Kafka producer ready", "topic", topic)
	return producer
}

package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"gatherly/internal/reviews/consumer"
	reviewsrepo "gatherly/internal/reviews/repository"
	usersrepo "gatherly/internal/users/repository"
	"gatherly/pkg/config"
	"gatherly/pkg/kafka"
	kafka_config "gatherly/pkg/kafka/config"
	kafka_middleware "gatherly/pkg/kafka/middleware"
)

const ServiceName = "ratings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	handler := consumer.NewRatingsHandler(
		reviewsrepo.NewMongoReviewRepository(cfg),
		usersrepo.NewMongoUserRepository(cfg),
		cfg.Log,
	)

	ratingsConsumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.ReviewEventsTopic,
		cfg.RatingsGroupID,
		cfg.ReviewEventsDLQ,
		handler.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create ratings consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		metrics := kafka_middleware.NewMetrics()
		ratingsConsumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		ratingsConsumer.Use(metrics.ConsumerMiddleware())
		defer func() {
			cfg.Log.Info("Ratings consumer metrics", "snapshot", metrics.Snapshot())
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting ratings consumer",
		"topic", cfg.ReviewEventsTopic,
		"group_id", cfg.RatingsGroupID,
	)
	if err := ratingsConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Ratings consumer stopped", "error", err)
	}

	if err := ratingsConsumer.Close(); err != nil {
		cfg.Log.Error("Failed to close ratings consumer", "error", err)
	}
	cfg.Log.Info("Ratings consumer stopped")
}

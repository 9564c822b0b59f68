package consumer

import (
	"context"

	"gatherly/internal/reviews/repository"
	"gatherly/internal/reviews/service"
	"gatherly/pkg/kafka"
	"gatherly/pkg/logger"
	"gatherly/pkg/model"
)

// RatingStore persists a host's folded rating. Satisfied by the users
// repository.
type RatingStore interface {
	SetRating(ctx context.Context, userID string, rating model.HostRating) error
}

// RatingsHandler recomputes a host's rating from every stored review each
// time one is created. Redelivery yields the same result.
type RatingsHandler struct {
	reviews repository.ReviewRepository
	users   RatingStore
	log     *logger.Logger
}

func NewRatingsHandler(reviews repository.ReviewRepository, users RatingStore, log *logger.Logger) *RatingsHandler {
	return &RatingsHandler{
		reviews: reviews,
		users:   users,
		log:     log,
	}
}

func (h *RatingsHandler) Handle(ctx context.Context, msg kafka.Message) error {
	if eventType := msg.GetEventType(); eventType != service.EventReviewCreated {
		h.log.Debug("Skipping review message", "event_type", eventType, "offset", msg.Offset)
		return nil
	}

	var event service.ReviewEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("malformed review event", err)
	}
	if event.HostID == "" {
		return kafka.NewPermanentError("review event has no host_id", nil)
	}

	rating, err := h.reviews.HostRating(ctx, event.HostID)
	if err != nil {
		return kafka.NewTransientError("failed to fold host rating", err)
	}
	if err := h.users.SetRating(ctx, event.HostID, rating); err != nil {
		return kafka.NewTransientError("failed to store host rating", err)
	}

	h.log.Info("Host rating updated",
		"host_id", event.HostID,
		"review_id", event.ReviewID,
		"average", rating.Average,
		"count", rating.Count,
	)
	return nil
}

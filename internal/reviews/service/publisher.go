package service

import (
	"context"
	"time"

	"gatherly/pkg/kafka"
	"gatherly/pkg/middleware"
	"gatherly/pkg/model"
)

const (
	EventReviewCreated = "review.created"

	eventSource        = "reviews"
	eventSchemaVersion = "1"
)

// ReviewEvent is keyed by host so every rating change of a host is consumed
// in order.
type ReviewEvent struct {
	Type       string    `json:"type"`
	ReviewID   string    `json:"review_id"`
	HostID     string    `json:"host_id"`
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	Rating     int       `json:"rating"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (s *reviewService) publish(ctx context.Context, review *model.Review) {
	msg, err := kafka.NewMessage().
		WithKey(review.HostID).
		WithEventType(EventReviewCreated).
		WithSchemaVersion(eventSchemaVersion).
		WithSource(eventSource).
		WithCorrelationID(middleware.RequestID(ctx)).
		WithValue(ReviewEvent{
			Type:       EventReviewCreated,
			ReviewID:   review.ID,
			HostID:     review.HostID,
			EventID:    review.EventID,
			UserID:     review.UserID,
			Rating:     review.Rating,
			OccurredAt: s.now().UTC(),
		}).
		Build()
	if err != nil {
		s.cfg.Log.Error("Failed to build review event", "review_id", review.ID, "error", err)
		return
	}

	if err := s.publisher.Publish(context.WithoutCancel(ctx), msg); err != nil {
		s.cfg.Log.Warn("Failed to publish review event",
			"review_id", review.ID,
			"host_id", review.HostID,
			"error", err,
		)
	}
}

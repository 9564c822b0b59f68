package service

import (
	"context"
	"time"

	"gatherly/pkg/kafka"
	"gatherly/pkg/middleware"
	"gatherly/pkg/model"
)

const (
	EventBookingCreated       = "booking.created"
	EventBookingConfirmed     = "booking.confirmed"
	EventBookingCancelled     = "booking.cancelled"
	EventBookingRefunded      = "booking.refunded"
	EventBookingDisputed      = "booking.disputed"
	EventBookingPaymentFailed = "booking.payment_failed"

	eventSource        = "bookings"
	eventSchemaVersion = "1"
)

// BookingEvent is the payload of every booking lifecycle message. Messages
// are keyed by event ID so one event's history stays ordered.
type BookingEvent struct {
	Type          string    `json:"type"`
	BookingID     string    `json:"booking_id"`
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	HostID        string    `json:"host_id"`
	Quantity      int       `json:"quantity"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	RefundAmount  int64     `json:"refund_amount,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// publish is best effort: the booking is already committed.
func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking, reason string) {
	payload := BookingEvent{
		Type:          eventType,
		BookingID:     booking.ID,
		EventID:       booking.EventID,
		UserID:        booking.UserID,
		HostID:        booking.HostID,
		Quantity:      booking.Quantity,
		Amount:        booking.Amount,
		Currency:      booking.Currency,
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
		RefundAmount:  booking.RefundAmount,
		Reason:        reason,
		OccurredAt:    s.now().UTC(),
	}

	msg, err := kafka.NewMessage().
		WithKey(booking.EventID).
		WithEventType(eventType).
		WithSchemaVersion(eventSchemaVersion).
		WithSource(eventSource).
		WithCorrelationID(middleware.RequestID(ctx)).
		WithValue(payload).
		Build()
	if err != nil {
		s.cfg.Log.Error("Failed to build booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
		return
	}

	if err := s.publisher.Publish(context.WithoutCancel(ctx), msg); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

package service

import (
	"context"
	"errors"

	bookingserrors "gatherly/internal/bookings/errors"
	"gatherly/internal/bookings/repository"
	"gatherly/internal/payments/gateway"
	paymentserrors "gatherly/internal/payments/errors"
	"gatherly/pkg/model"
	"gatherly/pkg/sanitizer"
	"gatherly/pkg/validation"
)

func refundKey(bookingID string) string {
	return "refund_" + bookingID
}

func autoRefundKey(intentID string) string {
	return "autorefund_" + intentID
}

// Refund returns money for a paid booking and cancels it. The gateway call
// happens before the event lock is taken; one refund is allowed per booking.
func (s *bookingService) Refund(ctx context.Context, actor model.Actor, id string, req *model.RefundRequest) (*model.Booking, error) {
	if req == nil {
		req = &model.RefundRequest{}
	}
	req.Reason = sanitizer.NormalizeReason(req.Reason)
	if err := s.validator.ValidateRefund(req); err != nil {
		return nil, validation.ToAppError("Refund validation failed", err)
	}

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Resolve(actor, booking).canManage() {
		return nil, bookingserrors.AccessDenied()
	}
	if booking.Status == model.BookingStatusDisputed {
		return nil, bookingserrors.InvalidState(booking.Status, "refund")
	}
	if booking.PaymentStatus != model.PaymentStatusPaid || booking.IntentID() == "" {
		return nil, bookingserrors.NothingToRefund(booking.PaymentStatus)
	}

	amount := booking.Amount
	if req.Amount != nil {
		if *req.Amount > booking.Amount {
			return nil, bookingserrors.RefundExceedsAmount(*req.Amount, booking.Amount)
		}
		amount = *req.Amount
	}

	gctx := gateway.WithIdempotencyKey(ctx, refundKey(booking.ID))
	refund, err := s.gateway.CreateRefund(gctx, booking.IntentID(), req.Amount, gateway.MapRefundReason(req.Reason))
	if err != nil {
		s.cfg.Log.Error("Gateway refund failed",
			"booking_id", booking.ID,
			"payment_intent_id", booking.IntentID(),
			"amount", amount,
			"error", err,
		)
		return nil, bookingserrors.GatewayRefundFailed(err)
	}

	now := s.now().UTC()
	var updated *model.Booking
	err = s.withEventLock(ctx, booking.EventID, func(ctx context.Context) error {
		current, err := s.getBooking(ctx, id)
		if err != nil {
			return err
		}
		if current.RefundID == refund.ID {
			updated = current
			return nil
		}
		if current.PaymentStatus != model.PaymentStatusPaid {
			return bookingserrors.NothingToRefund(current.PaymentStatus)
		}

		t := repository.Transition{
			FromStatus:        []string{current.Status},
			FromPaymentStatus: []string{model.PaymentStatusPaid},
			Status:            model.BookingStatusCancelled,
			PaymentStatus:     model.PaymentStatusRefunded,
			RefundID:          refund.ID,
			RefundAmount:      refund.Amount,
			RefundReason:      req.Reason,
			RefundedAt:        &now,
		}
		if current.Status != model.BookingStatusCancelled {
			t.CancelledAt = &now
			t.CancelledBy = actor.ID
			t.CancelReason = req.Reason
		}

		updated, err = s.repo.Apply(ctx, current.ID, t)
		if err != nil {
			return s.mapTransitionError(ctx, err, current.ID, "refund")
		}
		if current.IsCounted() {
			if err := s.release(ctx, current.EventID, current.UserID, current.Quantity); err != nil {
				return err
			}
			s.syncJoined(ctx, current.UserID, current.EventID, false)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Refund issued but booking not updated",
			"booking_id", booking.ID,
			"refund_id", refund.ID,
			"error", err,
		)
		return nil, err
	}

	ledgerStatus := model.LedgerStatusRefunded
	if refund.Amount < booking.Amount {
		ledgerStatus = model.LedgerStatusPartiallyRefunded
	}
	if err := s.payments.RecordRefund(ctx, booking.IntentID(), refund.ID, refund.Amount, ledgerStatus); err != nil &&
		!errors.Is(err, paymentserrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to record refund",
			"booking_id", booking.ID,
			"refund_id", refund.ID,
			"error", err,
		)
	}

	s.cfg.Log.Info("Booking refunded",
		"booking_id", updated.ID,
		"refund_id", refund.ID,
		"refund_amount", refund.Amount,
		"actor_id", actor.ID,
	)
	s.publish(ctx, EventBookingRefunded, updated, req.Reason)
	return updated, nil
}

// refundUnbookable gives back a captured payment that could not become a
// booking and returns cause.
func (s *bookingService) refundUnbookable(ctx context.Context, intent *gateway.Intent, meta intentMetadata, event *model.Event, cause error) error {
	gctx := gateway.WithIdempotencyKey(ctx, autoRefundKey(intent.ID))
	refund, err := s.gateway.CreateRefund(gctx, intent.ID, nil, gateway.RefundReasonRequestedByCustomer)
	if err != nil {
		s.cfg.Log.Error("Automatic refund failed",
			"payment_intent_id", intent.ID,
			"event_id", event.ID,
			"user_id", meta.UserID,
			"cause", cause,
			"error", err,
		)
		return bookingserrors.GatewayRefundFailed(err)
	}

	err = s.payments.RecordSuccess(ctx, &model.Payment{
		EventID:         event.ID,
		UserID:          meta.UserID,
		HostID:          event.HostID,
		PaymentIntentID: intent.ID,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
		Status:          model.LedgerStatusSucceeded,
	})
	if err != nil && !errors.Is(err, paymentserrors.ErrDuplicate) {
		s.cfg.Log.Error("Failed to record refunded payment",
			"payment_intent_id", intent.ID,
			"error", err,
		)
	}
	if err := s.payments.RecordRefund(ctx, intent.ID, refund.ID, refund.Amount, model.LedgerStatusRefunded); err != nil &&
		!errors.Is(err, paymentserrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to record automatic refund",
			"payment_intent_id", intent.ID,
			"refund_id", refund.ID,
			"error", err,
		)
	}

	s.cfg.Log.Warn("Payment refunded because it could not be booked",
		"payment_intent_id", intent.ID,
		"event_id", event.ID,
		"user_id", meta.UserID,
		"refund_id", refund.ID,
		"cause", cause,
	)
	return cause
}

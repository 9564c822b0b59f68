package service

import (
	"context"
	"errors"
	"strconv"

	bookingserrors "gatherly/internal/bookings/errors"
	"gatherly/internal/bookings/repository"
	eventserrors "gatherly/internal/events/errors"
	"gatherly/internal/payments/gateway"
	paymentserrors "gatherly/internal/payments/errors"
	apperrors "gatherly/pkg/errors"
	"gatherly/pkg/model"
	"gatherly/pkg/sanitizer"
	"gatherly/pkg/validation"
)

type intentMetadata struct {
	EventID   string
	UserID    string
	BookingID string
	Quantity  int
}

func parseIntentMetadata(metadata map[string]string) (intentMetadata, error) {
	meta := intentMetadata{
		EventID:   metadata[gateway.MetadataEventID],
		UserID:    metadata[gateway.MetadataUserID],
		BookingID: metadata[gateway.MetadataBookingID],
	}
	if meta.EventID == "" {
		return meta, bookingserrors.InvalidMetadata(gateway.MetadataEventID)
	}
	if meta.UserID == "" {
		return meta, bookingserrors.InvalidMetadata(gateway.MetadataUserID)
	}
	quantity, err := strconv.Atoi(metadata[gateway.MetadataQuantity])
	if err != nil || quantity < 1 {
		return meta, bookingserrors.InvalidMetadata(gateway.MetadataQuantity)
	}
	meta.Quantity = quantity
	return meta, nil
}

// refundRequired aborts a confirmation whose payment was captured but cannot
// become a booking. The captured amount is refunded once the event lock is
// released and cause is returned to the caller.
type refundRequired struct {
	cause error
}

func (e *refundRequired) Error() string {
	return "payment must be refunded: " + e.cause.Error()
}

func (e *refundRequired) Unwrap() error {
	return e.cause
}

func (s *bookingService) CreatePaymentIntent(ctx context.Context, actor model.Actor, req *model.PaymentIntentCreate) (*model.PaymentIntentResult, error) {
	req.EventID = sanitizer.NormalizeID(req.EventID)
	req.BookingID = sanitizer.NormalizeID(req.BookingID)
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := s.validator.ValidateIntent(req); err != nil {
		return nil, validation.ToAppError("Payment intent validation failed", err)
	}

	if req.BookingID != "" {
		booking, err := s.getBooking(ctx, req.BookingID)
		if err != nil {
			return nil, err
		}
		if booking.UserID != actor.ID {
			return nil, bookingserrors.AccessDenied()
		}
		if booking.EventID != req.EventID {
			return nil, apperrors.InvalidInput("Booking does not belong to the given event")
		}
		if booking.Status != model.BookingStatusPending || booking.PaymentStatus == model.PaymentStatusPaid {
			return nil, bookingserrors.InvalidState(booking.Status, "create_payment_intent")
		}
		req.Quantity = booking.Quantity
	}

	event, err := s.bookableEvent(ctx, actor, req.EventID, req.Quantity, true)
	if err != nil {
		return nil, err
	}
	if event.IsFree() {
		return nil, bookingserrors.FreeEventPayment()
	}

	amount := event.Price * int64(req.Quantity)
	metadata := map[string]string{
		gateway.MetadataEventID:  event.ID,
		gateway.MetadataUserID:   actor.ID,
		gateway.MetadataQuantity: strconv.Itoa(req.Quantity),
	}
	if req.BookingID != "" {
		metadata[gateway.MetadataBookingID] = req.BookingID
	}

	intent, err := s.gateway.CreateIntent(ctx, amount, event.Currency, metadata)
	if err != nil {
		s.cfg.Log.Error("Failed to create payment intent",
			"event_id", event.ID,
			"user_id", actor.ID,
			"amount", amount,
			"error", err,
		)
		return nil, bookingserrors.GatewayError(err, gateway.IsRetryable(err))
	}

	s.cfg.Log.Info("Payment intent created",
		"payment_intent_id", intent.ID,
		"event_id", event.ID,
		"user_id", actor.ID,
		"amount", amount,
		"currency", event.Currency,
	)

	return &model.PaymentIntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          amount,
		Currency:        event.Currency,
	}, nil
}

func (s *bookingService) ConfirmPayment(ctx context.Context, actor model.Actor, intentID string) (*model.Booking, error) {
	req := &model.PaymentConfirm{PaymentIntentID: sanitizer.NormalizeID(intentID)}
	if err := s.validator.ValidateConfirm(req); err != nil {
		return nil, validation.ToAppError("Payment confirmation validation failed", err)
	}

	intent, err := s.retrieveIntent(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if owner := intent.Metadata[gateway.MetadataUserID]; owner != actor.ID && !actor.IsAdmin() {
		return nil, bookingserrors.AccessDenied()
	}
	return s.confirm(ctx, intent)
}

func (s *bookingService) ConfirmIntent(ctx context.Context, intentID string) (*model.Booking, error) {
	intent, err := s.retrieveIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	return s.confirm(ctx, intent)
}

func (s *bookingService) retrieveIntent(ctx context.Context, intentID string) (*gateway.Intent, error) {
	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, gateway.ErrIntentNotFound) {
			return nil, bookingserrors.IntentNotFound(intentID)
		}
		s.cfg.Log.Error("Failed to retrieve payment intent",
			"payment_intent_id", intentID,
			"error", err,
		)
		return nil, bookingserrors.GatewayError(err, gateway.IsRetryable(err))
	}
	return intent, nil
}

// confirm materializes the booking paid by intent. It is idempotent on the
// intent ID: repeated or racing confirmations return the same booking and
// take capacity once.
func (s *bookingService) confirm(ctx context.Context, intent *gateway.Intent) (*model.Booking, error) {
	if intent.Status != gateway.IntentStatusSucceeded {
		return nil, bookingserrors.PaymentNotSuccessful(intent.Status)
	}
	meta, err := parseIntentMetadata(intent.Metadata)
	if err != nil {
		s.cfg.Log.Warn("Payment intent metadata incomplete",
			"payment_intent_id", intent.ID,
			"error", err,
		)
		return nil, err
	}

	if existing, err := s.repo.FindByIntentID(ctx, intent.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, bookingserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to look up booking by payment intent", err)
	}

	if payment, err := s.payments.FindByIntentID(ctx, intent.ID); err == nil {
		if payment.Status == model.LedgerStatusRefunded || payment.Status == model.LedgerStatusPartiallyRefunded {
			return nil, bookingserrors.InvalidState(payment.Status, "confirm_payment")
		}
	} else if !errors.Is(err, paymentserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to look up payment record", err)
	}

	event, err := s.events.FindByID(ctx, meta.EventID)
	if err != nil {
		return nil, s.mapEventError(err, meta.EventID)
	}

	var booking *model.Booking
	var created bool
	err = s.withEventLock(ctx, event.ID, func(ctx context.Context) error {
		var err error
		booking, created, err = s.materialize(ctx, intent, meta, event)
		return err
	})

	var refund *refundRequired
	if errors.As(err, &refund) {
		return nil, s.refundUnbookable(ctx, intent, meta, event, refund.cause)
	}
	if err != nil {
		return nil, err
	}
	if !created {
		return booking, nil
	}

	s.recordPayment(ctx, booking)

	s.cfg.Log.Info("Payment confirmed",
		"booking_id", booking.ID,
		"payment_intent_id", intent.ID,
		"event_id", booking.EventID,
		"status", booking.Status,
	)
	if booking.IsCounted() {
		s.publish(ctx, EventBookingConfirmed, booking, "")
	} else {
		s.publish(ctx, EventBookingCreated, booking, "")
	}
	return booking, nil
}

// materialize runs under the event lock. It attaches the payment to the
// user's pending booking when there is one, or creates the booking. created
// is false when another confirmation already did the work.
func (s *bookingService) materialize(ctx context.Context, intent *gateway.Intent, meta intentMetadata, event *model.Event) (*model.Booking, bool, error) {
	if existing, err := s.repo.FindByIntentID(ctx, intent.ID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, bookingserrors.ErrNotFound) {
		return nil, false, apperrors.Internal("Failed to look up booking by payment intent", err)
	}

	target, err := s.paymentTarget(ctx, meta)
	if err != nil {
		return nil, false, err
	}

	counted := !event.RequiresApproval
	status := model.BookingStatusPending
	if counted {
		if err := s.reserve(ctx, event.ID, meta.UserID, meta.Quantity); err != nil {
			if apperrors.IsKind(err, apperrors.KindInternal) {
				return nil, false, err
			}
			return nil, false, &refundRequired{cause: err}
		}
		status = model.BookingStatusConfirmed
	} else if event.Status != model.EventStatusOpen && event.Status != model.EventStatusFull {
		return nil, false, &refundRequired{cause: eventserrors.EventNotOpen(event.Status)}
	}

	var booking *model.Booking
	if target == nil {
		booking = &model.Booking{
			UserID:          meta.UserID,
			EventID:         event.ID,
			HostID:          event.HostID,
			Quantity:        meta.Quantity,
			Amount:          intent.Amount,
			Currency:        intent.Currency,
			Status:          status,
			PaymentStatus:   model.PaymentStatusPaid,
			PaymentIntentID: &intent.ID,
		}
		err = s.repo.Create(ctx, booking)
	} else {
		booking, err = s.repo.Apply(ctx, target.ID, repository.Transition{
			FromStatus:        []string{model.BookingStatusPending},
			FromPaymentStatus: []string{model.PaymentStatusPending, model.PaymentStatusFailed},
			Status:            status,
			PaymentStatus:     model.PaymentStatusPaid,
			PaymentIntentID:   intent.ID,
		})
	}
	if err != nil {
		if counted {
			s.release(ctx, event.ID, meta.UserID, meta.Quantity)
		}
		switch {
		case errors.Is(err, bookingserrors.ErrDuplicateIntent):
			existing, findErr := s.repo.FindByIntentID(ctx, intent.ID)
			if findErr != nil {
				return nil, false, apperrors.Internal("Failed to look up booking by payment intent", findErr)
			}
			return existing, false, nil
		case errors.Is(err, bookingserrors.ErrDuplicateActive):
			return nil, false, &refundRequired{cause: bookingserrors.DuplicateBooking(event.ID)}
		case errors.Is(err, bookingserrors.ErrConditionFailed):
			return nil, false, &refundRequired{cause: bookingserrors.InvalidState("changed", "confirm_payment")}
		default:
			s.cfg.Log.Error("Failed to store paid booking",
				"payment_intent_id", intent.ID,
				"error", err,
			)
			return nil, false, apperrors.Internal("Failed to store paid booking", err)
		}
	}

	if counted {
		s.syncJoined(ctx, meta.UserID, event.ID, true)
	}
	return booking, true, nil
}

// paymentTarget finds the existing booking a payment belongs to. A nil
// booking means a new one is created.
func (s *bookingService) paymentTarget(ctx context.Context, meta intentMetadata) (*model.Booking, error) {
	if meta.BookingID != "" {
		booking, err := s.repo.FindByID(ctx, meta.BookingID)
		if err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
				return nil, &refundRequired{cause: bookingserrors.InvalidMetadata(gateway.MetadataBookingID)}
			}
			return nil, apperrors.Internal("Failed to retrieve booking", err)
		}
		if booking.UserID != meta.UserID || booking.EventID != meta.EventID {
			return nil, &refundRequired{cause: bookingserrors.InvalidMetadata(gateway.MetadataBookingID)}
		}
		if booking.Status != model.BookingStatusPending || booking.PaymentStatus == model.PaymentStatusPaid {
			return nil, &refundRequired{cause: bookingserrors.InvalidState(booking.Status, "confirm_payment")}
		}
		return booking, nil
	}

	active, err := s.repo.FindActive(ctx, meta.UserID, meta.EventID)
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to check existing bookings", err)
	}
	if active.Status == model.BookingStatusPending &&
		active.PaymentStatus != model.PaymentStatusPaid &&
		active.IntentID() == "" &&
		active.Quantity == meta.Quantity {
		return active, nil
	}
	return nil, &refundRequired{cause: bookingserrors.DuplicateBooking(meta.EventID)}
}

// recordPayment writes the ledger entry of a paid booking. The booking is
// already committed, so failures are logged.
func (s *bookingService) recordPayment(ctx context.Context, booking *model.Booking) {
	err := s.payments.RecordSuccess(ctx, &model.Payment{
		BookingID:       booking.ID,
		EventID:         booking.EventID,
		UserID:          booking.UserID,
		HostID:          booking.HostID,
		PaymentIntentID: booking.IntentID(),
		Amount:          booking.Amount,
		Currency:        booking.Currency,
		Status:          model.LedgerStatusSucceeded,
	})
	if err != nil && !errors.Is(err, paymentserrors.ErrDuplicate) {
		s.cfg.Log.Error("Failed to record payment",
			"booking_id", booking.ID,
			"payment_intent_id", booking.IntentID(),
			"error", err,
		)
	}
}

func (s *bookingService) MarkPaymentFailed(ctx context.Context, intentID, reason string) error {
	intent, err := s.retrieveIntent(ctx, intentID)
	if err != nil {
		return err
	}
	meta, err := parseIntentMetadata(intent.Metadata)
	if err != nil {
		return err
	}

	err = s.payments.RecordFailure(ctx, &model.Payment{
		BookingID:       meta.BookingID,
		EventID:         meta.EventID,
		UserID:          meta.UserID,
		PaymentIntentID: intent.ID,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
		Status:          model.LedgerStatusFailed,
		FailureReason:   reason,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to record payment failure",
			"payment_intent_id", intent.ID,
			"error", err,
		)
	}

	if meta.BookingID == "" {
		return nil
	}

	booking, err := s.repo.Apply(ctx, meta.BookingID, repository.Transition{
		FromStatus:        []string{model.BookingStatusPending},
		FromPaymentStatus: []string{model.PaymentStatusPending, model.PaymentStatusFailed},
		PaymentStatus:     model.PaymentStatusFailed,
	})
	if err != nil {
		if errors.Is(err, bookingserrors.ErrConditionFailed) {
			s.cfg.Log.Info("Payment failure ignored for settled booking",
				"booking_id", meta.BookingID,
				"payment_intent_id", intent.ID,
			)
			return nil
		}
		return s.mapTransitionError(ctx, err, meta.BookingID, "mark_payment_failed")
	}

	s.cfg.Log.Info("Payment failed",
		"booking_id", booking.ID,
		"payment_intent_id", intent.ID,
		"reason", reason,
	)
	s.publish(ctx, EventBookingPaymentFailed, booking, reason)
	return nil
}

// MarkDisputed moves the booking paid by intentID to disputed. Disputed is
// terminal; spots it held are released.
func (s *bookingService) MarkDisputed(ctx context.Context, intentID, reason string) error {
	booking, err := s.repo.FindByIntentID(ctx, intentID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return bookingserrors.IntentNotFound(intentID)
		}
		return apperrors.Internal("Failed to look up booking by payment intent", err)
	}

	var updated *model.Booking
	changed := false
	err = s.withEventLock(ctx, booking.EventID, func(ctx context.Context) error {
		current, err := s.getBooking(ctx, booking.ID)
		if err != nil {
			return err
		}
		switch current.Status {
		case model.BookingStatusDisputed:
			updated = current
			return nil
		case model.BookingStatusPending, model.BookingStatusConfirmed, model.BookingStatusCompleted:
		default:
			return bookingserrors.InvalidState(current.Status, "dispute")
		}

		updated, err = s.repo.Apply(ctx, current.ID, repository.Transition{
			FromStatus: []string{current.Status},
			Status:     model.BookingStatusDisputed,
		})
		if err != nil {
			return s.mapTransitionError(ctx, err, current.ID, "dispute")
		}
		changed = true
		if current.IsCounted() {
			if err := s.release(ctx, current.EventID, current.UserID, current.Quantity); err != nil {
				return err
			}
			s.syncJoined(ctx, current.UserID, current.EventID, false)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	s.cfg.Log.Warn("Booking disputed",
		"booking_id", updated.ID,
		"payment_intent_id", intentID,
		"reason", reason,
	)
	s.publish(ctx, EventBookingDisputed, updated, reason)
	return nil
}

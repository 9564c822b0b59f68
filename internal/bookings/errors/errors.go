package errors

import (
	"errors"
	"net/http"

	apperrors "gatherly/pkg/errors"
)

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrDuplicateActive is a violation of the one active booking per user
	// and event index.
	ErrDuplicateActive = errors.New("user already holds an active booking for this event")

	// ErrDuplicateIntent is a violation of the unique payment intent index.
	ErrDuplicateIntent = errors.New("payment intent already linked to a booking")

	// ErrConditionFailed means the booking exists but its status did not
	// match the guard of a conditional update.
	ErrConditionFailed = errors.New("booking update condition not met")

	ErrLockHeld = errors.New("event lock is held")
)

const (
	CodeBookingNotFound      = "BOOKING_NOT_FOUND"
	CodeDuplicateBooking     = "DUPLICATE_BOOKING"
	CodeInvalidState         = "INVALID_STATE"
	CodePaymentRequired      = "PAYMENT_REQUIRED"
	CodeAlreadyCancelled     = "ALREADY_CANCELLED"
	CodeNothingToRefund      = "NOTHING_TO_REFUND"
	CodeRefundExceedsAmount  = "REFUND_EXCEEDS_AMOUNT"
	CodeGatewayRefundFailed  = "GATEWAY_REFUND_FAILED"
	CodeGatewayError         = "GATEWAY_ERROR"
	CodePaymentNotSuccessful = "PAYMENT_NOT_SUCCESSFUL"
	CodeInvalidMetadata      = "INVALID_METADATA"
	CodeAccessDenied         = "ACCESS_DENIED"
	CodeEventBusy            = "EVENT_BUSY"
	CodeIntentNotFound       = "PAYMENT_INTENT_NOT_FOUND"
)

func BookingNotFound(id string) *apperrors.AppError {
	return apperrors.New(apperrors.KindNotFound, CodeBookingNotFound, "Booking not found", http.StatusNotFound).
		WithDetails(map[string]any{"booking_id": id})
}

func DuplicateBooking(eventID string) *apperrors.AppError {
	return apperrors.New(apperrors.KindDuplicate, CodeDuplicateBooking, "You already have a booking for this event", http.StatusConflict).
		WithDetails(map[string]any{"event_id": eventID})
}

func InvalidState(status, operation string) *apperrors.AppError {
	return apperrors.New(apperrors.KindInvalidState, CodeInvalidState, "Operation not allowed for the booking's current status", http.StatusConflict).
		WithDetails(map[string]any{"status": status, "operation": operation})
}

func PaymentRequired() *apperrors.AppError {
	return apperrors.New(apperrors.KindPaymentRequired, CodePaymentRequired, "Booking has not been paid", http.StatusPaymentRequired)
}

func AlreadyCancelled() *apperrors.AppError {
	return apperrors.New(apperrors.KindInvalidState, CodeAlreadyCancelled, "Booking is already cancelled", http.StatusConflict)
}

func NothingToRefund(paymentStatus string) *apperrors.AppError {
	return apperrors.New(apperrors.KindInvalidState, CodeNothingToRefund, "Booking has no captured payment to refund", http.StatusConflict).
		WithDetails(map[string]any{"payment_status": paymentStatus})
}

func RefundExceedsAmount(requested, captured int64) *apperrors.AppError {
	return apperrors.New(apperrors.KindValidation, CodeRefundExceedsAmount, "Refund amount exceeds the captured amount", http.StatusUnprocessableEntity).
		WithDetails(map[string]any{"requested": requested, "captured": captured})
}

func GatewayRefundFailed(err error) *apperrors.AppError {
	return apperrors.Wrap(err, apperrors.KindGateway, CodeGatewayRefundFailed, "Payment gateway rejected the refund", http.StatusBadGateway)
}

// GatewayError reports a failed gateway call. Timeouts and transient
// failures are marked retryable.
func GatewayError(err error, retryable bool) *apperrors.AppError {
	status := http.StatusBadGateway
	if retryable {
		status = http.StatusGatewayTimeout
	}
	e := apperrors.Wrap(err, apperrors.KindGateway, CodeGatewayError, "Payment gateway request failed", status)
	e.Retryable = retryable
	return e
}

func PaymentNotSuccessful(status string) *apperrors.AppError {
	return apperrors.New(apperrors.KindPaymentRequired, CodePaymentNotSuccessful, "Payment has not succeeded", http.StatusPaymentRequired).
		WithDetails(map[string]any{"intent_status": status})
}

func InvalidMetadata(missing string) *apperrors.AppError {
	return apperrors.New(apperrors.KindValidation, CodeInvalidMetadata, "Payment intent metadata is incomplete", http.StatusUnprocessableEntity).
		WithDetails(map[string]any{"field": missing})
}

func AccessDenied() *apperrors.AppError {
	return apperrors.New(apperrors.KindPermissionDenied, CodeAccessDenied, "You are not allowed to act on this booking", http.StatusForbidden)
}

func EventBusy(eventID string) *apperrors.AppError {
	e := apperrors.New(apperrors.KindInternal, CodeEventBusy, "Event is busy, try again", http.StatusServiceUnavailable).
		WithDetails(map[string]any{"event_id": eventID})
	e.Retryable = true
	return e
}

func FreeEventPayment() *apperrors.AppError {
	return apperrors.New(apperrors.KindInvalidState, CodeInvalidState, "Free events do not require payment", http.StatusConflict)
}

func IntentNotFound(intentID string) *apperrors.AppError {
	return apperrors.New(apperrors.KindNotFound, CodeIntentNotFound, "Payment intent not found", http.StatusNotFound).
		WithDetails(map[string]any{"payment_intent_id": intentID})
}

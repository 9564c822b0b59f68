// Package gateway is the payment processor contract the booking engine
// depends on. Implementations map processor objects into these types so no
// processor specific type leaks past this package.
package gateway

import (
	"context"
	"errors"
	"fmt"
)

const (
	IntentStatusSucceeded      = "succeeded"
	IntentStatusProcessing     = "processing"
	IntentStatusRequiresAction = "requires_action"
	IntentStatusRequiresMethod = "requires_payment_method"
	IntentStatusCanceled       = "canceled"
)

// Metadata keys attached to every intent.
const (
	MetadataEventID   = "eventId"
	MetadataUserID    = "userId"
	MetadataQuantity  = "quantity"
	MetadataBookingID = "bookingId"
)

type WebhookEventType string

const (
	WebhookPaymentSucceeded WebhookEventType = "payment.succeeded"
	WebhookPaymentFailed    WebhookEventType = "payment.failed"
	WebhookDisputeCreated   WebhookEventType = "dispute.created"
	WebhookIgnored          WebhookEventType = "ignored"
)

type RefundReason string

const (
	RefundReasonDuplicate           RefundReason = "duplicate"
	RefundReasonFraudulent          RefundReason = "fraudulent"
	RefundReasonRequestedByCustomer RefundReason = "requested_by_customer"
)

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

type Refund struct {
	ID     string
	Status string
	Amount int64
}

type WebhookEvent struct {
	ID            string
	Type          WebhookEventType
	IntentID      string
	FailureReason string
}

type Gateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
	// CreateRefund refunds amount, or the full captured amount when nil.
	CreateRefund(ctx context.Context, intentID string, amount *int64, reason RefundReason) (*Refund, error)
	VerifyWebhookSignature(payload []byte, signature string) bool
	DecodeWebhookEvent(payload []byte) (*WebhookEvent, error)
}

var (
	ErrTimeout        = errors.New("payment gateway timed out")
	ErrIntentNotFound = errors.New("payment intent not found")
)

// Error is a failed gateway call.
type Error struct {
	Op         string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gateway %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func IsRetryable(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Retryable
}

type idempotencyKeyCtx struct{}

// WithIdempotencyKey attaches the key the gateway sends with the next write
// made under ctx, so a repeated call returns the original result.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyCtx{}, key)
}

func IdempotencyKey(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(idempotencyKeyCtx{}).(string)
	return key, ok && key != ""
}

// MapRefundReason turns free text into the processor's reason enum. Anything
// unrecognised is treated as a customer request.
func MapRefundReason(reason string) RefundReason {
	switch RefundReason(reason) {
	case RefundReasonDuplicate, RefundReasonFraudulent:
		return RefundReason(reason)
	default:
		return RefundReasonRequestedByCustomer
	}
}

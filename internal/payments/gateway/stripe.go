package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"gatherly/pkg/logger"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/refund"
	"github.com/stripe/stripe-go/v79/webhook"
)

const (
	stripeEventIntentSucceeded = "payment_intent.succeeded"
	stripeEventIntentFailed    = "payment_intent.payment_failed"
	stripeEventDisputeCreated  = "charge.dispute.created"
)

type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type refundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
}

// Stripe implements Gateway on top of stripe-go. The SDK's own network
// retries are disabled; only the Retrying decorator retries, and only reads.
type Stripe struct {
	intents       intentAPI
	refunds       refundAPI
	webhookSecret string
	timeout       time.Duration
	log           *logger.Logger
}

func NewStripe(cfg StripeConfig, log *logger.Logger) *Stripe {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripeLogger{log: log},
	})

	return &Stripe{
		intents:       &paymentintent.Client{B: backend, Key: cfg.SecretKey},
		refunds:       &refund.Client{B: backend, Key: cfg.SecretKey},
		webhookSecret: cfg.WebhookSecret,
		timeout:       cfg.Timeout,
		log:           log,
	}
}

func (s *Stripe) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKeyOrNew(ctx))
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.intents.New(params)
	if err != nil {
		return nil, mapStripeError("create_intent", err)
	}
	return toIntent(pi), nil
}

func (s *Stripe) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.intents.Get(id, params)
	if err != nil {
		return nil, mapStripeError("retrieve_intent", err)
	}
	return toIntent(pi), nil
}

func (s *Stripe) CreateRefund(ctx context.Context, intentID string, amount *int64, reason RefundReason) (*Refund, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Reason:        stripe.String(string(reason)),
	}
	if amount != nil {
		params.Amount = stripe.Int64(*amount)
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKeyOrNew(ctx))

	r, err := s.refunds.New(params)
	if err != nil {
		return nil, mapStripeError("create_refund", err)
	}
	return &Refund{ID: r.ID, Status: string(r.Status), Amount: r.Amount}, nil
}

func (s *Stripe) VerifyWebhookSignature(payload []byte, signature string) bool {
	if err := webhook.ValidatePayload(payload, signature, s.webhookSecret); err != nil {
		s.log.Warn("Webhook signature rejected", "error", err)
		return false
	}
	return true
}

func (s *Stripe) DecodeWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode webhook event: %w", err)
	}
	if event.Data == nil {
		return nil, errors.New("webhook event has no data")
	}

	out := &WebhookEvent{ID: event.ID, Type: WebhookIgnored}

	switch string(event.Type) {
	case stripeEventIntentSucceeded, stripeEventIntentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("failed to decode payment intent: %w", err)
		}
		out.IntentID = pi.ID
		out.Type = WebhookPaymentSucceeded
		if string(event.Type) == stripeEventIntentFailed {
			out.Type = WebhookPaymentFailed
			if pi.LastPaymentError != nil {
				out.FailureReason = pi.LastPaymentError.Msg
			}
		}
	case stripeEventDisputeCreated:
		var dispute stripe.Dispute
		if err := json.Unmarshal(event.Data.Raw, &dispute); err != nil {
			return nil, fmt.Errorf("failed to decode dispute: %w", err)
		}
		if dispute.PaymentIntent != nil {
			out.IntentID = dispute.PaymentIntent.ID
		}
		out.Type = WebhookDisputeCreated
		out.FailureReason = string(dispute.Reason)
	}

	return out, nil
}

func idempotencyKeyOrNew(ctx context.Context) string {
	if key, ok := IdempotencyKey(ctx); ok {
		return key
	}
	return uuid.NewString()
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}

// mapStripeError classifies a failed call. Timeouts, network failures, rate
// limiting and 5xx responses are retryable; other API errors are not.
func mapStripeError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Op: op, Retryable: true, Err: ErrTimeout}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Op: op, Retryable: true, Err: ErrTimeout}
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		gwErr := &Error{
			Op:         op,
			StatusCode: stripeErr.HTTPStatusCode,
			Retryable:  stripeErr.HTTPStatusCode == http.StatusTooManyRequests || stripeErr.HTTPStatusCode >= 500,
			Err:        stripeErr,
		}
		if stripeErr.HTTPStatusCode == http.StatusNotFound {
			gwErr.Err = fmt.Errorf("%w: %s", ErrIntentNotFound, stripeErr.Msg)
		}
		return gwErr
	}

	return &Error{Op: op, Retryable: true, Err: err}
}

type stripeLogger struct {
	log *logger.Logger
}

func (l *stripeLogger) Debugf(format string, v ...any) {
	l.log.Debug(fmt.Sprintf(format, v...), "component", "stripe")
}

func (l *stripeLogger) Infof(format string, v ...any) {
	l.log.Debug(fmt.Sprintf(format, v...), "component", "stripe")
}

func (l *stripeLogger) Warnf(format string, v ...any) {
	l.log.Warn(fmt.Sprintf(format, v...), "component", "stripe")
}

func (l *stripeLogger) Errorf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...), "component", "stripe")
}

package gateway

import (
	"context"
	"time"

	"gatherly/pkg/logger"
)

// Retrying wraps a Gateway and retries RetrieveIntent on transient failures
// with exponential backoff. Writes pass through untouched.
type Retrying struct {
	Gateway
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger
}

func NewRetrying(next Gateway, maxRetries int, backoff time.Duration, log *logger.Logger) *Retrying {
	return &Retrying{
		Gateway:    next,
		maxRetries: maxRetries,
		backoff:    backoff,
		log:        log,
	}
}

func (r *Retrying) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := r.backoff << (attempt - 1)
			r.log.Warn("Retrying payment intent lookup",
				"payment_intent_id", id,
				"attempt", attempt,
				"delay", delay,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, &Error{Op: "retrieve_intent", Retryable: true, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		intent, err := r.Gateway.RetrieveIntent(ctx, id)
		if err == nil {
			return intent, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

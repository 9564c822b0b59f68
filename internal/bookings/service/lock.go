package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "gatherly/internal/bookings/errors"
	apperrors "gatherly/pkg/errors"
	"gatherly/pkg/model"

	"github.com/google/uuid"
)

const (
	lockRetryInitial = 10 * time.Millisecond
	lockRetryMax     = 200 * time.Millisecond
)

func eventLockID(eventID string) string {
	return "event_lock_" + eventID
}

// withEventLock runs fn inside a transaction while holding the advisory lock
// of eventID. fn must not call the payment gateway.
func (s *bookingService) withEventLock(ctx context.Context, eventID string, fn func(ctx context.Context) error) error {
	owner := uuid.NewString()
	if err := s.acquireEventLock(ctx, eventID, owner); err != nil {
		return err
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), eventLockID(eventID), owner); err != nil {
			s.cfg.Log.Warn("Failed to release event lock",
				"event_id", eventID,
				"error", err,
			)
		}
	}()

	return s.repo.ExecuteTransaction(ctx, fn)
}

func (s *bookingService) acquireEventLock(ctx context.Context, eventID, owner string) error {
	deadline := time.Now().Add(s.cfg.EventLockWait)
	backoff := lockRetryInitial

	for attempt := 1; ; attempt++ {
		err := s.locks.Acquire(ctx, &model.EventLock{
			ID:        eventLockID(eventID),
			Owner:     owner,
			ExpiresAt: time.Now().UTC().Add(s.cfg.EventLockTTL),
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			s.cfg.Log.Error("Failed to acquire event lock",
				"event_id", eventID,
				"error", err,
			)
			return apperrors.Internal("Failed to acquire event lock", err)
		}

		if time.Now().Add(backoff).After(deadline) {
			s.cfg.Log.Warn("Event lock wait exceeded",
				"event_id", eventID,
				"attempts", attempt,
			)
			return bookingserrors.EventBusy(eventID)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return apperrors.Timeout("Request cancelled while waiting for event lock")
		case <-timer.C:
		}
		backoff = min(backoff*2, lockRetryMax)
	}
}

package errors

import (
	"errors"
	"net/http"

	apperrors "gatherly/pkg/errors"
)

var (
	ErrNotFound = errors.New("review not found")

	// ErrDuplicate is a violation of the one review per user and event index.
	ErrDuplicate = errors.New("user already reviewed this event")
)

const (
	CodeDuplicateReview  = "DUPLICATE_REVIEW"
	CodeReviewNotAllowed = "REVIEW_NOT_ALLOWED"
)

func DuplicateReview(eventID string) *apperrors.AppError {
	return apperrors.New(apperrors.KindDuplicate, CodeDuplicateReview, "Event already reviewed", http.StatusConflict).
		WithDetails(map[string]any{"event_id": eventID})
}

func ReviewNotAllowed(eventID string) *apperrors.AppError {
	return apperrors.New(apperrors.KindPermissionDenied, CodeReviewNotAllowed, "Only attendees with a confirmed booking can review an event", http.StatusForbidden).
		WithDetails(map[string]any{"event_id": eventID})
}

package errors

import (
	"errors"
	"net/http"

	apperrors "gatherly/pkg/errors"
)

var (
	ErrNotFound = errors.New("event not found")

	ErrInvalidID = errors.New("invalid event ID format")

	// ErrConditionFailed means the event exists but did not satisfy the
	// guard of a conditional update (status or capacity).
	ErrConditionFailed = errors.New("event update condition not met")
)

const (
	CodeEventNotFound        = "EVENT_NOT_FOUND"
	CodeEventNotOpen         = "EVENT_NOT_OPEN"
	CodeEventPast            = "EVENT_PAST"
	CodeEventFull            = "EVENT_FULL"
	CodeInsufficientCapacity = "INSUFFICIENT_CAPACITY"
	CodeInvalidTransition    = "INVALID_STATE"
	CodeAccessDenied         = "ACCESS_DENIED"
)

func EventNotFound(id string) *apperrors.AppError {
	return apperrors.New(apperrors.KindNotFound, CodeEventNotFound, "Event not found", http.StatusNotFound).
		WithDetails(map[string]any{"event_id": id})
}

func EventNotOpen(status string) *apperrors.AppError {
	return apperrors.New(apperrors.KindInvalidState, CodeEventNotOpen, "Event is not open for bookings", http.StatusConflict).
		WithDetails(map[string]any{"status": status})
}

func EventPast() *apperrors.AppError {
	return apperrors.New(apperrors.KindInvalidState, CodeEventPast, "Event has already started", http.StatusConflict)
}

func EventFull(available int) *apperrors.AppError {
	return apperrors.New(apperrors.KindCapacityExceeded, CodeEventFull, "Event is full", http.StatusConflict).
		WithDetails(map[string]any{"available": available})
}

func InsufficientCapacity(requested, available int) *apperrors.AppError {
	return apperrors.New(apperrors.KindCapacityExceeded, CodeInsufficientCapacity, "Not enough spots left", http.StatusConflict).
		WithDetails(map[string]any{"requested": requested, "available": available})
}

func InvalidTransition(from, to string) *apperrors.AppError {
	return apperrors.New(apperrors.KindInvalidState, CodeInvalidTransition, "Event status change not allowed", http.StatusConflict).
		WithDetails(map[string]any{"from": from, "to": to})
}

func AccessDenied() *apperrors.AppError {
	return apperrors.New(apperrors.KindPermissionDenied, CodeAccessDenied, "Only the host or an admin may do this", http.StatusForbidden)
}

func WaitingListClosed(status string) *apperrors.AppError {
	return apperrors.New(apperrors.KindInvalidState, CodeInvalidTransition, "Waiting list is only available for full events", http.StatusConflict).
		WithDetails(map[string]any{"status": status})
}

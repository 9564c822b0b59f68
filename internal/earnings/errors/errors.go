package errors

import (
	"net/http"

	apperrors "gatherly/pkg/errors"
)

const (
	CodeAccessDenied = "ACCESS_DENIED"
	CodeInvalidRange = "INVALID_DATE_RANGE"
)

func AccessDenied() *apperrors.AppError {
	return apperrors.New(apperrors.KindPermissionDenied, CodeAccessDenied, "Only the host or an admin can view earnings", http.StatusForbidden)
}

func InvalidRange() *apperrors.AppError {
	return apperrors.New(apperrors.KindValidation, CodeInvalidRange, "from must be before to", http.StatusBadRequest)
}

package middleware

import (
	"net/http"

	apperrors "gatherly/pkg/errors"
	httputil "gatherly/pkg/http"
)

func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.WriteError(w, apperrors.New(apperrors.KindValidation, "REQUEST_TOO_LARGE",
					"Request body too large", http.StatusRequestEntityTooLarge))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

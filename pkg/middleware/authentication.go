package middleware

import (
	"net/http"

	"gatherly/pkg/auth"
	apperrors "gatherly/pkg/errors"
	httputil "gatherly/pkg/http"
	"gatherly/pkg/logger"
)

// Authentication attaches the bearer token's actor to the request context.
// Requests without a token pass through anonymously; handlers that need an
// actor reject them. A token that is present but invalid is rejected here.
func Authentication(verifier *auth.Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, err := auth.BearerToken(header)
			if err != nil {
				rejectUnauthorized(w, log, r, err)
				return
			}

			actor, err := verifier.Parse(token)
			if err != nil {
				rejectUnauthorized(w, log, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

func rejectUnauthorized(w http.ResponseWriter, log *logger.Logger, r *http.Request, err error) {
	log.Warn("Authentication failed",
		"request_id", RequestID(r.Context()),
		"reason", err.Error(),
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired token"))
}

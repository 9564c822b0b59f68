package http

import (
	"net/http"

	"gatherly/pkg/auth"
	apperrors "gatherly/pkg/errors"
	"gatherly/pkg/model"
)

// RequireActor returns the authenticated caller or a 401 error.
func RequireActor(r *http.Request) (model.Actor, error) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok || actor.ID == "" {
		return model.Actor{}, apperrors.Unauthorized("Authentication required")
	}
	return actor, nil
}

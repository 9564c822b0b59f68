package handler

import (
	"net/http"

	"gatherly/internal/earnings/service"
	httputil "gatherly/pkg/http"
	"gatherly/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type EarningsHandler struct {
	service service.EarningsService
	log     *logger.Logger
}

func NewEarningsHandler(service service.EarningsService, log *logger.Logger) *EarningsHandler {
	return &EarningsHandler{
		service: service,
		log:     log,
	}
}

// GetHostEarnings serves ?from=&to= as RFC3339 timestamps.
func (h *EarningsHandler) GetHostEarnings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	from, err := httputil.ExtractTime(r, "from")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := httputil.ExtractTime(r, "to")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	earnings, err := h.service.GetHostEarnings(r.Context(), actor, ps.ByName("id"), from, to)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, earnings)
}

func (h *EarningsHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/hosts/:id/earnings", h.GetHostEarnings)
}

package handler

import (
	"context"
	"io"
	"net/http"

	"gatherly/internal/payments/gateway"
	"gatherly/pkg/contracts"
	apperrors "gatherly/pkg/errors"
	httputil "gatherly/pkg/http"
	"gatherly/pkg/logger"
	"gatherly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const SignatureHeader = "Stripe-Signature"

// PaymentFlow is the part of the booking engine driven by payment requests
// and gateway webhooks.
type PaymentFlow interface {
	CreatePaymentIntent(ctx context.Context, actor model.Actor, req *model.PaymentIntentCreate) (*model.PaymentIntentResult, error)
	ConfirmPayment(ctx context.Context, actor model.Actor, intentID string) (*model.Booking, error)
	ConfirmIntent(ctx context.Context, intentID string) (*model.Booking, error)
	MarkPaymentFailed(ctx context.Context, intentID, reason string) error
	MarkDisputed(ctx context.Context, intentID, reason string) error
}

type PaymentHandler struct {
	flow    PaymentFlow
	gateway gateway.Gateway
	log     *logger.Logger
}

func NewPaymentHandler(flow PaymentFlow, gw gateway.Gateway, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		flow:    flow,
		gateway: gw,
		log:     log,
	}
}

func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.PaymentIntentCreate
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.flow.CreatePaymentIntent(r.Context(), actor, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, result)
}

func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.PaymentConfirm
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	booking, err := h.flow.ConfirmPayment(r.Context(), actor, req.PaymentIntentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

// Webhook acknowledges every authentic delivery. Only a bad signature is
// rejected; business failures are logged so the gateway does not redeliver.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Failed to read webhook body"))
		return
	}

	if !h.gateway.VerifyWebhookSignature(payload, r.Header.Get(SignatureHeader)) {
		h.log.Warn("Webhook rejected", "reason", "invalid signature")
		httputil.WriteError(w, apperrors.InvalidInput("Invalid webhook signature"))
		return
	}

	event, err := h.gateway.DecodeWebhookEvent(payload)
	if err != nil {
		h.log.Error("Failed to decode webhook event", "error", err)
		httputil.WriteSuccess(w, map[string]bool{"received": true})
		return
	}

	if err := h.dispatch(r.Context(), event); err != nil {
		h.log.Error("Webhook event not applied",
			"webhook_event_id", event.ID,
			"type", event.Type,
			"payment_intent_id", event.IntentID,
			"error", err,
		)
	}

	httputil.WriteSuccess(w, map[string]bool{"received": true})
}

func (h *PaymentHandler) dispatch(ctx context.Context, event *gateway.WebhookEvent) error {
	if event.Type != gateway.WebhookIgnored && event.IntentID == "" {
		return apperrors.InvalidInput("webhook event has no payment intent")
	}

	switch event.Type {
	case gateway.WebhookPaymentSucceeded:
		booking, err := h.flow.ConfirmIntent(ctx, event.IntentID)
		if err != nil {
			return err
		}
		h.log.Info("Webhook confirmed payment",
			"webhook_event_id", event.ID,
			"booking_id", booking.ID,
		)
		return nil
	case gateway.WebhookPaymentFailed:
		return h.flow.MarkPaymentFailed(ctx, event.IntentID, event.FailureReason)
	case gateway.WebhookDisputeCreated:
		return h.flow.MarkDisputed(ctx, event.IntentID, event.FailureReason)
	default:
		h.log.Debug("Webhook event ignored", "webhook_event_id", event.ID)
		return nil
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/payments/intents", h.CreateIntent)
	router.POST("/api/v1/payments/confirm", h.Confirm)
}

// WebhookRoutes is mounted outside the rate limiter: only a bad signature
// may turn a delivery away.
func (h *PaymentHandler) WebhookRoutes() []contracts.Route {
	return []contracts.Route{
		{Method: http.MethodPost, Path: "/api/v1/payments/webhook", Handle: h.Webhook},
	}
}

package contracts

import "github.com/julienschmidt/httprouter"

// Handler is a feature's HTTP surface, mounted on the shared router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

type Route struct {
	Method string
	Path   string
	Handle httprouter.Handle
}

// WebhookHandler is implemented by handlers that receive third-party
// callbacks. Webhook routes authenticate by signature, so they are served
// without actor authentication, rate limiting or idempotency replay.
type WebhookHandler interface {
	WebhookRoutes() []Route
}

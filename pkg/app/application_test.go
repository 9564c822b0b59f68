package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gatherly/pkg/auth"
	"gatherly/pkg/client"
	"gatherly/pkg/config"
	"gatherly/pkg/contracts"
	"gatherly/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const testRateLimit = 5

type stubHandler struct{}

func (stubHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/ping", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})
}

func (stubHandler) WebhookRoutes() []contracts.Route {
	return []contracts.Route{{
		Method: http.MethodPost,
		Path:   "/api/v1/hooks/gateway",
		Handle: func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusOK)
		},
	}}
}

func newTestApplication(t *testing.T) (*Application, http.Handler) {
	t.Helper()
	cfg := &config.Config{
		Log:               logger.Discard(),
		Client:            client.NewClient(),
		RateLimitRequests: testRateLimit,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1 << 20,
	}
	a := NewApplication(cfg)
	a.healthHandler = http.NotFoundHandler()
	handlers := []contracts.Handler{stubHandler{}}
	a.setWebhookHandler(handlers)
	a.setAppHandler(auth.NewVerifier("test-secret"), handlers)
	t.Cleanup(func() {
		a.rateLimiter.Stop()
		a.idempotencyStore.Stop()
	})
	return a, a.routes()
}

func TestWebhookRoutes_NotRateLimited(t *testing.T) {
	_, mux := newTestApplication(t)

	for i := 0; i < testRateLimit*4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/hooks/gateway", strings.NewReader(`{"id":"evt"}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected status 200, got %d", i+1, rec.Code)
		}
	}
}

func TestAppRoutes_RateLimited(t *testing.T) {
	_, mux := newTestApplication(t)

	codes := map[int]int{}
	for i := 0; i < testRateLimit+3; i++ {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
		codes[rec.Code]++
	}
	if codes[http.StatusOK] != testRateLimit || codes[http.StatusTooManyRequests] != 3 {
		t.Errorf("expected %d allowed and 3 limited, got %v", testRateLimit, codes)
	}
}

func TestWebhookRoutes_NotOnAppRouter(t *testing.T) {
	a, _ := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.appHttpHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/hooks/gateway", strings.NewReader(`{}`)))
	if rec.Code == http.StatusOK {
		t.Errorf("expected webhook route to be served only by the webhook handler")
	}
}

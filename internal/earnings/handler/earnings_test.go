package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gatherly/pkg/auth"
	"gatherly/pkg/logger"
	"gatherly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockEarningsService struct {
	getFunc func(ctx context.Context, actor model.Actor, hostID string, from, to *time.Time) (*model.Earnings, error)
}

func (m *mockEarningsService) GetHostEarnings(ctx context.Context, actor model.Actor, hostID string, from, to *time.Time) (*model.Earnings, error) {
	return m.getFunc(ctx, actor, hostID, from, to)
}

func newRouter(svc *mockEarningsService) *httprouter.Router {
	router := httprouter.New()
	NewEarningsHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestGetHostEarnings_ParsesRange(t *testing.T) {
	svc := &mockEarningsService{
		getFunc: func(_ context.Context, actor model.Actor, hostID string, from, to *time.Time) (*model.Earnings, error) {
			if hostID != "h1" {
				t.Errorf("expected host h1, got %s", hostID)
			}
			if from == nil || from.Month() != time.March {
				t.Errorf("expected from in March, got %v", from)
			}
			if to != nil {
				t.Errorf("expected open upper bound, got %v", to)
			}
			return &model.Earnings{HostID: hostID, TotalRevenue: 1000}, nil
		},
	}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hosts/h1/earnings?from=2026-03-01T00:00:00Z", nil)
	req = req.WithContext(auth.WithActor(req.Context(), model.Actor{ID: "h1"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetHostEarnings_RejectsBadTime(t *testing.T) {
	svc := &mockEarningsService{
		getFunc: func(context.Context, model.Actor, string, *time.Time, *time.Time) (*model.Earnings, error) {
			t.Error("service should not be called")
			return nil, nil
		},
	}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hosts/h1/earnings?to=yesterday", nil)
	req = req.WithContext(auth.WithActor(req.Context(), model.Actor{ID: "h1"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

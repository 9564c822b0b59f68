package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	bookingserrors "gatherly/internal/bookings/errors"
	"gatherly/pkg/auth"
	"gatherly/pkg/logger"
	"gatherly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockBookingService struct {
	createFunc  func(ctx context.Context, actor model.Actor, req *model.BookingCreate) (*model.Booking, error)
	getByIDFunc func(ctx context.Context, actor model.Actor, id string) (*model.Booking, error)
	listFunc    func(ctx context.Context, actor model.Actor, view, status string, limit int, offset int64) ([]*model.Booking, int64, error)
	confirmFunc func(ctx context.Context, actor model.Actor, id string) (*model.Booking, error)
	cancelFunc  func(ctx context.Context, actor model.Actor, id string, req *model.BookingCancel) (*model.Booking, error)
	refundFunc  func(ctx context.Context, actor model.Actor, id string, req *model.RefundRequest) (*model.Booking, error)
}

func (m *mockBookingService) Create(ctx context.Context, actor model.Actor, req *model.BookingCreate) (*model.Booking, error) {
	return m.createFunc(ctx, actor, req)
}

func (m *mockBookingService) GetByID(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	return m.getByIDFunc(ctx, actor, id)
}

func (m *mockBookingService) List(ctx context.Context, actor model.Actor, view, status string, limit int, offset int64) ([]*model.Booking, int64, error) {
	return m.listFunc(ctx, actor, view, status, limit, offset)
}

func (m *mockBookingService) ConfirmBooking(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	return m.confirmFunc(ctx, actor, id)
}

func (m *mockBookingService) Cancel(ctx context.Context, actor model.Actor, id string, req *model.BookingCancel) (*model.Booking, error) {
	return m.cancelFunc(ctx, actor, id, req)
}

func (m *mockBookingService) Refund(ctx context.Context, actor model.Actor, id string, req *model.RefundRequest) (*model.Booking, error) {
	return m.refundFunc(ctx, actor, id, req)
}

func (m *mockBookingService) CreatePaymentIntent(context.Context, model.Actor, *model.PaymentIntentCreate) (*model.PaymentIntentResult, error) {
	panic("not used by the booking handler")
}

func (m *mockBookingService) ConfirmPayment(context.Context, model.Actor, string) (*model.Booking, error) {
	panic("not used by the booking handler")
}

func (m *mockBookingService) ConfirmIntent(context.Context, string) (*model.Booking, error) {
	panic("not used by the booking handler")
}

func (m *mockBookingService) MarkPaymentFailed(context.Context, string, string) error {
	panic("not used by the booking handler")
}

func (m *mockBookingService) MarkDisputed(context.Context, string, string) error {
	panic("not used by the booking handler")
}

func newRouter(svc *mockBookingService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func withActor(r *http.Request, actor model.Actor) *http.Request {
	return r.WithContext(auth.WithActor(r.Context(), actor))
}

func TestCreate_RequiresActor(t *testing.T) {
	router := newRouter(&mockBookingService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestCreate_MapsDuplicateToConflict(t *testing.T) {
	svc := &mockBookingService{
		createFunc: func(_ context.Context, actor model.Actor, req *model.BookingCreate) (*model.Booking, error) {
			if actor.ID != "alice" || req.Quantity != 2 {
				t.Errorf("unexpected call: %s %+v", actor.ID, req)
			}
			return nil, bookingserrors.DuplicateBooking(req.EventID)
		},
	}
	router := newRouter(svc)

	body := `{"event_id":"507f1f77bcf86cd799439011","quantity":2}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body)), model.Actor{ID: "alice"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), bookingserrors.CodeDuplicateBooking) {
		t.Errorf("expected code in body, got %s", rec.Body.String())
	}
}

func TestCreate_ReturnsCreated(t *testing.T) {
	svc := &mockBookingService{
		createFunc: func(_ context.Context, actor model.Actor, req *model.BookingCreate) (*model.Booking, error) {
			return &model.Booking{ID: "b1", UserID: actor.ID, EventID: req.EventID, Status: model.BookingStatusConfirmed}, nil
		},
	}
	router := newRouter(svc)

	body := `{"event_id":"507f1f77bcf86cd799439011","quantity":1}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body)), model.Actor{ID: "alice"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestList_ForwardsViewAndStatus(t *testing.T) {
	var gotView, gotStatus string
	svc := &mockBookingService{
		listFunc: func(_ context.Context, _ model.Actor, view, status string, _ int, _ int64) ([]*model.Booking, int64, error) {
			gotView, gotStatus = view, status
			return []*model.Booking{}, 0, nil
		},
	}
	router := newRouter(svc)

	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/bookings?view=host&status=pending", nil), model.Actor{ID: "host-1"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if gotView != "host" || gotStatus != "pending" {
		t.Errorf("expected host/pending, got %s/%s", gotView, gotStatus)
	}
}

func TestCancel_AcceptsEmptyBody(t *testing.T) {
	var gotReason = "unset"
	svc := &mockBookingService{
		cancelFunc: func(_ context.Context, _ model.Actor, id string, req *model.BookingCancel) (*model.Booking, error) {
			gotReason = req.Reason
			return &model.Booking{ID: id, Status: model.BookingStatusCancelled}, nil
		},
	}
	router := newRouter(svc)

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/bookings/id/b1/cancel", nil), model.Actor{ID: "alice"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotReason != "" {
		t.Errorf("expected empty reason, got %q", gotReason)
	}
}

func TestRefund_ForwardsAmount(t *testing.T) {
	svc := &mockBookingService{
		refundFunc: func(_ context.Context, _ model.Actor, _ string, req *model.RefundRequest) (*model.Booking, error) {
			if req.Amount == nil || *req.Amount != 500 {
				t.Errorf("expected amount 500, got %v", req.Amount)
			}
			return nil, bookingserrors.RefundExceedsAmount(500, 400)
		},
	}
	router := newRouter(svc)

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/bookings/id/b1/refund", strings.NewReader(`{"amount":500}`)), model.Actor{ID: "host-1"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", rec.Code)
	}
}

func TestConfirm_MapsPaymentRequired(t *testing.T) {
	svc := &mockBookingService{
		confirmFunc: func(_ context.Context, _ model.Actor, _ string) (*model.Booking, error) {
			return nil, bookingserrors.PaymentRequired()
		},
	}
	router := newRouter(svc)

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/bookings/id/b1/confirm", nil), model.Actor{ID: "host-1"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("expected status 402, got %d", rec.Code)
	}
}

package repository

import (
	"context"
	"sync"
	"time"

	paymentserrors "gatherly/internal/payments/errors"
	"gatherly/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ PaymentRepository = (*MemoryPaymentRepository)(nil)

// MemoryPaymentRepository mirrors the unique payment_intent_id constraint of
// the Mongo ledger.
type MemoryPaymentRepository struct {
	mu       sync.Mutex
	payments map[string]*model.Payment
}

func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{payments: make(map[string]*model.Payment)}
}

func (r *MemoryPaymentRepository) RecordSuccess(_ context.Context, payment *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := r.payments[payment.PaymentIntentID]
	if ok && existing.Status != model.LedgerStatusFailed {
		return paymentserrors.ErrDuplicate
	}

	payment.Status = model.LedgerStatusSucceeded
	payment.FailureReason = ""
	payment.UpdatedAt = now
	if ok {
		payment.ID = existing.ID
		payment.CreatedAt = existing.CreatedAt
	} else {
		payment.ID = primitive.NewObjectID().Hex()
		payment.CreatedAt = now
	}
	cp := *payment
	r.payments[payment.PaymentIntentID] = &cp
	return nil
}

func (r *MemoryPaymentRepository) RecordFailure(_ context.Context, payment *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := r.payments[payment.PaymentIntentID]
	if ok && existing.Status != model.LedgerStatusFailed {
		return nil
	}

	cp := *payment
	cp.Status = model.LedgerStatusFailed
	cp.UpdatedAt = now
	if ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.ID = primitive.NewObjectID().Hex()
		cp.CreatedAt = now
	}
	r.payments[payment.PaymentIntentID] = &cp
	return nil
}

func (r *MemoryPaymentRepository) RecordRefund(_ context.Context, intentID, refundID string, refundAmount int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[intentID]
	if !ok || payment.RefundID != "" {
		return paymentserrors.ErrNotFound
	}
	payment.RefundID = refundID
	payment.RefundAmount = refundAmount
	payment.Status = status
	payment.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryPaymentRepository) FindByIntentID(_ context.Context, intentID string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[intentID]
	if !ok {
		return nil, paymentserrors.ErrNotFound
	}
	cp := *payment
	return &cp, nil
}

func (r *MemoryPaymentRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payments)
}

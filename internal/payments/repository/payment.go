package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentserrors "gatherly/internal/payments/errors"
	"gatherly/pkg/config"
	mongotx "gatherly/pkg/db/mongo"
	"gatherly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Payments"
)

// PaymentRepository is the append-mostly payment ledger. Records are keyed
// by payment intent; amount and intent are never rewritten once stored.
type PaymentRepository interface {
	// RecordSuccess stores the succeeded payment. A failed record for the
	// same intent is promoted; an existing succeeded record yields
	// ErrDuplicate.
	RecordSuccess(ctx context.Context, payment *model.Payment) error
	// RecordFailure stores a failed attempt unless the intent already
	// succeeded.
	RecordFailure(ctx context.Context, payment *model.Payment) error
	RecordRefund(ctx context.Context, intentID, refundID string, refundAmount int64, status string) error
	FindByIntentID(ctx context.Context, intentID string) (*model.Payment, error)
}

type mongoPaymentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPaymentRepository(cfg *config.Config) PaymentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPaymentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoPaymentRepository) RecordSuccess(ctx context.Context, payment *model.Payment) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	payment.Status = model.LedgerStatusSucceeded
	payment.UpdatedAt = now

	filter := bson.M{
		"payment_intent_id": payment.PaymentIntentID,
		"status":            model.LedgerStatusFailed,
	}
	update := bson.M{
		"$set": bson.M{
			"booking_id": payment.BookingID,
			"event_id":   payment.EventID,
			"user_id":    payment.UserID,
			"host_id":    payment.HostID,
			"amount":     payment.Amount,
			"currency":   payment.Currency,
			"status":     payment.Status,
			"updated_at": now,
		},
		"$unset":       bson.M{"failure_reason": ""},
		"$setOnInsert": bson.M{"created_at": now},
	}

	// The unique index on payment_intent_id turns the upsert into an insert
	// conflict when a succeeded record is already there.
	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return paymentserrors.ErrDuplicate
		}
		return fmt.Errorf("failed to record payment: %w", err)
	}
	if oid, ok := result.UpsertedID.(primitive.ObjectID); ok {
		payment.ID = oid.Hex()
	}
	payment.CreatedAt = now
	return nil
}

func (r *mongoPaymentRepository) RecordFailure(ctx context.Context, payment *model.Payment) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{
		"payment_intent_id": payment.PaymentIntentID,
		"status":            model.LedgerStatusFailed,
	}
	update := bson.M{
		"$set": bson.M{
			"booking_id":     payment.BookingID,
			"event_id":       payment.EventID,
			"user_id":        payment.UserID,
			"host_id":        payment.HostID,
			"amount":         payment.Amount,
			"currency":       payment.Currency,
			"status":         model.LedgerStatusFailed,
			"failure_reason": payment.FailureReason,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}

	if _, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		if mongotx.IsDuplicateKey(err) {
			// Already succeeded or refunded; a late failure does not rewrite it.
			return nil
		}
		return fmt.Errorf("failed to record payment failure: %w", err)
	}
	return nil
}

func (r *mongoPaymentRepository) RecordRefund(ctx context.Context, intentID, refundID string, refundAmount int64, status string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"payment_intent_id": intentID,
		"refund_id":         bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{
		"refund_id":     refundID,
		"refund_amount": refundAmount,
		"status":        status,
		"updated_at":    time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to record refund: %w", err)
	}
	if result.MatchedCount == 0 {
		return paymentserrors.ErrNotFound
	}
	return nil
}

func (r *mongoPaymentRepository) FindByIntentID(ctx context.Context, intentID string) (*model.Payment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var payment model.Payment
	if err := r.collection.FindOne(ctx, bson.M{"payment_intent_id": intentID}).Decode(&payment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, paymentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return &payment, nil
}

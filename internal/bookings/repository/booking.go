package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingserrors "gatherly/internal/bookings/errors"
	"gatherly/pkg/config"
	mongotx "gatherly/pkg/db/mongo"
	"gatherly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"

	// Unique index names, created by cmd/migrate.
	IndexActiveUserEvent = "uniq_active_user_event"
	IndexPaymentIntent   = "uniq_payment_intent"
)

// Transition describes a guarded booking update. The update applies only
// when the booking's status is in FromStatus and, if set, its payment status
// is in FromPaymentStatus. Empty target fields are left unchanged.
type Transition struct {
	FromStatus        []string
	FromPaymentStatus []string

	Status        string
	PaymentStatus string
	// PaymentIntentID is attached only to a booking that has none or already
	// carries the same intent.
	PaymentIntentID string

	RefundID     string
	RefundAmount int64
	RefundReason string
	RefundedAt   *time.Time

	CancelReason string
	CancelledBy  string
	CancelledAt  *time.Time
}

type BookingRepository interface {
	// Create inserts a booking. ErrDuplicateActive or ErrDuplicateIntent
	// report unique index violations.
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByIntentID(ctx context.Context, intentID string) (*model.Booking, error)
	FindActive(ctx context.Context, userID, eventID string) (*model.Booking, error)
	Find(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)
	Apply(ctx context.Context, id string, t Transition) (*model.Booking, error)
	CompleteConfirmedByEvent(ctx context.Context, eventID string) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)

	txManager := mongotx.NewDirectTransactionManager()
	if cfg.MongoTransactions {
		txManager = mongotx.NewTransactionManager(cfg.Client.Mongo)
	}

	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  txManager,
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Active = booking.IsActive()

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if dup := classifyDuplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *mongoBookingRepository) FindByIntentID(ctx context.Context, intentID string) (*model.Booking, error) {
	return r.findOne(ctx, bson.M{"payment_intent_id": intentID})
}

func (r *mongoBookingRepository) FindActive(ctx context.Context, userID, eventID string) (*model.Booking, error) {
	return r.findOne(ctx, bson.M{"user_id": userID, "event_id": eventID, "active": true})
}

func (r *mongoBookingRepository) findOne(ctx context.Context, filter bson.M) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	if err := r.collection.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) Find(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func buildFilter(filter model.BookingFilter) bson.M {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.HostID != "" {
		query["host_id"] = filter.HostID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}

func (r *mongoBookingRepository) Apply(ctx context.Context, id string, t Transition) (*model.Booking, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": objectID, "status": bson.M{"$in": t.FromStatus}}
	if len(t.FromPaymentStatus) > 0 {
		filter["payment_status"] = bson.M{"$in": t.FromPaymentStatus}
	}
	if t.PaymentIntentID != "" {
		filter["$or"] = bson.A{
			bson.M{"payment_intent_id": bson.M{"$exists": false}},
			bson.M{"payment_intent_id": t.PaymentIntentID},
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": transitionSet(t)}, opts).Decode(&booking)
	if err == nil {
		return &booking, nil
	}
	if dup := classifyDuplicate(err); dup != nil {
		return nil, dup
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return nil, fmt.Errorf("failed to check booking existence: %w", err)
	}
	if count == 0 {
		return nil, bookingserrors.ErrNotFound
	}
	return nil, bookingserrors.ErrConditionFailed
}

func transitionSet(t Transition) bson.M {
	set := bson.M{"updated_at": time.Now().UTC()}
	if t.Status != "" {
		set["status"] = t.Status
		set["active"] = model.IsActiveStatus(t.Status)
	}
	if t.PaymentStatus != "" {
		set["payment_status"] = t.PaymentStatus
	}
	if t.PaymentIntentID != "" {
		set["payment_intent_id"] = t.PaymentIntentID
	}
	if t.RefundID != "" {
		set["refund_id"] = t.RefundID
		set["refund_amount"] = t.RefundAmount
		set["refund_reason"] = t.RefundReason
	}
	if t.RefundedAt != nil {
		set["refunded_at"] = *t.RefundedAt
	}
	if t.CancelledAt != nil {
		set["cancelled_at"] = *t.CancelledAt
		set["cancelled_by"] = t.CancelledBy
		set["cancel_reason"] = t.CancelReason
	}
	return set
}

func (r *mongoBookingRepository) CompleteConfirmedByEvent(ctx context.Context, eventID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateMany(ctx,
		bson.M{"event_id": eventID, "status": model.BookingStatusConfirmed},
		bson.M{"$set": bson.M{
			"status":     model.BookingStatusCompleted,
			"active":     true,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to complete bookings: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

// classifyDuplicate maps a unique index violation to the sentinel of the
// index it hit. Non-duplicate errors yield nil.
func classifyDuplicate(err error) error {
	if !mongotx.IsDuplicateKey(err) {
		return nil
	}
	if strings.Contains(err.Error(), IndexPaymentIntent) {
		return bookingserrors.ErrDuplicateIntent
	}
	return bookingserrors.ErrDuplicateActive
}

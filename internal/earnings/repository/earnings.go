package repository

import (
	"context"
	"fmt"
	"time"

	bookingsrepo "gatherly/internal/bookings/repository"
	"gatherly/pkg/config"
	mongotx "gatherly/pkg/db/mongo"
	"gatherly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Range bounds an aggregation on booking creation time. From is inclusive,
// To exclusive; nil leaves that side open.
type Range struct {
	From *time.Time
	To   *time.Time
}

func (r Range) contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && !t.Before(*r.To) {
		return false
	}
	return true
}

// Totals is the raw fold over a host's captured bookings. Revenue and
// Bookings cover paid bookings that were not cancelled; Refunds covers every
// refund issued.
type Totals struct {
	Revenue  int64 `bson:"revenue"`
	Refunds  int64 `bson:"refunds"`
	Bookings int64 `bson:"bookings"`
}

type EarningsRepository interface {
	HostTotals(ctx context.Context, hostID string, rng Range) (Totals, error)
}

// capturedStatuses are the payment states in which money reached the host.
// Refunded bookings are matched only for their refund amount.
var capturedStatuses = []string{model.PaymentStatusPaid, model.PaymentStatusRefunded}

type mongoEarningsRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoEarningsRepository(cfg *config.Config) EarningsRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEarningsRepository{
		cfg:        cfg,
		collection: db.Collection(bookingsrepo.CollectionName),
	}
}

func (r *mongoEarningsRepository) HostTotals(ctx context.Context, hostID string, rng Range) (Totals, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Aggregate(ctx, hostTotalsPipeline(hostID, rng))
	if err != nil {
		return Totals{}, fmt.Errorf("failed to aggregate earnings: %w", err)
	}
	defer cursor.Close(ctx)

	var totals Totals
	if cursor.Next(ctx) {
		if err := cursor.Decode(&totals); err != nil {
			return Totals{}, fmt.Errorf("failed to decode earnings: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return Totals{}, fmt.Errorf("failed to read earnings: %w", err)
	}
	return totals, nil
}

func hostTotalsPipeline(hostID string, rng Range) mongo.Pipeline {
	match := bson.M{
		"host_id":        hostID,
		"payment_status": bson.M{"$in": capturedStatuses},
	}
	created := bson.M{}
	if rng.From != nil {
		created["$gte"] = rng.From.UTC()
	}
	if rng.To != nil {
		created["$lt"] = rng.To.UTC()
	}
	if len(created) > 0 {
		match["created_at"] = created
	}

	earning := bson.M{"$and": bson.A{
		bson.M{"$eq": bson.A{"$payment_status", model.PaymentStatusPaid}},
		bson.M{"$ne": bson.A{"$status", model.BookingStatusCancelled}},
	}}

	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"revenue":  bson.M{"$sum": bson.M{"$cond": bson.A{earning, "$amount", 0}}},
			"refunds":  bson.M{"$sum": bson.M{"$ifNull": bson.A{"$refund_amount", 0}}},
			"bookings": bson.M{"$sum": bson.M{"$cond": bson.A{earning, 1, 0}}},
		}}},
	}
}

// MemoryEarningsRepository folds over a snapshot of bookings with the same
// rules as the aggregation pipeline.
type MemoryEarningsRepository struct {
	bookings func() []*model.Booking
}

func NewMemoryEarningsRepository(bookings func() []*model.Booking) *MemoryEarningsRepository {
	return &MemoryEarningsRepository{bookings: bookings}
}

func (r *MemoryEarningsRepository) HostTotals(_ context.Context, hostID string, rng Range) (Totals, error) {
	var totals Totals
	for _, b := range r.bookings() {
		if b.HostID != hostID || !rng.contains(b.CreatedAt) {
			continue
		}
		if b.PaymentStatus != model.PaymentStatusPaid && b.PaymentStatus != model.PaymentStatusRefunded {
			continue
		}
		totals.Refunds += b.RefundAmount
		if isEarning(b) {
			totals.Revenue += b.Amount
			totals.Bookings++
		}
	}
	return totals, nil
}

func isEarning(b *model.Booking) bool {
	return b.PaymentStatus == model.PaymentStatusPaid && b.Status != model.BookingStatusCancelled
}

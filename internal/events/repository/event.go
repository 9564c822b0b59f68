package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	eventserrors "gatherly/internal/events/errors"
	"gatherly/pkg/config"
	mongotx "gatherly/pkg/db/mongo"
	"gatherly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Events"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	FindByID(ctx context.Context, id string) (*model.Event, error)
	Find(ctx context.Context, filter model.EventFilter, limit int, offset int64) ([]*model.Event, error)
	Count(ctx context.Context, filter model.EventFilter) (int64, error)
	// UpdateStatus moves the event to status only if it is currently in one
	// of from. ErrConditionFailed otherwise.
	UpdateStatus(ctx context.Context, id string, from []string, status string) (*model.Event, error)
	// AdjustParticipants is the only write to current_participants. A
	// positive delta requires the event to be open with room for delta more
	// spots and adds userID to participants; a negative delta removes it.
	// The open/full status follows the new count in the same update.
	AdjustParticipants(ctx context.Context, id, userID string, delta int) (*model.Event, error)
	AddToWaitingList(ctx context.Context, id, userID string) (*model.Event, error)
}

type mongoEventRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoEventRepository(cfg *config.Config) EventRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEventRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoEventRepository) Create(ctx context.Context, event *model.Event) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.Participants == nil {
		event.Participants = []string{}
	}
	if event.WaitingList == nil {
		event.WaitingList = []string{}
	}

	result, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid.Hex()
	}
	return nil
}

func (r *mongoEventRepository) FindByID(ctx context.Context, id string) (*model.Event, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}

	var event model.Event
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&event); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, eventserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}

	return &event, nil
}

func (r *mongoEventRepository) Find(ctx context.Context, filter model.EventFilter, limit int, offset int64) ([]*model.Event, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "starts_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []*model.Event{}
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	return events, nil
}

func (r *mongoEventRepository) Count(ctx context.Context, filter model.EventFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

func buildFilter(filter model.EventFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.HostID != "" {
		query["host_id"] = filter.HostID
	}
	return query
}

func (r *mongoEventRepository) UpdateStatus(ctx context.Context, id string, from []string, status string) (*model.Event, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}}

	return r.findOneAndUpdate(ctx, objectID, filter, update)
}

func (r *mongoEventRepository) AdjustParticipants(ctx context.Context, id, userID string, delta int) (*model.Event, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}
	if delta == 0 {
		return r.FindByID(ctx, id)
	}

	filter := bson.M{"_id": objectID}
	participants := bson.M{"$ifNull": bson.A{"$participants", bson.A{}}}
	var participantsExpr bson.M

	if delta > 0 {
		filter["status"] = model.EventStatusOpen
		filter["$expr"] = bson.M{"$lte": bson.A{
			bson.M{"$add": bson.A{"$current_participants", delta}},
			"$max_participants",
		}}
		participantsExpr = bson.M{"$setUnion": bson.A{participants, bson.A{userID}}}
	} else {
		filter["current_participants"] = bson.M{"$gte": -delta}
		participantsExpr = bson.M{"$setDifference": bson.A{participants, bson.A{userID}}}
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"current_participants": bson.M{"$add": bson.A{"$current_participants", delta}},
			"participants":         participantsExpr,
			"updated_at":           time.Now().UTC(),
		}}},
		{{Key: "$set", Value: bson.M{
			"status": bson.M{"$switch": bson.M{
				"branches": bson.A{
					bson.M{
						"case": bson.M{"$and": bson.A{
							bson.M{"$eq": bson.A{"$status", model.EventStatusOpen}},
							bson.M{"$gte": bson.A{"$current_participants", "$max_participants"}},
						}},
						"then": model.EventStatusFull,
					},
					bson.M{
						"case": bson.M{"$and": bson.A{
							bson.M{"$eq": bson.A{"$status", model.EventStatusFull}},
							bson.M{"$lt": bson.A{"$current_participants", "$max_participants"}},
						}},
						"then": model.EventStatusOpen,
					},
				},
				"default": "$status",
			}},
		}}},
	}

	return r.findOneAndUpdate(ctx, objectID, filter, update)
}

func (r *mongoEventRepository) AddToWaitingList(ctx context.Context, id, userID string) (*model.Event, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": model.EventStatusFull}
	update := bson.M{
		"$addToSet": bson.M{"waiting_list": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}

	return r.findOneAndUpdate(ctx, objectID, filter, update)
}

// findOneAndUpdate applies update and returns the new document. When the
// filter misses it tells a missing event apart from a failed guard.
func (r *mongoEventRepository) findOneAndUpdate(ctx context.Context, objectID primitive.ObjectID, filter any, update any) (*model.Event, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var event model.Event
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&event)
	if err == nil {
		return &event, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return nil, fmt.Errorf("failed to check event existence: %w", err)
	}
	if count == 0 {
		return nil, eventserrors.ErrNotFound
	}
	return nil, eventserrors.ErrConditionFailed
}

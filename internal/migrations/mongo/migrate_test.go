package mongo

import (
	"testing"

	bookingsrepo "gatherly/internal/bookings/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_CoverEveryStore(t *testing.T) {
	defs := Collections()
	for _, name := range []string{"Events", "Bookings", "Payments", "Reviews", "Users", "Event_locks"} {
		def, ok := defs[name]
		require.True(t, ok, "missing collection %s", name)
		assert.NotNil(t, def.Validator, name)
	}
}

func TestBookingsIndexes_BackIdempotency(t *testing.T) {
	byName := map[string]bson.M{}
	for _, idx := range BookingsIndexes {
		if idx.Options == nil || idx.Options.Name == nil {
			continue
		}
		require.NotNil(t, idx.Options.Unique)
		assert.True(t, *idx.Options.Unique)
		partial, ok := idx.Options.PartialFilterExpression.(bson.M)
		require.True(t, ok)
		byName[*idx.Options.Name] = partial
	}

	assert.Equal(t, bson.M{"active": true}, byName[bookingsrepo.IndexActiveUserEvent])
	assert.Equal(t, bson.M{"payment_intent_id": bson.M{"$type": "string"}}, byName[bookingsrepo.IndexPaymentIntent])
}

func TestEventLocksIndexes_Expire(t *testing.T) {
	require.Len(t, EventLocksIndexes, 1)
	opts := EventLocksIndexes[0].Options
	require.NotNil(t, opts.ExpireAfterSeconds)
	assert.Equal(t, int32(0), *opts.ExpireAfterSeconds)
}

package consumer

import (
	"context"
	"errors"
	"testing"

	"gatherly/internal/reviews/repository"
	"gatherly/internal/reviews/service"
	usersrepo "gatherly/internal/users/repository"
	"gatherly/pkg/kafka"
	"gatherly/pkg/logger"
	"gatherly/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewMessage(t *testing.T, event service.ReviewEvent) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey(event.HostID).
		WithEventType(service.EventReviewCreated).
		WithValue(event).
		Build()
	require.NoError(t, err)
	return msg
}

func TestRatingsHandler_RecomputesFromReviews(t *testing.T) {
	ctx := context.Background()
	reviews := repository.NewMemoryReviewRepository()
	users := usersrepo.NewMemoryUserRepository()
	h := NewRatingsHandler(reviews, users, logger.Discard())

	require.NoError(t, reviews.Create(ctx, &model.Review{UserID: "u1", EventID: "e1", HostID: "h1", Rating: 5}))
	require.NoError(t, reviews.Create(ctx, &model.Review{UserID: "u2", EventID: "e1", HostID: "h1", Rating: 3}))

	msg := reviewMessage(t, service.ReviewEvent{HostID: "h1", ReviewID: "r2", Rating: 3})
	require.NoError(t, h.Handle(ctx, msg))
	require.NoError(t, h.Handle(ctx, msg))

	host, err := users.FindByID(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), host.RatingCount)
	assert.InDelta(t, 4.0, host.RatingAverage, 0.001)
}

func TestRatingsHandler_MalformedIsPermanent(t *testing.T) {
	h := NewRatingsHandler(repository.NewMemoryReviewRepository(), usersrepo.NewMemoryUserRepository(), logger.Discard())

	garbage := kafka.Message{
		Value:   []byte("{not json"),
		Headers: map[string]string{kafka.HeaderEventType: service.EventReviewCreated},
	}
	err := h.Handle(context.Background(), garbage)
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))

	noHost := reviewMessage(t, service.ReviewEvent{ReviewID: "r1"})
	err = h.Handle(context.Background(), noHost)
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))
}

func TestRatingsHandler_SkipsOtherEvents(t *testing.T) {
	h := NewRatingsHandler(repository.NewMemoryReviewRepository(), usersrepo.NewMemoryUserRepository(), logger.Discard())

	msg := kafka.Message{Headers: map[string]string{kafka.HeaderEventType: "review.deleted"}}
	assert.NoError(t, h.Handle(context.Background(), msg))
}

type failingStore struct{}

func (failingStore) SetRating(context.Context, string, model.HostRating) error {
	return errors.New("write conflict")
}

func TestRatingsHandler_StoreFailureIsTransient(t *testing.T) {
	h := NewRatingsHandler(repository.NewMemoryReviewRepository(), failingStore{}, logger.Discard())

	err := h.Handle(context.Background(), reviewMessage(t, service.ReviewEvent{HostID: "h1"}))
	assert.Equal(t, kafka.ErrorTypeTransient, kafka.ClassifyError(err))
}

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	eventserrors "gatherly/internal/events/errors"
	"gatherly/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenEvent(t *testing.T, repo *MemoryEventRepository, max int) *model.Event {
	t.Helper()
	event := &model.Event{
		HostID:          "host-1",
		Title:           "Board games",
		StartsAt:        time.Now().Add(48 * time.Hour),
		Price:           1000,
		Currency:        "usd",
		MaxParticipants: max,
		Status:          model.EventStatusOpen,
	}
	require.NoError(t, repo.Create(context.Background(), event))
	return event
}

func TestAdjustParticipants_FlipsFullAndOpen(t *testing.T) {
	repo := NewMemoryEventRepository()
	event := newOpenEvent(t, repo, 2)
	ctx := context.Background()

	updated, err := repo.AdjustParticipants(ctx, event.ID, "alice", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentParticipants)
	assert.Equal(t, model.EventStatusFull, updated.Status)
	assert.Equal(t, []string{"alice"}, updated.Participants)

	updated, err = repo.AdjustParticipants(ctx, event.ID, "alice", -2)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentParticipants)
	assert.Equal(t, model.EventStatusOpen, updated.Status)
	assert.Empty(t, updated.Participants)
}

func TestAdjustParticipants_RejectsOverCapacity(t *testing.T) {
	repo := NewMemoryEventRepository()
	event := newOpenEvent(t, repo, 3)
	ctx := context.Background()

	_, err := repo.AdjustParticipants(ctx, event.ID, "alice", 4)
	assert.ErrorIs(t, err, eventserrors.ErrConditionFailed)

	stored, err := repo.FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CurrentParticipants)
}

func TestAdjustParticipants_RejectsWhenNotOpen(t *testing.T) {
	repo := NewMemoryEventRepository()
	event := newOpenEvent(t, repo, 3)
	ctx := context.Background()

	_, err := repo.UpdateStatus(ctx, event.ID, []string{model.EventStatusOpen}, model.EventStatusCancelled)
	require.NoError(t, err)

	_, err = repo.AdjustParticipants(ctx, event.ID, "alice", 1)
	assert.ErrorIs(t, err, eventserrors.ErrConditionFailed)
}

func TestAdjustParticipants_NeverGoesNegative(t *testing.T) {
	repo := NewMemoryEventRepository()
	event := newOpenEvent(t, repo, 3)

	_, err := repo.AdjustParticipants(context.Background(), event.ID, "alice", -1)
	assert.ErrorIs(t, err, eventserrors.ErrConditionFailed)
}

func TestAdjustParticipants_ConcurrentLastSpot(t *testing.T) {
	repo := NewMemoryEventRepository()
	event := newOpenEvent(t, repo, 1)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for _, user := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			if _, err := repo.AdjustParticipants(ctx, event.ID, user, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(user)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	stored, err := repo.FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentParticipants)
	assert.Equal(t, model.EventStatusFull, stored.Status)
}

func TestFindByID_Errors(t *testing.T) {
	repo := NewMemoryEventRepository()

	_, err := repo.FindByID(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, eventserrors.ErrInvalidID)

	_, err = repo.FindByID(context.Background(), "507f1f77bcf86cd799439011")
	assert.ErrorIs(t, err, eventserrors.ErrNotFound)
}

func TestAddToWaitingList_OnlyWhenFull(t *testing.T) {
	repo := NewMemoryEventRepository()
	event := newOpenEvent(t, repo, 1)
	ctx := context.Background()

	_, err := repo.AddToWaitingList(ctx, event.ID, "bob")
	assert.ErrorIs(t, err, eventserrors.ErrConditionFailed)

	_, err = repo.AdjustParticipants(ctx, event.ID, "alice", 1)
	require.NoError(t, err)

	updated, err := repo.AddToWaitingList(ctx, event.ID, "bob")
	require.NoError(t, err)
	updated, err = repo.AddToWaitingList(ctx, event.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, updated.WaitingList)
}

func TestFind_PaginatesByStartTime(t *testing.T) {
	repo := NewMemoryEventRepository()
	ctx := context.Background()
	base := time.Now().Add(24 * time.Hour)
	for i := 3; i >= 1; i-- {
		require.NoError(t, repo.Create(ctx, &model.Event{
			HostID:          "host-1",
			Title:           "Event",
			StartsAt:        base.Add(time.Duration(i) * time.Hour),
			Currency:        "usd",
			MaxParticipants: 5,
			Status:          model.EventStatusOpen,
		}))
	}

	page, err := repo.Find(ctx, model.EventFilter{HostID: "host-1"}, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].StartsAt.Before(page[1].StartsAt))

	count, err := repo.Count(ctx, model.EventFilter{Status: model.EventStatusDraft})
	require.NoError(t, err)
	assert.Zero(t, count)
}

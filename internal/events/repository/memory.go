package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	eventserrors "gatherly/internal/events/errors"
	"gatherly/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ EventRepository = (*MemoryEventRepository)(nil)

// MemoryEventRepository keeps events in process. It applies the same guards
// as the Mongo repository and is used by tests of the booking engine.
type MemoryEventRepository struct {
	mu     sync.Mutex
	events map[string]*model.Event
}

func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{events: make(map[string]*model.Event)}
}

func (r *MemoryEventRepository) Create(_ context.Context, event *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.ID == "" {
		event.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.Participants == nil {
		event.Participants = []string{}
	}
	if event.WaitingList == nil {
		event.WaitingList = []string{}
	}
	r.events[event.ID] = clone(event)
	return nil
}

func (r *MemoryEventRepository) FindByID(_ context.Context, id string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}
	event, ok := r.events[id]
	if !ok {
		return nil, eventserrors.ErrNotFound
	}
	return clone(event), nil
}

func (r *MemoryEventRepository) Find(_ context.Context, filter model.EventFilter, limit int, offset int64) ([]*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := r.match(filter)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].StartsAt.Equal(matched[j].StartsAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].StartsAt.Before(matched[j].StartsAt)
	})

	if offset >= int64(len(matched)) {
		return []*model.Event{}, nil
	}
	end := min(int(offset)+limit, len(matched))
	return matched[offset:end], nil
}

func (r *MemoryEventRepository) Count(_ context.Context, filter model.EventFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.match(filter))), nil
}

func (r *MemoryEventRepository) match(filter model.EventFilter) []*model.Event {
	out := []*model.Event{}
	for _, e := range r.events {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.HostID != "" && e.HostID != filter.HostID {
			continue
		}
		out = append(out, clone(e))
	}
	return out
}

func (r *MemoryEventRepository) UpdateStatus(_ context.Context, id string, from []string, status string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(from, event.Status) {
		return nil, eventserrors.ErrConditionFailed
	}
	event.Status = status
	event.UpdatedAt = time.Now().UTC()
	return clone(event), nil
}

func (r *MemoryEventRepository) AdjustParticipants(_ context.Context, id, userID string, delta int) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, err := r.get(id)
	if err != nil {
		return nil, err
	}

	switch {
	case delta > 0:
		if event.Status != model.EventStatusOpen || event.CurrentParticipants+delta > event.MaxParticipants {
			return nil, eventserrors.ErrConditionFailed
		}
		if !slices.Contains(event.Participants, userID) {
			event.Participants = append(event.Participants, userID)
		}
	case delta < 0:
		if event.CurrentParticipants < -delta {
			return nil, eventserrors.ErrConditionFailed
		}
		event.Participants = slices.DeleteFunc(event.Participants, func(p string) bool { return p == userID })
	}

	event.CurrentParticipants += delta
	switch {
	case event.Status == model.EventStatusOpen && event.CurrentParticipants >= event.MaxParticipants:
		event.Status = model.EventStatusFull
	case event.Status == model.EventStatusFull && event.CurrentParticipants < event.MaxParticipants:
		event.Status = model.EventStatusOpen
	}
	event.UpdatedAt = time.Now().UTC()

	return clone(event), nil
}

func (r *MemoryEventRepository) AddToWaitingList(_ context.Context, id, userID string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if event.Status != model.EventStatusFull {
		return nil, eventserrors.ErrConditionFailed
	}
	if !slices.Contains(event.WaitingList, userID) {
		event.WaitingList = append(event.WaitingList, userID)
	}
	return clone(event), nil
}

func (r *MemoryEventRepository) get(id string) (*model.Event, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}
	event, ok := r.events[id]
	if !ok {
		return nil, eventserrors.ErrNotFound
	}
	return event, nil
}

func clone(e *model.Event) *model.Event {
	cp := *e
	cp.Participants = slices.Clone(e.Participants)
	cp.WaitingList = slices.Clone(e.WaitingList)
	return &cp
}

package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	userserrors "gatherly/internal/users/errors"
	"gatherly/pkg/model"
)

var _ UserRepository = (*MemoryUserRepository)(nil)

type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*model.User)}
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	cp := *user
	cp.JoinedEvents = slices.Clone(user.JoinedEvents)
	return &cp, nil
}

func (r *MemoryUserRepository) AddJoinedEvent(_ context.Context, userID, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.getOrCreate(userID)
	if !slices.Contains(user.JoinedEvents, eventID) {
		user.JoinedEvents = append(user.JoinedEvents, eventID)
	}
	return nil
}

func (r *MemoryUserRepository) RemoveJoinedEvent(_ context.Context, userID, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.getOrCreate(userID)
	user.JoinedEvents = slices.DeleteFunc(user.JoinedEvents, func(e string) bool { return e == eventID })
	return nil
}

func (r *MemoryUserRepository) SetRating(_ context.Context, userID string, rating model.HostRating) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.getOrCreate(userID)
	user.RatingAverage = rating.Average
	user.RatingCount = rating.Count
	return nil
}

func (r *MemoryUserRepository) getOrCreate(id string) *model.User {
	user, ok := r.users[id]
	if !ok {
		user = &model.User{ID: id, JoinedEvents: []string{}}
		r.users[id] = user
	}
	user.UpdatedAt = time.Now().UTC()
	return user
}

package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	reviewserrors "gatherly/internal/reviews/errors"
	"gatherly/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ ReviewRepository = (*MemoryReviewRepository)(nil)

type MemoryReviewRepository struct {
	mu      sync.Mutex
	reviews []*model.Review
}

func NewMemoryReviewRepository() *MemoryReviewRepository {
	return &MemoryReviewRepository{}
}

func (r *MemoryReviewRepository) Create(_ context.Context, review *model.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.reviews {
		if existing.UserID == review.UserID && existing.EventID == review.EventID {
			return reviewserrors.ErrDuplicate
		}
	}

	review.ID = primitive.NewObjectID().Hex()
	review.CreatedAt = time.Now().UTC()
	cp := *review
	r.reviews = append(r.reviews, &cp)
	return nil
}

func (r *MemoryReviewRepository) byHost(hostID string) []*model.Review {
	out := []*model.Review{}
	for _, review := range r.reviews {
		if review.HostID == hostID {
			cp := *review
			out = append(out, &cp)
		}
	}
	return out
}

func (r *MemoryReviewRepository) ListByHost(_ context.Context, hostID string, limit int, offset int64) ([]*model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := r.byHost(hostID)
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if offset >= int64(len(matched)) {
		return []*model.Review{}, nil
	}
	end := min(int(offset)+limit, len(matched))
	return matched[offset:end], nil
}

func (r *MemoryReviewRepository) CountByHost(_ context.Context, hostID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byHost(hostID))), nil
}

func (r *MemoryReviewRepository) HostRating(_ context.Context, hostID string) (model.HostRating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rating model.HostRating
	var sum int
	for _, review := range r.byHost(hostID) {
		sum += review.Rating
		rating.Count++
	}
	if rating.Count > 0 {
		rating.Average = float64(sum) / float64(rating.Count)
	}
	return rating, nil
}

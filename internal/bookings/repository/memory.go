package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	bookingserrors "gatherly/internal/bookings/errors"
	mongotx "gatherly/pkg/db/mongo"
	"gatherly/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ BookingRepository   = (*MemoryBookingRepository)(nil)
	_ EventLockRepository = (*MemoryEventLockRepository)(nil)
)

// MemoryBookingRepository enforces the same unique indexes and guarded
// updates as the Mongo repository.
type MemoryBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{bookings: make(map[string]*model.Booking)}
}

func (r *MemoryBookingRepository) Create(_ context.Context, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking.Active = booking.IsActive()
	if err := r.checkUnique("", booking.UserID, booking.EventID, booking.Active, booking.IntentID()); err != nil {
		return err
	}

	now := time.Now().UTC()
	booking.ID = primitive.NewObjectID().Hex()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	r.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *MemoryBookingRepository) checkUnique(selfID, userID, eventID string, active bool, intentID string) error {
	for id, b := range r.bookings {
		if id == selfID {
			continue
		}
		if intentID != "" && b.IntentID() == intentID {
			return bookingserrors.ErrDuplicateIntent
		}
		if active && b.Active && b.UserID == userID && b.EventID == eventID {
			return bookingserrors.ErrDuplicateActive
		}
	}
	return nil
}

func (r *MemoryBookingRepository) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *MemoryBookingRepository) FindByIntentID(_ context.Context, intentID string) (*model.Booking, error) {
	return r.findFirst(func(b *model.Booking) bool { return b.IntentID() == intentID })
}

func (r *MemoryBookingRepository) FindActive(_ context.Context, userID, eventID string) (*model.Booking, error) {
	return r.findFirst(func(b *model.Booking) bool {
		return b.Active && b.UserID == userID && b.EventID == eventID
	})
}

func (r *MemoryBookingRepository) findFirst(match func(*model.Booking) bool) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bookings {
		if match(b) {
			return cloneBooking(b), nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

func (r *MemoryBookingRepository) Find(_ context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := r.match(filter)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= int64(len(matched)) {
		return []*model.Booking{}, nil
	}
	end := min(int(offset)+limit, len(matched))
	return matched[offset:end], nil
}

func (r *MemoryBookingRepository) Count(_ context.Context, filter model.BookingFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.match(filter))), nil
}

func (r *MemoryBookingRepository) match(filter model.BookingFilter) []*model.Booking {
	out := []*model.Booking{}
	for _, b := range r.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.HostID != "" && b.HostID != filter.HostID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	return out
}

func (r *MemoryBookingRepository) Apply(_ context.Context, id string, t Transition) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if !slices.Contains(t.FromStatus, b.Status) {
		return nil, bookingserrors.ErrConditionFailed
	}
	if len(t.FromPaymentStatus) > 0 && !slices.Contains(t.FromPaymentStatus, b.PaymentStatus) {
		return nil, bookingserrors.ErrConditionFailed
	}
	if t.PaymentIntentID != "" && b.IntentID() != "" && b.IntentID() != t.PaymentIntentID {
		return nil, bookingserrors.ErrConditionFailed
	}

	next := cloneBooking(b)
	if t.Status != "" {
		next.Status = t.Status
		next.Active = model.IsActiveStatus(t.Status)
	}
	if t.PaymentStatus != "" {
		next.PaymentStatus = t.PaymentStatus
	}
	if t.PaymentIntentID != "" {
		intent := t.PaymentIntentID
		next.PaymentIntentID = &intent
	}
	if t.RefundID != "" {
		next.RefundID = t.RefundID
		next.RefundAmount = t.RefundAmount
		next.RefundReason = t.RefundReason
	}
	if t.RefundedAt != nil {
		next.RefundedAt = t.RefundedAt
	}
	if t.CancelledAt != nil {
		next.CancelledAt = t.CancelledAt
		next.CancelledBy = t.CancelledBy
		next.CancelReason = t.CancelReason
	}

	if err := r.checkUnique(id, next.UserID, next.EventID, next.Active, next.IntentID()); err != nil {
		return nil, err
	}

	next.UpdatedAt = time.Now().UTC()
	r.bookings[id] = next
	return cloneBooking(next), nil
}

func (r *MemoryBookingRepository) CompleteConfirmedByEvent(_ context.Context, eventID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, b := range r.bookings {
		if b.EventID == eventID && b.Status == model.BookingStatusConfirmed {
			b.Status = model.BookingStatusCompleted
			b.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

func (r *MemoryBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

// All returns every stored booking.
func (r *MemoryBookingRepository) All() []*model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		out = append(out, cloneBooking(b))
	}
	return out
}

func cloneBooking(b *model.Booking) *model.Booking {
	cp := *b
	if b.PaymentIntentID != nil {
		intent := *b.PaymentIntentID
		cp.PaymentIntentID = &intent
	}
	return &cp
}

type MemoryEventLockRepository struct {
	mu    sync.Mutex
	locks map[string]model.EventLock
}

func NewMemoryEventLockRepository() *MemoryEventLockRepository {
	return &MemoryEventLockRepository{locks: make(map[string]model.EventLock)}
}

func (r *MemoryEventLockRepository) Acquire(_ context.Context, lock *model.EventLock) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if held, ok := r.locks[lock.ID]; ok && held.ExpiresAt.After(now) {
		return bookingserrors.ErrLockHeld
	}
	lock.CreatedAt = now
	r.locks[lock.ID] = *lock
	return nil
}

func (r *MemoryEventLockRepository) Release(_ context.Context, lockID, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if held, ok := r.locks[lockID]; ok && held.Owner == owner {
		delete(r.locks, lockID)
	}
	return nil
}

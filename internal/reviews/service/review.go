package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "gatherly/internal/bookings/errors"
	reviewserrors "gatherly/internal/reviews/errors"
	"gatherly/internal/reviews/repository"
	"gatherly/internal/reviews/validator"
	"gatherly/pkg/config"
	apperrors "gatherly/pkg/errors"
	"gatherly/pkg/kafka"
	"gatherly/pkg/model"
	"gatherly/pkg/sanitizer"
	"gatherly/pkg/validation"
)

type ReviewService interface {
	Create(ctx context.Context, actor model.Actor, req *model.ReviewCreate) (*model.Review, error)
	ListByHost(ctx context.Context, hostID string, limit int, offset int64) ([]*model.Review, int64, error)
}

// AttendanceLookup finds the booking that entitles a user to review an
// event. Satisfied by the bookings repository.
type AttendanceLookup interface {
	FindActive(ctx context.Context, userID, eventID string) (*model.Booking, error)
}

type reviewService struct {
	repo       repository.ReviewRepository
	attendance AttendanceLookup
	publisher  kafka.Publisher
	validator  *validator.ReviewValidator
	cfg        *config.Config
	now        func() time.Time
}

func NewReviewService(
	repo repository.ReviewRepository,
	attendance AttendanceLookup,
	publisher kafka.Publisher,
	validator *validator.ReviewValidator,
	cfg *config.Config,
) ReviewService {
	if publisher == nil {
		publisher = kafka.NoopPublisher{}
	}
	return &reviewService{
		repo:       repo,
		attendance: attendance,
		publisher:  publisher,
		validator:  validator,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Create stores the actor's review of an event they attended. The host is
// taken from the booking, so a review can never be attributed to another host.
func (s *reviewService) Create(ctx context.Context, actor model.Actor, req *model.ReviewCreate) (*model.Review, error) {
	req.EventID = sanitizer.NormalizeID(req.EventID)
	req.Comment = sanitizer.NormalizeFreeText(req.Comment)

	if err := s.validator.ValidateCreate(req); err != nil {
		s.cfg.Log.Warn("Review validation failed",
			"user_id", actor.ID,
			"event_id", req.EventID,
			"error", err,
		)
		return nil, validation.ToAppError("Review validation failed", err)
	}

	booking, err := s.attendance.FindActive(ctx, actor.ID, req.EventID)
	if err != nil || !booking.IsCounted() {
		if err != nil && !errors.Is(err, bookingserrors.ErrNotFound) {
			s.cfg.Log.Error("Failed to look up attendance",
				"user_id", actor.ID,
				"event_id", req.EventID,
				"error", err,
			)
			return nil, apperrors.Internal("Failed to create review", err)
		}
		return nil, reviewserrors.ReviewNotAllowed(req.EventID)
	}

	review := &model.Review{
		EventID: req.EventID,
		HostID:  booking.HostID,
		UserID:  actor.ID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, reviewserrors.ErrDuplicate) {
			return nil, reviewserrors.DuplicateReview(req.EventID)
		}
		s.cfg.Log.Error("Failed to create review",
			"user_id", actor.ID,
			"event_id", req.EventID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create review", err)
	}

	s.cfg.Log.Info("Review created",
		"review_id", review.ID,
		"event_id", review.EventID,
		"host_id", review.HostID,
		"rating", review.Rating,
	)
	s.publish(ctx, review)
	return review, nil
}

func (s *reviewService) ListByHost(ctx context.Context, hostID string, limit int, offset int64) ([]*model.Review, int64, error) {
	hostID = sanitizer.NormalizeID(hostID)
	if hostID == "" {
		return nil, 0, apperrors.InvalidInput("host id is required")
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var (
		wg       sync.WaitGroup
		reviews  []*model.Review
		total    int64
		findErr  error
		countErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		reviews, findErr = s.repo.ListByHost(ctx, hostID, limit, offset)
	}()
	go func() {
		defer wg.Done()
		total, countErr = s.repo.CountByHost(ctx, hostID)
	}()
	wg.Wait()

	if err := errors.Join(findErr, countErr); err != nil {
		s.cfg.Log.Error("Failed to list reviews",
			"host_id", hostID,
			"error", err,
		)
		return nil, 0, apperrors.Internal("Failed to list reviews", err)
	}
	return reviews, total, nil
}

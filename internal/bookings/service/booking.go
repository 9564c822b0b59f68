package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	bookingserrors "gatherly/internal/bookings/errors"
	"gatherly/internal/bookings/repository"
	"gatherly/internal/bookings/validator"
	eventserrors "gatherly/internal/events/errors"
	eventsrepo "gatherly/internal/events/repository"
	"gatherly/internal/payments/gateway"
	paymentsrepo "gatherly/internal/payments/repository"
	usersrepo "gatherly/internal/users/repository"
	"gatherly/pkg/config"
	apperrors "gatherly/pkg/errors"
	"gatherly/pkg/kafka"
	"gatherly/pkg/model"
	"gatherly/pkg/sanitizer"
	"gatherly/pkg/validation"
)

type BookingService interface {
	Create(ctx context.Context, actor model.Actor, req *model.BookingCreate) (*model.Booking, error)
	GetByID(ctx context.Context, actor model.Actor, id string) (*model.Booking, error)
	List(ctx context.Context, actor model.Actor, view, status string, limit int, offset int64) ([]*model.Booking, int64, error)
	ConfirmBooking(ctx context.Context, actor model.Actor, id string) (*model.Booking, error)
	Cancel(ctx context.Context, actor model.Actor, id string, req *model.BookingCancel) (*model.Booking, error)
	Refund(ctx context.Context, actor model.Actor, id string, req *model.RefundRequest) (*model.Booking, error)

	CreatePaymentIntent(ctx context.Context, actor model.Actor, req *model.PaymentIntentCreate) (*model.PaymentIntentResult, error)
	// ConfirmPayment is the client-triggered confirmation. The caller must
	// be the paying user or an admin.
	ConfirmPayment(ctx context.Context, actor model.Actor, intentID string) (*model.Booking, error)
	// ConfirmIntent is the webhook-triggered confirmation.
	ConfirmIntent(ctx context.Context, intentID string) (*model.Booking, error)
	MarkPaymentFailed(ctx context.Context, intentID, reason string) error
	MarkDisputed(ctx context.Context, intentID, reason string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	locks     repository.EventLockRepository
	events    eventsrepo.EventRepository
	users     usersrepo.UserRepository
	payments  paymentsrepo.PaymentRepository
	gateway   gateway.Gateway
	publisher kafka.Publisher
	validator *validator.BookingValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	locks repository.EventLockRepository,
	events eventsrepo.EventRepository,
	users usersrepo.UserRepository,
	payments paymentsrepo.PaymentRepository,
	gw gateway.Gateway,
	publisher kafka.Publisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = kafka.NoopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		locks:     locks,
		events:    events,
		users:     users,
		payments:  payments,
		gateway:   gw,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, actor model.Actor, req *model.BookingCreate) (*model.Booking, error) {
	req.EventID = sanitizer.NormalizeID(req.EventID)
	req.SpecialRequests = sanitizer.NormalizeFreeText(req.SpecialRequests)

	if err := s.validator.ValidateCreate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed",
			"user_id", actor.ID,
			"event_id", req.EventID,
			"error", err,
		)
		return nil, validation.ToAppError("Booking validation failed", err)
	}

	event, err := s.bookableEvent(ctx, actor, req.EventID, req.Quantity, false)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		UserID:          actor.ID,
		EventID:         event.ID,
		HostID:          event.HostID,
		Quantity:        req.Quantity,
		Amount:          event.Price * int64(req.Quantity),
		Currency:        event.Currency,
		Status:          model.BookingStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		SpecialRequests: req.SpecialRequests,
	}

	if !event.IsFree() {
		if err := s.repo.Create(ctx, booking); err != nil {
			return nil, s.mapCreateError(err, event.ID)
		}
		s.cfg.Log.Info("Booking created",
			"booking_id", booking.ID,
			"event_id", booking.EventID,
			"user_id", booking.UserID,
			"amount", booking.Amount,
		)
		s.publish(ctx, EventBookingCreated, booking, "")
		return booking, nil
	}

	booking.Status = model.BookingStatusConfirmed
	booking.PaymentStatus = model.PaymentStatusPaid

	err = s.withEventLock(ctx, event.ID, func(ctx context.Context) error {
		if _, err := s.repo.FindActive(ctx, actor.ID, event.ID); err == nil {
			return bookingserrors.DuplicateBooking(event.ID)
		} else if !errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.Internal("Failed to check existing bookings", err)
		}

		if err := s.reserve(ctx, event.ID, actor.ID, booking.Quantity); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, booking); err != nil {
			s.release(ctx, event.ID, actor.ID, booking.Quantity)
			return s.mapCreateError(err, event.ID)
		}
		s.syncJoined(ctx, actor.ID, event.ID, true)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Free booking confirmed",
		"booking_id", booking.ID,
		"event_id", booking.EventID,
		"user_id", booking.UserID,
		"quantity", booking.Quantity,
	)
	s.publish(ctx, EventBookingConfirmed, booking, "")
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if Resolve(actor, booking) == CapabilityNone {
		return nil, bookingserrors.AccessDenied()
	}
	return booking, nil
}

var bookingStatuses = []string{
	model.BookingStatusPending,
	model.BookingStatusConfirmed,
	model.BookingStatusCancelled,
	model.BookingStatusCompleted,
	model.BookingStatusRefunded,
	model.BookingStatusDisputed,
}

func (s *bookingService) List(ctx context.Context, actor model.Actor, view, status string, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	if status != "" && !slices.Contains(bookingStatuses, status) {
		return nil, 0, apperrors.InvalidInput("Unknown booking status: " + status)
	}

	filter := model.BookingFilter{Status: status}
	switch view {
	case "", model.BookingViewAttendee:
		filter.UserID = actor.ID
	case model.BookingViewHost:
		filter.HostID = actor.ID
	case model.BookingViewAll:
		if !actor.IsAdmin() {
			return nil, 0, bookingserrors.AccessDenied()
		}
	default:
		return nil, 0, apperrors.InvalidInput("view must be one of attendee, host, all")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.Find(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) ConfirmBooking(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Resolve(actor, booking).canManage() {
		return nil, bookingserrors.AccessDenied()
	}

	var updated *model.Booking
	err = s.withEventLock(ctx, booking.EventID, func(ctx context.Context) error {
		current, err := s.getBooking(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != model.BookingStatusPending {
			return bookingserrors.InvalidState(current.Status, "confirm")
		}
		if current.PaymentStatus != model.PaymentStatusPaid {
			return bookingserrors.PaymentRequired()
		}

		if err := s.reserve(ctx, current.EventID, current.UserID, current.Quantity); err != nil {
			return err
		}
		updated, err = s.repo.Apply(ctx, current.ID, repository.Transition{
			FromStatus:        []string{model.BookingStatusPending},
			FromPaymentStatus: []string{model.PaymentStatusPaid},
			Status:            model.BookingStatusConfirmed,
		})
		if err != nil {
			s.release(ctx, current.EventID, current.UserID, current.Quantity)
			return s.mapTransitionError(ctx, err, current.ID, "confirm")
		}
		s.syncJoined(ctx, current.UserID, current.EventID, true)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking confirmed by host",
		"booking_id", updated.ID,
		"event_id", updated.EventID,
		"actor_id", actor.ID,
	)
	s.publish(ctx, EventBookingConfirmed, updated, "")
	return updated, nil
}

func (s *bookingService) Cancel(ctx context.Context, actor model.Actor, id string, req *model.BookingCancel) (*model.Booking, error) {
	if req == nil {
		req = &model.BookingCancel{}
	}
	req.Reason = sanitizer.NormalizeReason(req.Reason)
	if err := s.validator.ValidateCancel(req); err != nil {
		return nil, validation.ToAppError("Cancellation validation failed", err)
	}

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if Resolve(actor, booking) == CapabilityNone {
		return nil, bookingserrors.AccessDenied()
	}

	now := s.now().UTC()
	var updated *model.Booking
	err = s.withEventLock(ctx, booking.EventID, func(ctx context.Context) error {
		current, err := s.getBooking(ctx, id)
		if err != nil {
			return err
		}
		switch current.Status {
		case model.BookingStatusCancelled:
			return bookingserrors.AlreadyCancelled()
		case model.BookingStatusPending, model.BookingStatusConfirmed:
		default:
			return bookingserrors.InvalidState(current.Status, "cancel")
		}

		updated, err = s.repo.Apply(ctx, current.ID, repository.Transition{
			FromStatus:   []string{current.Status},
			Status:       model.BookingStatusCancelled,
			CancelReason: req.Reason,
			CancelledBy:  actor.ID,
			CancelledAt:  &now,
		})
		if err != nil {
			return s.mapTransitionError(ctx, err, current.ID, "cancel")
		}

		if current.IsCounted() {
			if err := s.release(ctx, current.EventID, current.UserID, current.Quantity); err != nil {
				return err
			}
			s.syncJoined(ctx, current.UserID, current.EventID, false)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking cancelled",
		"booking_id", updated.ID,
		"event_id", updated.EventID,
		"actor_id", actor.ID,
		"capability", Resolve(actor, updated).String(),
	)
	s.publish(ctx, EventBookingCancelled, updated, req.Reason)
	return updated, nil
}

// bookableEvent loads the event and checks the availability preconditions
// shared by createBooking and createPaymentIntent.
func (s *bookingService) bookableEvent(ctx context.Context, actor model.Actor, eventID string, quantity int, forIntent bool) (*model.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, s.mapEventError(err, eventID)
	}

	if event.HostID == actor.ID {
		return nil, bookingserrors.AccessDenied()
	}
	if event.HasStarted(s.now()) {
		return nil, eventserrors.EventPast()
	}
	switch event.Status {
	case model.EventStatusOpen:
	case model.EventStatusFull:
		return nil, eventserrors.EventFull(0)
	default:
		return nil, eventserrors.EventNotOpen(event.Status)
	}

	if available := event.AvailableSpots(); quantity > available {
		if forIntent {
			return nil, eventserrors.InsufficientCapacity(quantity, available)
		}
		return nil, eventserrors.EventFull(available)
	}
	return event, nil
}

// reserve takes quantity spots of the event for userID. It is the only
// place spots are taken.
func (s *bookingService) reserve(ctx context.Context, eventID, userID string, quantity int) error {
	_, err := s.events.AdjustParticipants(ctx, eventID, userID, quantity)
	if err == nil {
		return nil
	}
	if !errors.Is(err, eventserrors.ErrConditionFailed) {
		return s.mapEventError(err, eventID)
	}

	current, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return s.mapEventError(err, eventID)
	}
	return capacityError(current)
}

// release gives back quantity spots of the event.
func (s *bookingService) release(ctx context.Context, eventID, userID string, quantity int) error {
	if _, err := s.events.AdjustParticipants(ctx, eventID, userID, -quantity); err != nil {
		s.cfg.Log.Error("Failed to release event capacity",
			"event_id", eventID,
			"user_id", userID,
			"quantity", quantity,
			"error", err,
		)
		return apperrors.Internal("Failed to release event capacity", err)
	}
	return nil
}

func capacityError(event *model.Event) error {
	switch event.Status {
	case model.EventStatusOpen, model.EventStatusFull:
		return eventserrors.EventFull(event.AvailableSpots())
	default:
		return eventserrors.EventNotOpen(event.Status)
	}
}

// syncJoined keeps the user's joined events projection in step. Failures
// are logged; the booking is the source of truth.
func (s *bookingService) syncJoined(ctx context.Context, userID, eventID string, joined bool) {
	var err error
	if joined {
		err = s.users.AddJoinedEvent(ctx, userID, eventID)
	} else {
		err = s.users.RemoveJoinedEvent(ctx, userID, eventID)
	}
	if err != nil {
		s.cfg.Log.Warn("Failed to update joined events",
			"user_id", userID,
			"event_id", eventID,
			"joined", joined,
			"error", err,
		)
	}
}

func (s *bookingService) getBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, bookingserrors.BookingNotFound(id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		s.cfg.Log.Error("Failed to retrieve booking", "booking_id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) mapCreateError(err error, eventID string) error {
	if errors.Is(err, bookingserrors.ErrDuplicateActive) {
		return bookingserrors.DuplicateBooking(eventID)
	}
	s.cfg.Log.Error("Failed to create booking", "event_id", eventID, "error", err)
	return apperrors.Internal("Failed to create booking", err)
}

// mapTransitionError reports a failed guarded update with the booking's
// status as it is now.
func (s *bookingService) mapTransitionError(ctx context.Context, err error, id, operation string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return bookingserrors.BookingNotFound(id)
	case errors.Is(err, bookingserrors.ErrConditionFailed):
		current, findErr := s.repo.FindByID(ctx, id)
		if findErr != nil {
			return bookingserrors.InvalidState("unknown", operation)
		}
		return bookingserrors.InvalidState(current.Status, operation)
	case errors.Is(err, bookingserrors.ErrDuplicateActive):
		return apperrors.Conflict("Booking conflicts with another active booking")
	default:
		s.cfg.Log.Error("Failed to update booking",
			"booking_id", id,
			"operation", operation,
			"error", err,
		)
		return apperrors.Internal("Failed to update booking", err)
	}
}

func (s *bookingService) mapEventError(err error, eventID string) error {
	if errors.Is(err, eventserrors.ErrNotFound) {
		return eventserrors.EventNotFound(eventID)
	}
	if errors.Is(err, eventserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid event ID format")
	}
	if errors.Is(err, eventserrors.ErrConditionFailed) {
		return eventserrors.EventNotOpen("unknown")
	}
	s.cfg.Log.Error("Failed to access event", "event_id", eventID, "error", err)
	return apperrors.Internal("Failed to access event", err)
}

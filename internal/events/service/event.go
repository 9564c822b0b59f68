package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	eventserrors "gatherly/internal/events/errors"
	"gatherly/internal/events/repository"
	"gatherly/internal/events/validator"
	"gatherly/pkg/config"
	apperrors "gatherly/pkg/errors"
	"gatherly/pkg/model"
	"gatherly/pkg/sanitizer"
	"gatherly/pkg/validation"
)

type EventService interface {
	Create(ctx context.Context, actor model.Actor, req *model.EventCreate) (*model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, filter model.EventFilter, limit int, offset int64) ([]*model.Event, int64, error)
	UpdateStatus(ctx context.Context, actor model.Actor, id string, status string) (*model.Event, error)
	JoinWaitingList(ctx context.Context, actor model.Actor, id string) (*model.Event, error)
}

// BookingCompleter moves the confirmed bookings of a completed event to
// completed.
type BookingCompleter interface {
	CompleteConfirmedByEvent(ctx context.Context, eventID string) (int64, error)
}

// allowedFrom lists, per target status, the statuses an event may leave.
var allowedFrom = map[string][]string{
	model.EventStatusOpen:      {model.EventStatusDraft},
	model.EventStatusCancelled: {model.EventStatusOpen, model.EventStatusFull},
	model.EventStatusCompleted: {model.EventStatusOpen, model.EventStatusFull},
}

type eventService struct {
	repo      repository.EventRepository
	validator *validator.EventValidator
	completer BookingCompleter
	cfg       *config.Config
	now       func() time.Time
}

func NewEventService(
	repo repository.EventRepository,
	validator *validator.EventValidator,
	completer BookingCompleter,
	cfg *config.Config,
) EventService {
	return &eventService{
		repo:      repo,
		validator: validator,
		completer: completer,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *eventService) Create(ctx context.Context, actor model.Actor, req *model.EventCreate) (*model.Event, error) {
	req.Title = sanitizer.NormalizeTitle(req.Title)
	req.Description = sanitizer.NormalizeFreeText(req.Description)
	req.Location = sanitizer.NormalizeTitle(req.Location)
	req.Currency = sanitizer.NormalizeCurrency(req.Currency)
	if req.Currency == "" {
		req.Currency = s.cfg.DefaultCurrency
	}

	if err := s.validator.ValidateCreate(req, s.now()); err != nil {
		s.cfg.Log.Warn("Event validation failed",
			"host_id", actor.ID,
			"title", req.Title,
			"error", err,
		)
		return nil, validation.ToAppError("Event validation failed", err)
	}

	status := model.EventStatusDraft
	if req.Publish {
		status = model.EventStatusOpen
	}

	event := &model.Event{
		HostID:           actor.ID,
		Title:            req.Title,
		Description:      req.Description,
		Location:         req.Location,
		StartsAt:         req.StartsAt.UTC(),
		Price:            req.Price,
		Currency:         req.Currency,
		MaxParticipants:  req.MaxParticipants,
		Status:           status,
		Participants:     []string{},
		WaitingList:      []string{},
		RequiresApproval: req.RequiresApproval,
	}

	if err := s.validator.Validate(event); err != nil {
		return nil, validation.ToAppError("Event validation failed", err)
	}

	if err := s.repo.Create(ctx, event); err != nil {
		s.cfg.Log.Error("Failed to create event",
			"host_id", actor.ID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create event", err)
	}

	s.cfg.Log.Info("Event created",
		"event_id", event.ID,
		"host_id", event.HostID,
		"status", event.Status,
		"max_participants", event.MaxParticipants,
	)

	return event, nil
}

func (s *eventService) GetByID(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Event ID cannot be empty")
	}

	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve event")
	}
	return event, nil
}

func (s *eventService) List(ctx context.Context, filter model.EventFilter, limit int, offset int64) ([]*model.Event, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var events []*model.Event
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count events", "error", err)
			errCount = apperrors.Internal("Failed to count events", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		events, err = s.repo.Find(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list events",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve events", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return events, count, nil
}

func (s *eventService) UpdateStatus(ctx context.Context, actor model.Actor, id string, status string) (*model.Event, error) {
	if err := s.validator.ValidateStatusUpdate(&model.EventStatusUpdate{Status: status}); err != nil {
		return nil, validation.ToAppError("Invalid event status", err)
	}

	event, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if event.HostID != actor.ID && !actor.IsAdmin() {
		return nil, eventserrors.AccessDenied()
	}

	from := allowedFrom[status]
	if !slices.Contains(from, event.Status) {
		return nil, eventserrors.InvalidTransition(event.Status, status)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, from, status)
	if err != nil {
		if errors.Is(err, eventserrors.ErrConditionFailed) {
			// Status moved between the read and the write.
			return nil, eventserrors.InvalidTransition(event.Status, status)
		}
		return nil, s.mapRepoError(err, id, "Failed to update event status")
	}

	if status == model.EventStatusCompleted && s.completer != nil {
		completed, err := s.completer.CompleteConfirmedByEvent(ctx, id)
		if err != nil {
			s.cfg.Log.Error("Failed to complete bookings of completed event",
				"event_id", id,
				"error", err,
			)
			return nil, apperrors.Internal("Event completed but bookings could not be updated", err)
		}
		s.cfg.Log.Info("Bookings completed", "event_id", id, "count", completed)
	}

	s.cfg.Log.Info("Event status updated",
		"event_id", id,
		"from", event.Status,
		"to", status,
		"actor_id", actor.ID,
	)

	return updated, nil
}

func (s *eventService) JoinWaitingList(ctx context.Context, actor model.Actor, id string) (*model.Event, error) {
	event, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if event.Status != model.EventStatusFull {
		return nil, eventserrors.WaitingListClosed(event.Status)
	}

	updated, err := s.repo.AddToWaitingList(ctx, id, actor.ID)
	if err != nil {
		if errors.Is(err, eventserrors.ErrConditionFailed) {
			return nil, eventserrors.WaitingListClosed(model.EventStatusOpen)
		}
		return nil, s.mapRepoError(err, id, "Failed to join waiting list")
	}

	s.cfg.Log.Info("User joined waiting list",
		"event_id", id,
		"user_id", actor.ID,
	)

	return updated, nil
}

func (s *eventService) mapRepoError(err error, id, message string) error {
	if errors.Is(err, eventserrors.ErrNotFound) {
		return eventserrors.EventNotFound(id)
	}
	if errors.Is(err, eventserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid event ID format")
	}
	s.cfg.Log.Error(message, "event_id", id, "error", err)
	return apperrors.Internal(message, err)
}

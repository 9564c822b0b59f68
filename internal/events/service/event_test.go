package service

import (
	"context"
	"testing"
	"time"

	eventserrors "gatherly/internal/events/errors"
	"gatherly/internal/events/repository"
	"gatherly/internal/events/validator"
	"gatherly/pkg/config"
	apperrors "gatherly/pkg/errors"
	"gatherly/pkg/logger"
	"gatherly/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	calls []string
}

func (f *fakeCompleter) CompleteConfirmedByEvent(_ context.Context, eventID string) (int64, error) {
	f.calls = append(f.calls, eventID)
	return 1, nil
}

var (
	host  = model.Actor{ID: "host-1", Role: model.RoleUser}
	guest = model.Actor{ID: "guest-1", Role: model.RoleUser}
	admin = model.Actor{ID: "admin-1", Role: model.RoleAdmin}
)

func newTestService(t *testing.T) (*eventService, *repository.MemoryEventRepository, *fakeCompleter) {
	t.Helper()
	repo := repository.NewMemoryEventRepository()
	completer := &fakeCompleter{}
	cfg := &config.Config{Log: logger.Discard(), DefaultCurrency: "usd"}
	svc := NewEventService(repo, validator.NewEventValidator(), completer, cfg).(*eventService)
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo, completer
}

func validCreate() *model.EventCreate {
	return &model.EventCreate{
		Title:           "  Rooftop   Jazz ",
		StartsAt:        time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC),
		Price:           2500,
		MaxParticipants: 10,
	}
}

func TestCreate_DefaultsToDraft(t *testing.T) {
	svc, _, _ := newTestService(t)

	event, err := svc.Create(context.Background(), host, validCreate())
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, model.EventStatusDraft, event.Status)
	assert.Equal(t, "Rooftop Jazz", event.Title)
	assert.Equal(t, "usd", event.Currency)
	assert.Equal(t, host.ID, event.HostID)
	assert.Zero(t, event.CurrentParticipants)
}

func TestCreate_PublishOpensEvent(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := validCreate()
	req.Publish = true
	req.Currency = "EUR"

	event, err := svc.Create(context.Background(), host, req)
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusOpen, event.Status)
	assert.Equal(t, "eur", event.Currency)
}

func TestCreate_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.EventCreate)
	}{
		{"past start", func(r *model.EventCreate) { r.StartsAt = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC) }},
		{"negative price", func(r *model.EventCreate) { r.Price = -1 }},
		{"no capacity", func(r *model.EventCreate) { r.MaxParticipants = 0 }},
		{"short title", func(r *model.EventCreate) { r.Title = "ab" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			req := validCreate()
			tt.mutate(req)

			_, err := svc.Create(context.Background(), host, req)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		})
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), "507f1f77bcf86cd799439011")
	assert.True(t, apperrors.HasCode(err, eventserrors.CodeEventNotFound))

	_, err = svc.GetByID(context.Background(), "bad")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestUpdateStatus_Transitions(t *testing.T) {
	svc, _, completer := newTestService(t)
	ctx := context.Background()

	event, err := svc.Create(ctx, host, validCreate())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, guest, event.ID, model.EventStatusOpen)
	assert.True(t, apperrors.HasCode(err, eventserrors.CodeAccessDenied))

	_, err = svc.UpdateStatus(ctx, host, event.ID, model.EventStatusCompleted)
	assert.True(t, apperrors.HasCode(err, eventserrors.CodeInvalidTransition))

	updated, err := svc.UpdateStatus(ctx, host, event.ID, model.EventStatusOpen)
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusOpen, updated.Status)

	updated, err = svc.UpdateStatus(ctx, admin, event.ID, model.EventStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusCompleted, updated.Status)
	assert.Equal(t, []string{event.ID}, completer.calls)

	_, err = svc.UpdateStatus(ctx, host, event.ID, model.EventStatusCancelled)
	assert.True(t, apperrors.HasCode(err, eventserrors.CodeInvalidTransition))
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	event, err := svc.Create(context.Background(), host, validCreate())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), host, event.ID, model.EventStatusFull)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestJoinWaitingList(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	req := validCreate()
	req.Publish = true
	req.MaxParticipants = 1

	event, err := svc.Create(ctx, host, req)
	require.NoError(t, err)

	_, err = svc.JoinWaitingList(ctx, guest, event.ID)
	assert.True(t, apperrors.HasCode(err, eventserrors.CodeInvalidTransition))

	_, err = repo.AdjustParticipants(ctx, event.ID, "someone", 1)
	require.NoError(t, err)

	updated, err := svc.JoinWaitingList(ctx, guest, event.ID)
	require.NoError(t, err)
	assert.Contains(t, updated.WaitingList, guest.ID)
}

func TestList_ReturnsCountAndPage(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	for range 3 {
		_, err := svc.Create(ctx, host, validCreate())
		require.NoError(t, err)
	}

	events, total, err := svc.List(ctx, model.EventFilter{HostID: host.ID}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, events, 2)
}

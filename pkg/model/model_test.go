package model

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

func TestEvent_Validation(t *testing.T) {
	validate := validator.New()
	future := time.Now().Add(48 * time.Hour)

	valid := func() *Event {
		return &Event{
			HostID:          "host-1",
			Title:           "Rooftop Jazz",
			StartsAt:        future,
			Price:           1000,
			Currency:        "usd",
			MaxParticipants: 10,
			Status:          EventStatusOpen,
		}
	}

	tests := []struct {
		name        string
		mutate      func(e *Event)
		expectValid bool
	}{
		{name: "valid event", mutate: func(e *Event) {}, expectValid: true},
		{name: "free event", mutate: func(e *Event) { e.Price = 0 }, expectValid: true},
		{name: "negative price", mutate: func(e *Event) { e.Price = -1 }, expectValid: false},
		{name: "zero capacity", mutate: func(e *Event) { e.MaxParticipants = 0 }, expectValid: false},
		{name: "over capacity", mutate: func(e *Event) { e.CurrentParticipants = 11 }, expectValid: false},
		{name: "unknown status", mutate: func(e *Event) { e.Status = "archived" }, expectValid: false},
		{name: "uppercase currency", mutate: func(e *Event) { e.Currency = "USD" }, expectValid: false},
		{name: "missing host", mutate: func(e *Event) { e.HostID = "" }, expectValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid()
			tt.mutate(e)
			err := validate.Struct(e)
			if tt.expectValid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.expectValid && err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestEvent_AvailableSpots(t *testing.T) {
	e := &Event{MaxParticipants: 5, CurrentParticipants: 3}
	if got := e.AvailableSpots(); got != 2 {
		t.Errorf("AvailableSpots() = %d, want 2", got)
	}

	e.CurrentParticipants = 7
	if got := e.AvailableSpots(); got != 0 {
		t.Errorf("AvailableSpots() = %d, want 0", got)
	}
}

func TestBooking_StatusClasses(t *testing.T) {
	tests := []struct {
		status  string
		counted bool
		active  bool
	}{
		{BookingStatusPending, false, true},
		{BookingStatusConfirmed, true, true},
		{BookingStatusCompleted, true, true},
		{BookingStatusDisputed, false, true},
		{BookingStatusCancelled, false, false},
		{BookingStatusRefunded, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			b := &Booking{Status: tt.status}
			if b.IsCounted() != tt.counted {
				t.Errorf("IsCounted() = %v, want %v", b.IsCounted(), tt.counted)
			}
			if b.IsActive() != tt.active {
				t.Errorf("IsActive() = %v, want %v", b.IsActive(), tt.active)
			}
		})
	}
}

func TestBooking_IntentID(t *testing.T) {
	b := &Booking{}
	if b.IntentID() != "" {
		t.Errorf("expected empty intent id")
	}
	id := "pi_123"
	b.PaymentIntentID = &id
	if b.IntentID() != "pi_123" {
		t.Errorf("IntentID() = %q, want pi_123", b.IntentID())
	}
}

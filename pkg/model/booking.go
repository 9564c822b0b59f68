package model

import "time"

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
	BookingStatusRefunded  = "refunded"
	BookingStatusDisputed  = "disputed"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Booking reserves Quantity spots of an event for a user. Amount and
// RefundAmount are in minor currency units.
type Booking struct {
	ID              string     `json:"id,omitempty" bson:"_id,omitempty"`
	UserID          string     `json:"user_id" bson:"user_id" validate:"required,max=128"`
	EventID         string     `json:"event_id" bson:"event_id" validate:"required,mongodb"`
	HostID          string     `json:"host_id" bson:"host_id" validate:"required,max=128"`
	Quantity        int        `json:"quantity" bson:"quantity" validate:"required,min=1"`
	Amount          int64      `json:"amount" bson:"amount" validate:"min=0"`
	Currency        string     `json:"currency" bson:"currency" validate:"required,len=3"`
	Status          string     `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed refunded disputed"`
	PaymentStatus   string     `json:"payment_status" bson:"payment_status" validate:"required,oneof=pending paid failed refunded"`
	PaymentIntentID *string    `json:"payment_intent_id,omitempty" bson:"payment_intent_id,omitempty"`
	SpecialRequests string     `json:"special_requests,omitempty" bson:"special_requests,omitempty" validate:"max=2000"`
	RefundID        string     `json:"refund_id,omitempty" bson:"refund_id,omitempty"`
	RefundAmount    int64      `json:"refund_amount,omitempty" bson:"refund_amount,omitempty"`
	RefundReason    string     `json:"refund_reason,omitempty" bson:"refund_reason,omitempty"`
	RefundedAt      *time.Time `json:"refunded_at,omitempty" bson:"refunded_at,omitempty"`
	CancelReason    string     `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	CancelledBy     string     `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	// Active backs the unique (user_id, event_id) index and is kept equal to
	// IsActive() on every write.
	Active    bool      `json:"-" bson:"active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// IsCounted reports whether the booking occupies spots in its event.
func (b *Booking) IsCounted() bool {
	return IsCountedStatus(b.Status)
}

func (b *Booking) IsActive() bool {
	return IsActiveStatus(b.Status)
}

func (b *Booking) IntentID() string {
	if b.PaymentIntentID == nil {
		return ""
	}
	return *b.PaymentIntentID
}

func IsCountedStatus(status string) bool {
	return status == BookingStatusConfirmed || status == BookingStatusCompleted
}

func IsActiveStatus(status string) bool {
	return status != BookingStatusCancelled && status != BookingStatusRefunded
}

type BookingCreate struct {
	EventID         string `json:"event_id" validate:"required,mongodb"`
	Quantity        int    `json:"quantity" validate:"required,min=1,max=100"`
	SpecialRequests string `json:"special_requests,omitempty" validate:"max=2000"`
}

type BookingCancel struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

type RefundRequest struct {
	Amount *int64 `json:"amount,omitempty" validate:"omitempty,min=1"`
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

const (
	BookingViewAttendee = "attendee"
	BookingViewHost     = "host"
	BookingViewAll      = "all"
)

type BookingFilter struct {
	UserID string
	HostID string
	Status string
}

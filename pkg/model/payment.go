package model

import "time"

const (
	LedgerStatusSucceeded         = "succeeded"
	LedgerStatusFailed            = "failed"
	LedgerStatusRefunded          = "refunded"
	LedgerStatusPartiallyRefunded = "partially_refunded"
)

// Payment is the audit record of one gateway payment intent.
type Payment struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID       string    `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	EventID         string    `json:"event_id" bson:"event_id"`
	UserID          string    `json:"user_id" bson:"user_id"`
	HostID          string    `json:"host_id" bson:"host_id"`
	PaymentIntentID string    `json:"payment_intent_id" bson:"payment_intent_id"`
	Amount          int64     `json:"amount" bson:"amount"`
	Currency        string    `json:"currency" bson:"currency"`
	Status          string    `json:"status" bson:"status"`
	RefundID        string    `json:"refund_id,omitempty" bson:"refund_id,omitempty"`
	RefundAmount    int64     `json:"refund_amount,omitempty" bson:"refund_amount,omitempty"`
	FailureReason   string    `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

type PaymentIntentCreate struct {
	EventID   string `json:"event_id" validate:"required,mongodb"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1,max=100"`
	BookingID string `json:"booking_id,omitempty" validate:"omitempty,mongodb"`
}

type PaymentIntentResult struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

type PaymentConfirm struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required,gateway_id"`
}

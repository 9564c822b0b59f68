package model

import "time"

const (
	EventStatusDraft     = "draft"
	EventStatusOpen      = "open"
	EventStatusFull      = "full"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

// Event is a hosted gathering with a bounded number of spots. Price is in
// minor currency units.
type Event struct {
	ID                  string    `json:"id,omitempty" bson:"_id,omitempty"`
	HostID              string    `json:"host_id" bson:"host_id" validate:"required,max=128"`
	Title               string    `json:"title" bson:"title" validate:"required,min=3,max=200"`
	Description         string    `json:"description,omitempty" bson:"description,omitempty" validate:"max=2000"`
	Location            string    `json:"location,omitempty" bson:"location,omitempty" validate:"max=200"`
	StartsAt            time.Time `json:"starts_at" bson:"starts_at" validate:"required"`
	Price               int64     `json:"price" bson:"price" validate:"min=0"`
	Currency            string    `json:"currency" bson:"currency" validate:"required,len=3,lowercase"`
	MaxParticipants     int       `json:"max_participants" bson:"max_participants" validate:"required,min=1,max=100000"`
	CurrentParticipants int       `json:"current_participants" bson:"current_participants" validate:"min=0,ltefield=MaxParticipants"`
	Status              string    `json:"status" bson:"status" validate:"required,oneof=draft open full cancelled completed"`
	Participants        []string  `json:"participants" bson:"participants"`
	WaitingList         []string  `json:"waiting_list" bson:"waiting_list"`
	RequiresApproval    bool      `json:"requires_approval" bson:"requires_approval"`
	CreatedAt           time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" bson:"updated_at"`
}

func (e *Event) IsFree() bool {
	return e.Price == 0
}

func (e *Event) AvailableSpots() int {
	return max(0, e.MaxParticipants-e.CurrentParticipants)
}

func (e *Event) HasStarted(now time.Time) bool {
	return !e.StartsAt.After(now)
}

type EventCreate struct {
	Title            string    `json:"title" validate:"required,min=3,max=200"`
	Description      string    `json:"description,omitempty" validate:"max=2000"`
	Location         string    `json:"location,omitempty" validate:"max=200"`
	StartsAt         time.Time `json:"starts_at" validate:"required"`
	Price            int64     `json:"price" validate:"min=0,max=100000000"`
	Currency         string    `json:"currency,omitempty" validate:"omitempty,len=3"`
	MaxParticipants  int       `json:"max_participants" validate:"required,min=1,max=100000"`
	RequiresApproval bool      `json:"requires_approval"`
	Publish          bool      `json:"publish"`
}

type EventStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=open cancelled completed"`
}

type EventFilter struct {
	Status string
	HostID string
}

package model

import "time"

type Review struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	EventID   string    `json:"event_id" bson:"event_id" validate:"required,mongodb"`
	HostID    string    `json:"host_id" bson:"host_id" validate:"required"`
	UserID    string    `json:"user_id" bson:"user_id" validate:"required"`
	Rating    int       `json:"rating" bson:"rating" validate:"required,min=1,max=5"`
	Comment   string    `json:"comment,omitempty" bson:"comment,omitempty" validate:"max=2000"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type ReviewCreate struct {
	EventID string `json:"event_id" validate:"required,mongodb"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

// HostRating is the fold of every review left for a host.
type HostRating struct {
	Average float64 `json:"average" bson:"average"`
	Count   int64   `json:"count" bson:"count"`
}

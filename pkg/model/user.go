package model

import "time"

// User is the local projection of a profile owned by the identity provider.
type User struct {
	ID            string    `json:"id" bson:"_id"`
	JoinedEvents  []string  `json:"joined_events" bson:"joined_events"`
	RatingAverage float64   `json:"rating_average" bson:"rating_average"`
	RatingCount   int64     `json:"rating_count" bson:"rating_count"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

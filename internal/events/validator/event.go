package validator

import (
	"time"

	"gatherly/pkg/model"
	"gatherly/pkg/validation"
)

type EventValidator struct {
	validator *validation.Validator
}

func NewEventValidator() *EventValidator {
	return &EventValidator{validator: validation.New()}
}

// ValidateCreate checks the request shape and that the event starts after now.
func (v *EventValidator) ValidateCreate(req *model.EventCreate, now time.Time) error {
	if err := v.validator.Struct(req); err != nil {
		return err
	}
	if !req.StartsAt.After(now) {
		return validation.Field("starts_at", "must be in the future")
	}
	return nil
}

func (v *EventValidator) Validate(event *model.Event) error {
	return v.validator.Struct(event)
}

func (v *EventValidator) ValidateStatusUpdate(req *model.EventStatusUpdate) error {
	return v.validator.Struct(req)
}

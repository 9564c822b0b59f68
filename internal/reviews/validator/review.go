package validator

import (
	"gatherly/pkg/model"
	"gatherly/pkg/validation"
)

type ReviewValidator struct {
	validator *validation.Validator
}

func NewReviewValidator() *ReviewValidator {
	return &ReviewValidator{validator: validation.New()}
}

func (v *ReviewValidator) ValidateCreate(req *model.ReviewCreate) error {
	return v.validator.Struct(req)
}

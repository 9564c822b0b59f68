package validator

import (
	"regexp"

	"gatherly/pkg/logger"
	"gatherly/pkg/model"
	"gatherly/pkg/validation"

	"github.com/go-playground/validator/v10"
)

var (
	gatewayIDRegex = regexp.MustCompile(`^[A-Za-z0-9_\-]{3,255}$`)
)

type BookingValidator struct {
	validator *validation.Validator
	logger    *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validation.New()

	if err := v.RegisterValidation("gateway_id", validateGatewayID); err != nil {
		log.Fatal("Failed to register 'gateway_id' validator",
			"error", err,
		)
	}

	return &BookingValidator{
		validator: v,
		logger:    log,
	}
}

func (v *BookingValidator) ValidateCreate(req *model.BookingCreate) error {
	return v.validator.Struct(req)
}

func (v *BookingValidator) ValidateIntent(req *model.PaymentIntentCreate) error {
	return v.validator.Struct(req)
}

func (v *BookingValidator) ValidateConfirm(req *model.PaymentConfirm) error {
	return v.validator.Struct(req)
}

func (v *BookingValidator) ValidateCancel(req *model.BookingCancel) error {
	return v.validator.Struct(req)
}

func (v *BookingValidator) ValidateRefund(req *model.RefundRequest) error {
	return v.validator.Struct(req)
}

// Validate checks a booking before it is persisted.
func (v *BookingValidator) Validate(booking *model.Booking) error {
	return v.validator.Struct(booking)
}

func validateGatewayID(fl validator.FieldLevel) bool {
	return gatewayIDRegex.MatchString(fl.Field().String())
}

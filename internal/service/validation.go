package service

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/meal-subscription-api/internal/models"
	appErrors "github.com/noah-isme/meal-subscription-api/pkg/errors"
)

// newValidator registers the custom tags used by request payloads.
func newValidator(validate *validator.Validate) *validator.Validate {
	if validate == nil {
		validate = validator.New()
	}
	_ = validate.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		_, ok := models.NormalizeMonth(fl.Field().String())
		return ok
	})
	_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		v := fl.Field().Float()
		return !math.IsInf(v, 0) && !math.IsNaN(v)
	})
	return validate
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	FailedField string `json:"failed_field"`
	Tag         string `json:"tag"`
	Value       string `json:"value"`
}

var validate = validator.New()

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})

	// decimal.Decimal divalidasi sebagai float64
	validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	// Nominal uang harus > 0
	validate.RegisterValidation("decimal_gt0", func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.Float64 && fl.Field().Float() > 0
	})

	validate.RegisterValidation("decimal_gte0", func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.Float64 && fl.Field().Float() >= 0
	})
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// Summary flattens validation errors into one line for logs and CLI output.
func Summary(errs []*ErrorResponse) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Value != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", e.FailedField, e.Tag, e.Value))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", e.FailedField, e.Tag))
		}
	}
	return strings.Join(parts, "; ")
}

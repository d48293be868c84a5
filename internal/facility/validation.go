package facility

import (
	"strings"

	"georesponse_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

// RegisterValidations adds the facility tags to val:
//
//	category         a member of the closed set, any case
//	category_filter  a member of the closed set or "all"
func RegisterValidations(val *validator.Validator) error {
	if err := val.RegisterValidation("category", validateCategory); err != nil {
		return err
	}
	return val.RegisterValidation("category_filter", validateCategoryFilter)
}

func validateCategory(fl playground.FieldLevel) bool {
	_, ok := LookupCategory(fl.Field().String())
	return ok
}

func validateCategoryFilter(fl playground.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if strings.EqualFold(raw, string(All)) {
		return true
	}
	_, ok := LookupCategory(raw)
	return ok
}

package validator

import (
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func oneOf(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, allowed := range values {
			if v == allowed {
				return true
			}
		}
		return false
	}
}

func oneOfFold(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := strings.TrimSpace(fl.Field().String())
		for _, allowed := range values {
			if strings.EqualFold(v, allowed) {
				return true
			}
		}
		return false
	}
}

func registerCustomValidations() {
	// Target states an admin may request for a redemption
	validate.RegisterValidation("redemption_status", oneOfFold("PENDING", "PLACED", "APPROVED", "REJECTED", "SHIPPED", "DELIVERED"))

	// Ledger source types
	validate.RegisterValidation("source_type", oneOf("BAG_LIFT", "MEETING", "SCHEME", "BONUS", "REDEMPTION", "ADJUSTMENT"))

	// Source types an admin may post manually
	validate.RegisterValidation("manual_source_type", oneOf("BAG_LIFT", "MEETING", "SCHEME", "BONUS", "ADJUSTMENT"))

	// Non-zero integer delta
	validate.RegisterValidation("nonzero", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() != 0
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range verrs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "url":
			errors[field] = "Invalid URL format"
		case "uuid":
			errors[field] = "Invalid UUID"
		case "redemption_status":
			errors[field] = "Invalid status. Must be one of PENDING, PLACED, APPROVED, REJECTED, SHIPPED, DELIVERED"
		case "source_type", "manual_source_type":
			errors[field] = "Invalid source type"
		case "nonzero":
			errors[field] = "Value must not be zero"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}

// QueryInt reads an integer query parameter and checks it against tag.
// A missing parameter yields def.
func QueryInt(values url.Values, key string, def int, tag string) (int, error) {
	raw := values.Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, err
	}
	if err := ValidateVar(v, tag); err != nil {
		return def, err
	}
	return v, nil
}

// Pagination reads limit (1..200, default 50) and offset. Bad values are
// reported in fieldErrs.
func Pagination(values url.Values, fieldErrs map[string]string) (limit, offset int) {
	limit, err := QueryInt(values, "limit", 50, "gt=0,lte=200")
	if err != nil {
		fieldErrs["limit"] = "Must be between 1 and 200"
	}
	offset, err = QueryInt(values, "offset", 0, "gte=0")
	if err != nil {
		fieldErrs["offset"] = "Must be zero or more"
	}
	return limit, offset
}

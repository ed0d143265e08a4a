package validation

import (
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Regex patterns
var (
	// local@domain.tld with no whitespace anywhere
	emailRegex = regexp.MustCompile(`^\S+@\S+\.\S+$`)

	// http(s) scheme followed by anything but spaces and double quotes
	webURLRegex = regexp.MustCompile(`^(http|https)://[^ "]+$`)
)

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("not_blank", NotBlank)
	_ = v.RegisterValidation("finite_coordinates", FiniteCoordinates)
	_ = v.RegisterValidation("simple_email", SimpleEmail)
	_ = v.RegisterValidation("web_url", WebURL)
}

// NotBlank rejects strings that are empty after trimming whitespace
func NotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// FiniteCoordinates requires a two element numeric array with no NaN or Inf component
func FiniteCoordinates(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Array && field.Kind() != reflect.Slice {
		return false
	}
	if field.Len() != 2 {
		return false
	}
	for i := 0; i < field.Len(); i++ {
		elem := field.Index(i)
		if !elem.CanFloat() {
			return false
		}
		v := elem.Float()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func SimpleEmail(fl validator.FieldLevel) bool {
	return emailRegex.MatchString(fl.Field().String())
}

func WebURL(fl validator.FieldLevel) bool {
	return webURLRegex.MatchString(fl.Field().String())
}

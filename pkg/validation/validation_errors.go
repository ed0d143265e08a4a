package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldMessages maps form field paths to the message shown next to the input
var FieldMessages = map[string]string{
	"name":            "Name is required",
	"photo":           "Photo URL is required",
	"description":     "Description is required",
	"address":         "Address is required",
	"coordinates":     "Valid coordinates are required",
	"contact.email":   "Invalid email format",
	"contact.website": "Invalid website URL format",
}

var (
	defaultValidate *validator.Validate
	defaultOnce     sync.Once
)

// New returns a validator with the custom rules registered and json field names reported
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	RegisterValidators(v)
	return v
}

// Default returns the shared validator instance
func Default() *validator.Validate {
	defaultOnce.Do(func() {
		defaultValidate = New()
	})
	return defaultValidate
}

// FormatFieldErrors converts validator.ValidationErrors into a field path -> message map.
// Any other error is reported under the "_" key.
func FormatFieldErrors(err error) map[string]string {
	fields := map[string]string{}
	if err == nil {
		return fields
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		fields["_"] = err.Error()
		return fields
	}

	for _, e := range validationErrors {
		key := fieldPath(e)
		if _, exists := fields[key]; exists {
			continue
		}
		fields[key] = formatSingleError(key, e)
	}
	return fields
}

// formatSingleError formats a single validation error to a user-friendly message
func formatSingleError(key string, e validator.FieldError) string {
	if msg, ok := FieldMessages[key]; ok {
		return msg
	}
	label := formatLabel(key)
	switch e.Tag() {
	case "not_blank", "required":
		return fmt.Sprintf("%s is required", label)
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// fieldPath strips the root struct name from the namespace: "ProfileInput.contact.email" -> "contact.email"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// formatLabel turns "contact.email" into "Contact email"
func formatLabel(key string) string {
	label := strings.ReplaceAll(strings.ReplaceAll(key, ".", " "), "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

package security

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	pkgerrors "user-rest-service/pkg/errors"
)

const (
	// MaxDocumentIDLength defines the maximum allowed length of a document id in bytes
	MaxDocumentIDLength = 1500
)

// reservedIDPattern matches ids the document store keeps for itself
var reservedIDPattern = regexp.MustCompile(`^__.*__$`)

// ValidateDocumentID checks that id can address a single document.
// Ids come straight from the URL path, so anything that would be read as a
// different path by the store is rejected here.
func ValidateDocumentID(id string) error {
	switch {
	case id == "":
		return pkgerrors.NewValidationError("id", "id is required")
	case len(id) > MaxDocumentIDLength:
		return pkgerrors.NewValidationError("id", fmt.Sprintf("id must be at most %d bytes", MaxDocumentIDLength))
	case !utf8.ValidString(id):
		return pkgerrors.NewValidationError("id", "id must be valid UTF-8")
	case strings.Contains(id, "/"):
		return pkgerrors.NewValidationError("id", "id must not contain '/'")
	case id == "." || id == "..":
		return pkgerrors.NewValidationError("id", "id must not be '.' or '..'")
	case reservedIDPattern.MatchString(id):
		return pkgerrors.NewValidationError("id", "id must not match __.*__")
	}
	return nil
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	UseJSONFieldNames(v)
	return v
}

// UseJSONFieldNames makes a validator engine report fields by their JSON
// names. Engines other than *validator.Validate are left untouched.
func UseJSONFieldNames(engine any) {
	v, ok := engine.(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(jsonFieldName)
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// FieldErrors converts validator.ValidationErrors into field-level messages.
// It returns nil when err carries no validator errors.
func FieldErrors(err error) []pkgerrors.FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	details := make([]pkgerrors.FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", e.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email", e.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
		default:
			message = fmt.Sprintf("%s is invalid", e.Field())
		}
		details = append(details, pkgerrors.FieldError{Field: e.Field(), Message: message})
	}
	return details
}

// ToValidationError converts validator errors into a *pkgerrors.ValidationError.
// Other errors are returned unchanged.
func ToValidationError(err error) error {
	if details := FieldErrors(err); details != nil {
		return pkgerrors.NewFieldsValidationError(details)
	}
	return err
}

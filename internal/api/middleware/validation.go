package middleware

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct validates a decoded request body (FilterRequest,
// MatchRequest, QuerifyRequest, ...) against its `validate` tags.
//
// Example usage in a handler:
//
//	var req FilterRequest
//	json.NewDecoder(r.Body).Decode(&req)
//	if err := middleware.ValidateStruct(req); err != nil {
//	    details := middleware.FormatValidationErrors(err)
//	    ...
//	}
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidationError is a single field-level validation failure, suitable for
// the Details field of an api/errors.APIError.
type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
	Hint  string `json:"hint,omitempty"`
}

// FormatValidationErrors converts a validator.ValidationErrors into a
// stable, JSON-friendly slice. Returns nil if err doesn't carry field
// errors (e.g. an invalid validate tag or a non-struct argument).
func FormatValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field: fe.Field(),
			Issue: fe.Tag(),
			Hint:  validationHint(fe),
		})
	}
	return out
}

func validationHint(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "validation failed: " + fe.Tag()
	}
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/setgrouper/internal/decklist"
	"github.com/phrazzld/setgrouper/internal/domain"
	"github.com/phrazzld/setgrouper/internal/service"
	"github.com/phrazzld/setgrouper/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing the internal error types to clients.
func MapErrorToStatusCode(err error) int {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		valErrs   validator.ValidationErrors
	)
	switch {
	case errors.Is(err, decklist.ErrInputNotText),
		errors.Is(err, service.ErrNoNames),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr),
		errors.As(err, &valErrs):
		return http.StatusBadRequest

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrQuotaExceeded):
		return http.StatusInsufficientStorage

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err.
func GetSafeErrorMessage(err error) string {
	var valErrs validator.ValidationErrors
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, decklist.ErrInputNotText):
		return "Deck list text must be a string"
	case errors.Is(err, service.ErrNoNames):
		return "No card names found"
	case errors.As(err, &valErrs):
		return SanitizeValidationError(valErrs)
	case errors.Is(err, domain.ErrValidation):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return fmt.Sprintf("Invalid %s: %s", ve.Field, ve.Message)
		}
		return "Validation error"
	case errors.Is(err, domain.ErrInvalidFormat):
		return "Invalid value format"
	case MapErrorToStatusCode(err) == http.StatusBadRequest:
		return "Invalid request format"
	case errors.Is(err, store.ErrNotFound):
		return "Cache entry not found"
	case errors.Is(err, store.ErrQuotaExceeded):
		return "Cache storage is full"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError reports the first failing field and rule.
func SanitizeValidationError(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation error"
	}
	fe := errs[0]
	return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

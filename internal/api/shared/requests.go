package shared

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// MaxRequestBytes caps how much of a request body is read. A deck list or
// a result collection fits easily.
const MaxRequestBytes = 4 << 20

var validate = validator.New()

func DecodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, MaxRequestBytes)).Decode(v)
}

// ValidateRequest runs v's own Validate method when it has one, and the
// struct tags otherwise.
func ValidateRequest(v any) error {
	if sv, ok := v.(interface{ Validate() error }); ok {
		return sv.Validate()
	}
	return validate.Struct(v)
}

// ValidateStruct checks the validate tags of v and nothing else. Request
// types call it from their Validate method.
func ValidateStruct(v any) error {
	return validate.Struct(v)
}

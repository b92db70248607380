// Package web defines common components for a web application.
package web

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// JSONError provides type for explicit json encoded error response.
type JSONError struct {
	Error string `json:"error"`
}

// Error wraps a given err into json friendly struct.
func Error(err error) JSONError {
	return JSONError{Error: err.Error()}
}

// Response holds the common response type for all APIs.
type Response struct {
	AccessToken          string    `json:"access_token,omitempty"`
	AccessTokenExpiresAt time.Time `json:"access_token_expires_at,omitempty"`
	Data                 any       `json:"data,omitempty"`
	Error                string    `json:"error,omitempty"`
}

// GetErrorMsg returns a human readable message for the first failed validation rule.
func GetErrorMsg(ve validator.ValidationErrors) string {
	field := ve[0]

	switch field.Tag() {
	case "required":
		return field.Field() + " is required"
	case "min":
		return field.Field() + " must be at least " + field.Param()
	case "max":
		return field.Field() + " must not exceed " + field.Param()
	case "alphanum":
		return field.Field() + " must be alphanumeric"
	case "numeric":
		return field.Field() + " must be numeric"
	case "oneof":
		return field.Field() + " must be one of: " + field.Param()
	default:
		return field.Field() + " is invalid"
	}
}

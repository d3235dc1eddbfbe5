package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse abstracts all API error responses to the user.
//
// This interface does not implement `error`, since its only purpose
// is to be used for API responses and not for logging circumstances.
//
// In general, the whole ErrorResponse can be sent for serialization.
type ErrorResponse interface {
	// Code is the HTTP status code to be returned.
	Code() int
}

type APIError struct {
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (a *APIError) Code() int {
	return a.Status
}

type StructuredError struct {
	Errors map[string][]string `json:"errors"`
	Status int                 `json:"-"`
}

func (s *StructuredError) Code() int {
	return s.Status
}

func (s *StructuredError) Add(field, problem string) {
	s.Errors[field] = append(s.Errors[field], problem)
}

// DeliveryError is the distinct body returned when the mail provider
// fails; it is never used for validation or not-found conditions.
type DeliveryError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (d *DeliveryError) Code() int {
	return d.Status
}

var (
	MalformedJSONError  = NewSimple(400, "Malformed JSON body")
	InternalServerError = NewSimple(500, "Internal server error")

	NotFoundError  = NewSimple(404, "Resource not found")
	InvalidIDError = NewSimple(400, "The provided ID is invalid, IDs are usually int64 > 0")

	/*
	 * Used for authentication
	 */
	UnauthorizedError      = NewSimple(401, "Not authenticated")
	InvalidAuthHeaderError = NewSimple(401, "Invalid authorization header format")
	InvalidAuthTokenError  = NewSimple(401, "Invalid token")
	UserNotFoundError      = NewSimple(404, "User not found")
)

func FromValidationError(err error) *StructuredError {
	var ve validator.ValidationErrors
	ok := errors.As(err, &ve)
	if !ok {
		return nil
	}

	problems := map[string][]string{}
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())

		switch fe.Tag() {
		case "required":
			problems[field] = append(problems[field], "This field is required")
		case "min":
			problems[field] = append(problems[field], "Value is too short, min: "+fe.Param())
		case "max":
			problems[field] = append(problems[field], "Value is too long, max: "+fe.Param())
		case "email":
			problems[field] = append(problems[field], "Value must be a valid email address")

		default:
			problems[field] = append(problems[field], "Invalid value provided")
		}
	}

	return &StructuredError{
		Errors: problems,
		Status: http.StatusBadRequest,
	}
}

func NewSimple(status int, msg string, args ...any) *APIError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &APIError{Status: status, Message: msg}
}

func NewStructured(code int) *StructuredError {
	return &StructuredError{
		Errors: make(map[string][]string),
		Status: code,
	}
}

func NewDeliveryError(err error) *DeliveryError {
	return &DeliveryError{
		Error:   "Failed to send email",
		Message: err.Error(),
		Status:  http.StatusInternalServerError,
	}
}

func NewInvalidParamTypeError(name, dataType string) *APIError {
	return NewSimple(http.StatusBadRequest, "Parameter '%s' has invalid type, expected: %s", name, dataType)
}

// Package errors contains the service error taxonomy shared by services and HTTP handlers
package errors

import (
	"errors"
	"net/http"
)

// Category defines error category
type Category int

const (
	// CategoryNoError is used when a call completed without error.
	CategoryNoError Category = iota
	// CategoryDataError The client sent a malformed request or an out-of-range amount
	CategoryDataError
	// CategoryUnauthorized The request carries no valid credentials
	CategoryUnauthorized
	// CategoryForbidden The caller is authenticated but its role or ownership does not allow the action
	CategoryForbidden
	// CategoryResourceNotFound The user, conversation, gift, lootbox or task does not exist
	CategoryResourceNotFound
	// CategoryInsufficientFunds The caller's coin balance does not cover the requested amount
	CategoryInsufficientFunds
	// CategoryDataConflict The request collides with existing state, like a duplicate referral or an active subscription
	CategoryDataConflict
	// CategoryTooManyRequests The caller exceeded its request budget
	CategoryTooManyRequests
	// CategoryDependencyFailure A dependency such as the database or cache is failing
	CategoryDependencyFailure
	// CategoryGeneralError The service failed in an unexpected way
	CategoryGeneralError
)

var categoryNames = map[Category]string{
	CategoryNoError:           "CategoryNoError",
	CategoryDataError:         "CategoryDataError",
	CategoryUnauthorized:      "CategoryUnauthorized",
	CategoryForbidden:         "CategoryForbidden",
	CategoryResourceNotFound:  "CategoryResourceNotFound",
	CategoryInsufficientFunds: "CategoryInsufficientFunds",
	CategoryDataConflict:      "CategoryDataConflict",
	CategoryTooManyRequests:   "CategoryTooManyRequests",
	CategoryDependencyFailure: "CategoryDependencyFailure",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "CategoryGeneralError"
}

var categoryStatus = map[Category]int{
	CategoryDataError:         http.StatusBadRequest,
	CategoryInsufficientFunds: http.StatusBadRequest,
	CategoryUnauthorized:      http.StatusUnauthorized,
	CategoryForbidden:         http.StatusForbidden,
	CategoryResourceNotFound:  http.StatusNotFound,
	CategoryDataConflict:      http.StatusConflict,
	CategoryTooManyRequests:   http.StatusTooManyRequests,
	CategoryDependencyFailure: http.StatusBadGateway,
}

// ServiceError represents service specific type that
// is used all over the services.
type ServiceError struct {
	Category Category
	// Message is shown to the client. Err is only logged.
	Message string
	Err     error
	// Details are extra fields rendered next to the message in HTTP responses.
	Details map[string]any
}

// Error method to comply with error interface
func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

// Unwrap returns the underlying error
func (err ServiceError) Unwrap() error {
	return err.Err
}

// StatusCode returns the HTTP status code for the error category
func (err ServiceError) StatusCode() int {
	if status, ok := categoryStatus[err.Category]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Is checks that provided error is a ServiceError with desired Category
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Category == cat
}

// IsInternalError reports whether err is an infrastructure failure rather than
// an expected client-facing error.
func IsInternalError(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && (svcErr.Category < CategoryDependencyFailure) {
		return false
	}
	return true
}

func newError(cat Category, err error, fallback, message string) *ServiceError {
	if err == nil {
		err = errors.New(fallback)
	}
	return &ServiceError{Category: cat, Message: message, Err: err}
}

// GeneralError returns a general service error.
// The client sees "Internal Server Error"; err is only logged.
func GeneralError(err error) error {
	return newError(CategoryGeneralError, err, "internal server error", "Internal Server Error")
}

// ResourceNotFoundError returns an error with category ResourceNotFound
// the error message provided is returned to the user
// the err object provided is logged in logger
func ResourceNotFoundError(err error, message string) error {
	return newError(CategoryResourceNotFound, err, "resource not found: "+message, message)
}

// BadRequestError returns  an error with category DataError
// the error message provided is returned to the user
// the error object provided is logged in logger
func BadRequestError(err error, message string) error {
	return newError(CategoryDataError, err, "bad request: "+message, message)
}

// InsufficientFundsError returns an error with category InsufficientFunds.
// The required and available amounts are exposed to the client so it can offer a top-up.
func InsufficientFundsError(err error, message string, required, available int64) error {
	svcErr := newError(CategoryInsufficientFunds, err, "insufficient funds", message)
	svcErr.Details = map[string]any{
		"required":  required,
		"available": available,
	}
	return svcErr
}

// ForbiddenError returns an error with category CategoryForbidden
func ForbiddenError(err error, message string) error {
	return newError(CategoryForbidden, err, "request forbidden", message)
}

// UnAuthorizedError returns an error with category CategoryUnauthorized
func UnAuthorizedError(err error, message string) error {
	return newError(CategoryUnauthorized, err, "unauthorized", message)
}

// ConflictError returns an error with category CategoryDataConflict
func ConflictError(err error, message string) error {
	return newError(CategoryDataConflict, err, "conflict", message)
}

// TooManyRequestsError returns an error with category CategoryTooManyRequests
func TooManyRequestsError(message string) error {
	return newError(CategoryTooManyRequests, nil, "rate limited", message)
}

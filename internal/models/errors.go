package models

import (
	"errors"
	"fmt"
)

// Error codes carried by AppError.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_ERROR"
	CodeNoUser       = "NO_USER"
	CodeHandleTaken  = "HANDLE_TAKEN"

	CodeAuthInvalidEmail   = "AUTH_INVALID_EMAIL"
	CodeAuthWeakPassword   = "AUTH_WEAK_PASSWORD"
	CodeAuthEmailInUse     = "AUTH_EMAIL_IN_USE"
	CodeAuthUserNotFound   = "AUTH_USER_NOT_FOUND"
	CodeAuthWrongPassword  = "AUTH_WRONG_PASSWORD"
	CodeAuthSessionExpired = "AUTH_SESSION_EXPIRED"
)

var authMessages = map[string]string{
	CodeAuthInvalidEmail:   "The email address is badly formatted.",
	CodeAuthWeakPassword:   "Password should be at least 6 characters.",
	CodeAuthEmailInUse:     "An account already exists for this email.",
	CodeAuthUserNotFound:   "No account found for this email.",
	CodeAuthWrongPassword:  "Incorrect password. Please try again.",
	CodeAuthSessionExpired: "Your session has expired. Please log in again.",
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ErrNoUser is returned when an operation needs a logged-in user and there is none.
var ErrNoUser = &AppError{Code: CodeNoUser, Message: "No user logged in"}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Something went wrong",
		Err:     err,
	}
}

// NewAuthError builds an authentication error with the human-readable message for code.
func NewAuthError(code string) *AppError {
	msg, ok := authMessages[code]
	if !ok {
		msg = "Authentication failed. Please try again."
	}
	return &AppError{Code: code, Message: msg}
}

// UserMessage returns the text to show for err in a dialog or inline error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// ErrorCode returns the AppError code of err, or "" for other errors.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

package errors

import "errors"

// Error codes shared between the domain and the HTTP transport.
const (
	CodeInvalidInput       = "invalid_input"
	CodeChartError         = "chart_error"
	CodeBackendUnavailable = "backend_unavailable"
	CodeAnalysisFailed     = "analysis_failed"
	CodeNoChart            = "no_chart"
	CodeSessionError       = "session_error"
	CodeSuperseded         = "superseded"
)

// AppError encodes domain specific error details.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode helps handler differentiate failures.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// UserMessage returns the message meant for end users, without the wrapped cause.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

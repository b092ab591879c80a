package kundali

import "errors"

// ErrAnalysisFailed is returned when the analysis endpoint answers with a non-2xx status.
var ErrAnalysisFailed = errors.New("analysis failed")

// BackendError carries an application-level error reported in a response body.
type BackendError struct {
	Endpoint string
	Message  string
}

func (e *BackendError) Error() string {
	return e.Endpoint + ": " + e.Message
}

// AsBackendError unwraps a BackendError from err.
func AsBackendError(err error) (*BackendError, bool) {
	var be *BackendError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

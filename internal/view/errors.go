package view

import "net/http"

// HTTPError is an error rendered on the error page with an explicit status.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string   { return e.Message }
func (e *HTTPError) StatusCode() int { return e.Status }

// NotFound is the error page shown for unknown routes.
func NotFound() *HTTPError {
	return &HTTPError{Status: http.StatusNotFound, Message: "Page Not Found!.."}
}

// BadRequest returns a 400 error carrying msg.
func BadRequest(msg string) *HTTPError {
	return &HTTPError{Status: http.StatusBadRequest, Message: msg}
}

package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork wraps failures where the request never completed.
	ErrNetwork = errors.New("network error")
	// ErrShapeMismatch is returned when a response lacks the expected fields.
	ErrShapeMismatch = errors.New("unexpected response shape")
)

// ServerError is a non-success HTTP response.
type ServerError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServerError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("server error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	case e.Code != "":
		return fmt.Sprintf("server error %d (%s)", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("server error %d", e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var se *ServerError
	return errors.As(err, &se) && se.StatusCode == 401
}

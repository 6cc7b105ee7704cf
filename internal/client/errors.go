package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a transport failure
type ErrorKind string

const (
	// KindNetwork covers failures before a response arrived
	KindNetwork ErrorKind = "network"
	// KindStatus covers non-2xx responses
	KindStatus ErrorKind = "status"
	// KindDecode covers 2xx responses whose body could not be decoded
	KindDecode ErrorKind = "decode"
)

// TransportError is the only error kind surfaced by the API client
type TransportError struct {
	Op         string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Message != "" {
			return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%s: server returned %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 from the API
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func hasStatus(err error, code int) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind == KindStatus && te.StatusCode == code
	}
	return false
}

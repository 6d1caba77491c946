package runner

import (
	"errors"
	"fmt"
	"net"
)

// decodeFailureMessage is recorded for malformed JSON bodies.
const decodeFailureMessage = "failed to decode response body"

// TransportError wraps network failures and timeouts. Its message is the
// underlying error text.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline.
func (e *TransportError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Status)
}

// DecodeError is a JSON body that failed to parse.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return decodeFailureMessage }
func (e *DecodeError) Unwrap() error { return e.Err }

// BodyTooLargeError is a response body over MaxBodyBytes. Nothing past the
// cap is read.
type BodyTooLargeError struct {
	Limit int64
}

func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("response body exceeds %d MiB", e.Limit>>20)
}

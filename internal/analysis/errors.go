package analysis

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds, used when an error has to be carried as data.
const (
	KindTransport        = "transport"
	KindHTTPStatus       = "http_status"
	KindDecode           = "decode"
	KindTimeout          = "timeout"
	KindInvalidParameter = "invalid_parameter"
)

// InvalidParameterError is returned before any request is sent when a
// parameter is out of range.
type InvalidParameterError struct {
	Name  string
	Value int
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("analysis: invalid parameter %s=%d: must be a positive integer", e.Name, e.Value)
}

// TransportError wraps a network-level failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("analysis: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError is returned when the service answers with a non-2xx status.
type HTTPStatusError struct {
	Op     string
	Code   int
	Detail string
}

func (e *HTTPStatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("analysis: %s: HTTP %d: %s", e.Op, e.Code, e.Detail)
	}
	return fmt.Sprintf("analysis: %s: HTTP %d", e.Op, e.Code)
}

// DecodeError is returned when a response body does not have the expected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("analysis: %s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TimeoutError is returned when a call exceeds the client's upper bound.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("analysis: %s: timed out after %s", e.Op, e.After)
}

// Timeout reports true so the error satisfies net.Error-style checks.
func (e *TimeoutError) Timeout() bool { return true }

// Kind returns the kind constant for the first typed error in err's chain,
// or "" if there is none.
func Kind(err error) string {
	var (
		transport *TransportError
		status    *HTTPStatusError
		decode    *DecodeError
		timeout   *TimeoutError
		param     *InvalidParameterError
	)
	switch {
	case errors.As(err, &timeout):
		return KindTimeout
	case errors.As(err, &status):
		return KindHTTPStatus
	case errors.As(err, &decode):
		return KindDecode
	case errors.As(err, &param):
		return KindInvalidParameter
	case errors.As(err, &transport):
		return KindTransport
	default:
		return ""
	}
}

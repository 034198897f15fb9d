package loki

import "fmt"

// ErrorCode identifies a failure class at the tool surface boundary.
type ErrorCode string

const (
	// ErrCodeQueryExecution is reported when the logcli subprocess fails.
	ErrCodeQueryExecution ErrorCode = "query_execution_failed"
	// ErrCodeHTTPQuery is reported when the HTTP backend fails, including
	// missing server address and non-2xx responses.
	ErrCodeHTTPQuery ErrorCode = "http_query_error"
	// ErrCodeConfigLoad is reported for load-time configuration failures,
	// e.g. an unreadable bearer token file or TLS material.
	ErrCodeConfigLoad ErrorCode = "config_load_error"
	// ErrCodeInternal wraps anything that is not already a typed error.
	ErrCodeInternal ErrorCode = "internal_error"
)

// Error is the typed failure crossing from the query service into the
// tool surface. SubCode carries a process exit status or HTTP status when
// one is available; Detail carries diagnostic context such as the
// original query and captured stderr or response body.
type Error struct {
	Code    ErrorCode
	Message string
	SubCode int
	Detail  map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.SubCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.SubCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds a typed error, wrapping cause when present.
func newError(code ErrorCode, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

func (e *Error) withSubCode(sub int) *Error {
	e.SubCode = sub
	return e
}

func (e *Error) withDetail(key string, value interface{}) *Error {
	if e.Detail == nil {
		e.Detail = map[string]interface{}{}
	}
	e.Detail[key] = value
	return e
}

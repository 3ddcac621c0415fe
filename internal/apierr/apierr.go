package apierr

import (
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Unauthenticated(err error) *Error {
	return New(http.StatusUnauthorized, "UNAUTHENTICATED", err)
}

func Validation(err error) *Error {
	return New(http.StatusBadRequest, "VALIDATION", err)
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, "NOT_FOUND", err)
}

// Generation marks an upstream model failure on the write path. Callers may
// retry the whole request.
func Generation(err error) *Error {
	return New(http.StatusBadGateway, "GENERATION_FAILED", err)
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "INTERNAL", err)
}

// Package apperr classifies failures so the HTTP layer can pick a status
// code without inspecting error strings.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// InvalidArgument: a required parameter is missing or unparsable.
	InvalidArgument Kind = iota
	// NotFound: no stored data for the requested entity.
	NotFound
	// UpstreamFailure: the store or the external provider failed.
	UpstreamFailure
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Invalid(format string, args ...any) error {
	return &Error{Kind: InvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: NotFound, Msg: fmt.Sprintf(format, args...)}
}

func Upstream(msg string, err error) error {
	return &Error{Kind: UpstreamFailure, Msg: msg, Err: err}
}

// KindOf reports the kind of err, defaulting to UpstreamFailure for errors
// that did not come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UpstreamFailure
}

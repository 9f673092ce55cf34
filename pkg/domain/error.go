package domain

import (
	"errors"
	"fmt"
)

type Error struct {
	orig error
	msg  string
	code error
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}

	return e.msg
}

func (e *Error) Unwrap() error {
	if e.orig != nil {
		return e.orig
	}
	return e.code
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.code, target)
}

func (e *Error) Code() error {
	return e.code
}

func WrapErrorf(orig error, code error, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

var (
	// ErrAssetLoad will throw if the graph asset is missing, unreadable, or structurally invalid
	ErrAssetLoad = errors.New("graph asset load failed")
	// ErrUnknownProfile will throw if the requested vehicle profile is not registered
	ErrUnknownProfile = errors.New("unknown vehicle profile")
	// ErrMissingWeightAttribute will throw if the requested weight/profile combination is not present on the graph edges
	ErrMissingWeightAttribute = errors.New("missing weight attribute")
	// ErrInvalidWeight will throw if a negative or non-finite edge weight is encountered
	ErrInvalidWeight = errors.New("invalid edge weight")
	// ErrNoPath will throw if origin and destination are in disconnected components
	ErrNoPath = errors.New("no path between origin and destination")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("given param is not valid")
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("internal server error")
)

var MessageInternalServerError string = "internal server error"

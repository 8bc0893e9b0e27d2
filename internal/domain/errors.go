package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrNoData   = errors.New("no data")

	ErrUnreachable   = errors.New("remote unreachable")
	ErrBadStatus     = errors.New("remote bad status")
	ErrMalformedBody = errors.New("remote malformed body")
)

type FetchKind int

const (
	Unreachable FetchKind = iota + 1
	BadStatus
	MalformedBody
)

func (k FetchKind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case BadStatus:
		return "bad_status"
	case MalformedBody:
		return "malformed_body"
	}
	return "unknown"
}

// FetchError is the only error the remote client returns.
type FetchError struct {
	Kind   FetchKind
	URL    string
	Status int // set for BadStatus
	Err    error
}

func (e *FetchError) Error() string {
	var msg string
	switch e.Kind {
	case BadStatus:
		msg = fmt.Sprintf("fetch %s: bad status %d", e.URL, e.Status)
	default:
		msg = fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets callers match on the kind with errors.Is(err, ErrUnreachable) and friends.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrUnreachable:
		return e.Kind == Unreachable
	case ErrBadStatus:
		return e.Kind == BadStatus
	case ErrMalformedBody:
		return e.Kind == MalformedBody
	}
	return false
}

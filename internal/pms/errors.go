package pms

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind is the category of an upstream failure.
type Kind string

const (
	KindConfig    Kind = "config"
	KindAuth      Kind = "auth"
	KindNotFound  Kind = "not_found"
	KindServer    Kind = "server"
	KindMalformed Kind = "malformed"
	KindNetwork   Kind = "network"
	KindTimeout   Kind = "timeout"
	KindUnknown   Kind = "unknown"
)

// Retryable reports whether re-invoking the same call may succeed.
func (k Kind) Retryable() bool {
	switch k {
	case KindServer, KindNetwork, KindTimeout:
		return true
	}
	return false
}

// Error is returned by every Client call that fails.
type Error struct {
	Kind   Kind
	Status int
	Op     string
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("pms %s: %s (status=%d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("pms %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf classifies any error, looking through wrapping.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}
	return KindUnknown
}

func newError(op string, kind Kind, status int, err error) *Error {
	return &Error{Kind: kind, Status: status, Op: op, Err: err}
}

// transportError wraps an http.Client.Do failure.
func transportError(op string, err error) *Error {
	kind := KindNetwork
	if KindOf(err) == KindTimeout {
		kind = KindTimeout
	}
	return newError(op, kind, 0, err)
}

func statusKind(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 404:
		return KindNotFound
	case status == 429 || status >= 500:
		return KindServer
	default:
		return KindMalformed
	}
}
